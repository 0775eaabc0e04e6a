// Package client calls handles exposed by an rpc server.
package client

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/danmuck/bindrpc/internal/pack"
	"github.com/danmuck/bindrpc/internal/protocol"
	"github.com/danmuck/bindrpc/internal/rpc"
	"github.com/danmuck/bindrpc/internal/transport"
	"github.com/rs/zerolog/log"
)

var (
	ErrArity      = errors.New("client: wrong number of arguments")
	ErrArgType    = errors.New("client: argument type mismatch")
	ErrResultType = errors.New("client: result type mismatch")
)

// StatusError is a reply whose status is not Ok.
type StatusError struct {
	Status  protocol.Status
	Handle  string
	Message string
}

func (e *StatusError) Error() string {
	msg := "client: " + e.Status.String()
	if e.Handle != "" {
		msg = "client: " + e.Handle + ": " + e.Status.String()
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// IsStatus reports whether err is a StatusError carrying status.
func IsStatus(err error, status protocol.Status) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// VarInfo describes one remote variable. Empty accessor names were not bound.
type VarInfo struct {
	Name   string
	Getter string
	Setter string
}

func (v VarInfo) Readable() bool { return v.Getter != "" }
func (v VarInfo) Writable() bool { return v.Setter != "" }

// Client issues requests over one connection. Methods are safe for
// concurrent use; requests are serialized on the connection.
type Client struct {
	conn *transport.Conn

	mu   sync.Mutex
	sigs map[string]rpc.Signature
}

// Dial connects to an rpc server.
func Dial(ctx context.Context, addr string, cfg transport.Config) (*Client, error) {
	conn, err := transport.Dial(ctx, addr, cfg)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// New wraps an established connection.
func New(conn *transport.Conn) *Client {
	return &Client{conn: conn, sigs: make(map[string]rpc.Signature)}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Handles lists every handle bound on the server.
func (c *Client) Handles(ctx context.Context) ([]string, error) {
	reply, err := c.conn.RoundTrip(ctx, protocol.EncodeHandleListRequest())
	if err != nil {
		return nil, err
	}
	return protocol.DecodeHandleList(reply)
}

// Vars lists every variable bound on the server.
func (c *Client) Vars(ctx context.Context) ([]VarInfo, error) {
	reply, err := c.conn.RoundTrip(ctx, protocol.EncodeVarListRequest())
	if err != nil {
		return nil, err
	}
	entries, err := protocol.DecodeVarList(reply)
	if err != nil {
		return nil, err
	}
	out := make([]VarInfo, len(entries))
	for i, e := range entries {
		out[i].Name = e.Name
		if e.Getter != nil {
			out[i].Getter = *e.Getter
		}
		if e.Setter != nil {
			out[i].Setter = *e.Setter
		}
	}
	return out, nil
}

// Signature fetches the signature of handle. Results are cached until the
// server reports the handle unknown, a call finds the cached copy stale, or
// Forget is called.
func (c *Client) Signature(ctx context.Context, handle string) (rpc.Signature, error) {
	sig, _, err := c.signature(ctx, handle)
	return sig, err
}

func (c *Client) signature(ctx context.Context, handle string) (rpc.Signature, bool, error) {
	c.mu.Lock()
	sig, ok := c.sigs[handle]
	c.mu.Unlock()
	if ok {
		return sig, true, nil
	}

	reply, err := c.conn.RoundTrip(ctx, protocol.EncodeSignatureRequest(handle))
	if err != nil {
		return rpc.Signature{}, false, err
	}
	payload, err := c.check(handle, reply)
	if err != nil {
		return rpc.Signature{}, false, err
	}
	sig, err = rpc.DecodeSignature(payload)
	if err != nil {
		return rpc.Signature{}, false, fmt.Errorf("%w: %v", protocol.ErrMalformedReply, err)
	}

	c.mu.Lock()
	c.sigs[handle] = sig
	c.mu.Unlock()
	return sig, false, nil
}

// withSignature runs fn against the signature of handle. When fn fails in a
// way a rebound handle would explain (local arity or type mismatch, or an
// Error reply, which means the arguments were rejected before running) and
// the signature came from the cache, it is refetched and fn runs once more.
func (c *Client) withSignature(ctx context.Context, handle string, fn func(rpc.Signature) error) error {
	sig, cached, err := c.signature(ctx, handle)
	if err != nil {
		return err
	}
	err = fn(sig)
	if err == nil || !cached || !staleSignature(err) {
		return err
	}
	log.Debug().Str("handle", handle).Stringer("remote", c.conn.RemoteAddr()).Err(err).Msg("client: refreshing cached signature")
	c.Forget(handle)
	fresh, _, ferr := c.signature(ctx, handle)
	if ferr != nil {
		return ferr
	}
	if fresh.Equal(sig) {
		return err
	}
	return fn(fresh)
}

func staleSignature(err error) bool {
	return errors.Is(err, ErrArity) ||
		errors.Is(err, ErrArgType) ||
		errors.Is(err, ErrResultType) ||
		IsStatus(err, protocol.StatusError)
}

// Forget drops the cached signature of handle, or every cached signature
// when handle is empty.
func (c *Client) Forget(handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if handle == "" {
		clear(c.sigs)
		return
	}
	delete(c.sigs, handle)
}

// Call checks args against the remote signature, invokes handle and decodes
// the result into out, which must be a pointer to a Go type with the
// signature's return descriptor. A nil out discards the result.
func (c *Client) Call(ctx context.Context, handle string, out any, args ...any) error {
	return c.withSignature(ctx, handle, func(sig rpc.Signature) error {
		return c.call(ctx, handle, sig, out, args)
	})
}

func (c *Client) call(ctx context.Context, handle string, sig rpc.Signature, out any, args []any) error {
	var err error
	var target reflect.Value
	var codec pack.Codec
	if out != nil {
		target = reflect.ValueOf(out)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("%w: out must be a non-nil pointer, got %T", ErrResultType, out)
		}
		if codec, err = pack.CodecOf(target.Type().Elem()); err != nil {
			return fmt.Errorf("%w: %v", ErrResultType, err)
		}
		if !codec.Type().Equal(sig.Return) {
			return fmt.Errorf("%w: %s returns %s, out is %s", ErrResultType, handle, sig.Return, codec.Type())
		}
	}

	packed, err := packArgs(handle, sig, args)
	if err != nil {
		return err
	}
	payload, err := c.CallRaw(ctx, handle, packed)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	u := pack.NewUnpacker(payload)
	if err := codec.Decode(u, target.Elem()); err != nil {
		return fmt.Errorf("%w: result: %v", protocol.ErrMalformedReply, err)
	}
	if err := u.Done(); err != nil {
		return fmt.Errorf("%w: result: %v", protocol.ErrMalformedReply, err)
	}
	return nil
}

// CallDynamic invokes handle and decodes the result from the remote
// signature alone. Tuples come back as anonymous structs.
func (c *Client) CallDynamic(ctx context.Context, handle string, args ...any) (any, error) {
	var v any
	err := c.withSignature(ctx, handle, func(sig rpc.Signature) error {
		var err error
		v, err = c.callDynamic(ctx, handle, sig, args)
		return err
	})
	return v, err
}

func (c *Client) callDynamic(ctx context.Context, handle string, sig rpc.Signature, args []any) (any, error) {
	packed, err := packArgs(handle, sig, args)
	if err != nil {
		return nil, err
	}
	payload, err := c.CallRaw(ctx, handle, packed)
	if err != nil {
		return nil, err
	}
	u := pack.NewUnpacker(payload)
	v, err := pack.DecodeValue(sig.Return, u)
	if err != nil {
		return nil, fmt.Errorf("%w: result: %v", protocol.ErrMalformedReply, err)
	}
	if err := u.Done(); err != nil {
		return nil, fmt.Errorf("%w: result: %v", protocol.ErrMalformedReply, err)
	}
	return v, nil
}

// CallRaw sends pre-packed arguments and returns the packed result. Non-Ok
// replies are *StatusError.
func (c *Client) CallRaw(ctx context.Context, handle string, args []byte) ([]byte, error) {
	reply, err := c.conn.RoundTrip(ctx, protocol.EncodeCall(handle, args))
	if err != nil {
		return nil, err
	}
	return c.check(handle, reply)
}

func (c *Client) check(handle string, reply []byte) ([]byte, error) {
	status, payload, err := protocol.DecodeReply(reply)
	if err != nil {
		return nil, err
	}
	switch status {
	case protocol.StatusOK:
		return payload, nil
	case protocol.StatusExecutionError:
		msg, err := protocol.DecodeExecutionError(payload)
		if err != nil {
			return nil, err
		}
		return nil, &StatusError{Status: status, Handle: handle, Message: msg}
	case protocol.StatusUnknownHandle:
		c.Forget(handle)
	}
	log.Debug().Str("handle", handle).Stringer("remote", c.conn.RemoteAddr()).Stringer("status", status).Msg("client: request failed")
	return nil, &StatusError{Status: status, Handle: handle}
}

func packArgs(handle string, sig rpc.Signature, args []any) ([]byte, error) {
	if len(args) != len(sig.Args) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, handle, len(sig.Args), len(args))
	}
	var p pack.Packer
	for i, a := range args {
		if a == nil {
			return nil, fmt.Errorf("%w: argument %d is nil", ErrArgType, i)
		}
		ti, err := pack.TypeOf(reflect.TypeOf(a))
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %v", ErrArgType, i, err)
		}
		if !ti.Equal(sig.Args[i]) {
			return nil, fmt.Errorf("%w: argument %d of %s is %s, want %s", ErrArgType, i, handle, ti, sig.Args[i])
		}
		if err := p.Put(a); err != nil {
			return nil, err
		}
	}
	return p.Bytes(), nil
}
