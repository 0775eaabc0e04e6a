package rpc

import (
	"errors"

	"github.com/danmuck/bindrpc/internal/protocol"
	"github.com/danmuck/bindrpc/internal/transport"
	"github.com/rs/zerolog/log"
)

// Dispatcher turns request envelopes into replies against a Registry. It
// holds no per-connection state.
type Dispatcher struct {
	reg *Registry
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

var _ transport.Handler = (*Dispatcher)(nil)

// ServeMessage dispatches msg and sends exactly one reply.
func (d *Dispatcher) ServeMessage(s transport.Sender, msg []byte) {
	if err := s.Send(d.Dispatch(msg)); err != nil {
		log.Debug().Err(err).Msg("rpc: reply not sent")
	}
}

// Dispatch handles one request and returns the reply bytes. Every request
// produces a reply.
func (d *Dispatcher) Dispatch(msg []byte) []byte {
	req, err := protocol.DecodeRequest(msg)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownRequestType) {
			log.Debug().Stringer("type", req.Type).Msg("rpc: invalid request type")
			return protocol.EncodeReply(protocol.StatusInvalidRequest, nil)
		}
		log.Debug().Err(err).Msg("rpc: malformed request")
		return protocol.EncodeReply(protocol.StatusError, nil)
	}

	switch req.Type {
	case protocol.RequestCall:
		return d.call(req)
	case protocol.RequestSignature:
		c, ok := d.reg.Lookup(req.Handle)
		if !ok {
			return protocol.EncodeReply(protocol.StatusUnknownHandle, nil)
		}
		return protocol.EncodeReply(protocol.StatusOK, c.SignatureBytes())
	case protocol.RequestHandleList:
		return protocol.EncodeHandleList(d.reg.Handles())
	case protocol.RequestVarList:
		return protocol.EncodeVarList(d.reg.Vars())
	}
	return protocol.EncodeReply(protocol.StatusInvalidRequest, nil)
}

func (d *Dispatcher) call(req protocol.Request) []byte {
	c, ok := d.reg.Lookup(req.Handle)
	if !ok {
		log.Debug().Str("handle", req.Handle).Msg("rpc: unknown handle")
		return protocol.EncodeReply(protocol.StatusUnknownHandle, nil)
	}
	out, err := c.Invoke(req.Args)
	if err == nil {
		return protocol.EncodeReply(protocol.StatusOK, out)
	}

	var ee *ExecutionError
	if errors.As(err, &ee) {
		log.Warn().Err(ee).Str("handle", req.Handle).Msg("rpc: execution failed")
		return protocol.EncodeExecutionError(ee.Message())
	}
	log.Debug().Err(err).Str("handle", req.Handle).Msg("rpc: bad call arguments")
	return protocol.EncodeReply(protocol.StatusError, nil)
}
