package rpc

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/danmuck/bindrpc/internal/pack"
)

// invoker decodes arguments from u, runs the bound function and appends the
// encoded result to p.
type invoker func(u *pack.Unpacker, p *pack.Packer) error

// Callable is a bound function erased to bytes in, bytes out. It is
// immutable after construction and safe for concurrent use if the wrapped
// function is.
type Callable struct {
	sig     Signature
	sigWire []byte
	invoke  invoker
}

var nop = &Callable{
	sig:     Signature{Return: pack.TypeInfo{Kind: pack.KindUnit}},
	sigWire: []byte{byte(pack.KindUnit), 0},
	invoke: func(u *pack.Unpacker, _ *pack.Packer) error {
		return finish(u)
	},
}

// Nop returns the placeholder callable: no arguments, unit result.
func Nop() *Callable {
	return nop
}

func newCallable(sig Signature, inv invoker) (*Callable, error) {
	wire, err := sig.Encode()
	if err != nil {
		return nil, err
	}
	return &Callable{sig: sig, sigWire: wire, invoke: inv}, nil
}

// Invoke decodes args, calls the function and returns the encoded result.
// Argument failures wrap ErrBadArguments; failures raised by the function,
// including panics, are *ExecutionError.
func (c *Callable) Invoke(args []byte) (out []byte, err error) {
	if c == nil || c.invoke == nil {
		c = nop
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &ExecutionError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	var p pack.Packer
	if err := c.invoke(pack.NewUnpacker(args), &p); err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

// Signature returns the descriptor computed at construction.
func (c *Callable) Signature() Signature {
	if c == nil || c.invoke == nil {
		return nop.sig
	}
	return c.sig
}

// SignatureBytes returns the wire form of Signature. Callers must not
// modify the result.
func (c *Callable) SignatureBytes() []byte {
	if c == nil || c.invoke == nil {
		return nop.sigWire
	}
	return c.sigWire
}

// Must panics if err is non-nil. It is meant for binding literals at
// startup.
func Must(c *Callable, err error) *Callable {
	if err != nil {
		panic(err)
	}
	return c
}

var errorType = reflect.TypeFor[error]()

// NewCallable wraps any function whose parameter and result types have a
// wire form. Accepted result lists are (), (R), (error) and (R, error).
// Unsupported shapes fail here rather than at call time.
func NewCallable(fn any) (*Callable, error) {
	if c, ok := fn.(*Callable); ok {
		if c == nil {
			return nil, ErrNotFunc
		}
		return c, nil
	}
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T", ErrNotFunc, fn)
	}
	if rv.IsNil() {
		return nil, fmt.Errorf("%w: nil %T", ErrNotFunc, fn)
	}
	rt := rv.Type()
	if rt.IsVariadic() {
		return nil, fmt.Errorf("%w: %s", ErrVariadic, rt)
	}
	if rt.NumIn() > MaxArgs {
		return nil, fmt.Errorf("%w: %d", ErrTooManyArgs, rt.NumIn())
	}

	argCodecs := make([]pack.Codec, rt.NumIn())
	sig := Signature{Args: make([]pack.TypeInfo, rt.NumIn())}
	for i := range argCodecs {
		c, err := pack.CodecOf(rt.In(i))
		if err != nil {
			return nil, fmt.Errorf("rpc: argument %d of %s: %w", i, rt, err)
		}
		argCodecs[i] = c
		sig.Args[i] = c.Type()
	}

	hasValue, errIdx := false, -1
	switch rt.NumOut() {
	case 0:
	case 1:
		if rt.Out(0) == errorType {
			errIdx = 0
		} else {
			hasValue = true
		}
	case 2:
		if rt.Out(0) == errorType || rt.Out(1) != errorType {
			return nil, fmt.Errorf("%w: %s", ErrBadResults, rt)
		}
		hasValue, errIdx = true, 1
	default:
		return nil, fmt.Errorf("%w: %s", ErrBadResults, rt)
	}

	var retCodec pack.Codec
	if hasValue {
		c, err := pack.CodecOf(rt.Out(0))
		if err != nil {
			return nil, fmt.Errorf("rpc: result of %s: %w", rt, err)
		}
		retCodec = c
		sig.Return = c.Type()
	} else {
		sig.Return = pack.TypeInfo{Kind: pack.KindUnit}
	}

	return newCallable(sig, func(u *pack.Unpacker, p *pack.Packer) error {
		in := make([]reflect.Value, len(argCodecs))
		for i, c := range argCodecs {
			v := reflect.New(rt.In(i)).Elem()
			if err := c.Decode(u, v); err != nil {
				return badArg(i, err)
			}
			in[i] = v
		}
		if err := finish(u); err != nil {
			return err
		}
		out := rv.Call(in)
		if errIdx >= 0 {
			if e, _ := out[errIdx].Interface().(error); e != nil {
				return failed(e)
			}
		}
		if hasValue {
			retCodec.Encode(p, out[0])
		}
		return nil
	})
}

func badArg(i int, err error) error {
	return fmt.Errorf("%w: argument %d: %w", ErrBadArguments, i, err)
}

func finish(u *pack.Unpacker) error {
	if err := u.Done(); err != nil {
		return fmt.Errorf("%w: %w", ErrBadArguments, err)
	}
	return nil
}

func failed(err error) error {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee
	}
	return &ExecutionError{Err: err}
}
