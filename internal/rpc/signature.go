package rpc

import (
	"fmt"
	"strings"

	"github.com/danmuck/bindrpc/internal/pack"
)

// MaxArgs is the widest arity a signature can describe.
const MaxArgs = 255

// Signature describes a bound function: its return type and ordered
// argument types. Void functions report unit.
type Signature struct {
	Return pack.TypeInfo
	Args   []pack.TypeInfo
}

// Encode returns the wire form: return descriptor, u8 argument count, then
// each argument descriptor in order.
func (s Signature) Encode() ([]byte, error) {
	if len(s.Args) > MaxArgs {
		return nil, fmt.Errorf("%w: %d", ErrTooManyArgs, len(s.Args))
	}
	var p pack.Packer
	p.PutType(s.Return)
	p.PutUint8(uint8(len(s.Args)))
	for _, a := range s.Args {
		p.PutType(a)
	}
	return p.Bytes(), nil
}

// DecodeSignature parses the wire form produced by Encode.
func DecodeSignature(b []byte) (Signature, error) {
	u := pack.NewUnpacker(b)
	ret, err := u.Type()
	if err != nil {
		return Signature{}, fmt.Errorf("rpc: signature return: %w", err)
	}
	n, err := u.Uint8()
	if err != nil {
		return Signature{}, fmt.Errorf("rpc: signature arity: %w", err)
	}
	args := make([]pack.TypeInfo, n)
	for i := range args {
		if args[i], err = u.Type(); err != nil {
			return Signature{}, fmt.Errorf("rpc: signature arg %d: %w", i, err)
		}
	}
	if err := u.Done(); err != nil {
		return Signature{}, fmt.Errorf("rpc: signature: %w", err)
	}
	return Signature{Return: ret, Args: args}, nil
}

// Equal reports structural equality.
func (s Signature) Equal(o Signature) bool {
	if !s.Return.Equal(o.Return) || len(s.Args) != len(o.Args) {
		return false
	}
	for i := range s.Args {
		if !s.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// String renders the signature as "(u32, u32) -> u32".
func (s Signature) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + s.Return.String()
}
