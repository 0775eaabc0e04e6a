package pack

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
)

// Unpacker reads encoded values from a buffer front to back.
type Unpacker struct {
	buf []byte
	off int
}

func NewUnpacker(b []byte) *Unpacker {
	return &Unpacker{buf: b}
}

// Len is the number of unread bytes.
func (u *Unpacker) Len() int {
	return len(u.buf) - u.off
}

// Rest consumes and returns every unread byte.
func (u *Unpacker) Rest() []byte {
	b := u.buf[u.off:]
	u.off = len(u.buf)
	return b
}

// Done fails with ErrTrailingBytes when unread bytes remain.
func (u *Unpacker) Done() error {
	if n := u.Len(); n != 0 {
		return fmt.Errorf("%w: %d unread", ErrTrailingBytes, n)
	}
	return nil
}

func (u *Unpacker) take(n int) ([]byte, error) {
	if n < 0 || u.Len() < n {
		return nil, ErrTruncated
	}
	b := u.buf[u.off : u.off+n]
	u.off += n
	return b, nil
}

func (u *Unpacker) Uint8() (uint8, error) {
	b, err := u.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (u *Unpacker) Uint16() (uint16, error) {
	b, err := u.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (u *Unpacker) Uint32() (uint32, error) {
	b, err := u.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (u *Unpacker) Uint64() (uint64, error) {
	b, err := u.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (u *Unpacker) Int8() (int8, error) {
	v, err := u.Uint8()
	return int8(v), err
}

func (u *Unpacker) Int16() (int16, error) {
	v, err := u.Uint16()
	return int16(v), err
}

func (u *Unpacker) Int32() (int32, error) {
	v, err := u.Uint32()
	return int32(v), err
}

func (u *Unpacker) Int64() (int64, error) {
	v, err := u.Uint64()
	return int64(v), err
}

func (u *Unpacker) Float32() (float32, error) {
	v, err := u.Uint32()
	return math.Float32frombits(v), err
}

func (u *Unpacker) Float64() (float64, error) {
	v, err := u.Uint64()
	return math.Float64frombits(v), err
}

func (u *Unpacker) Bool() (bool, error) {
	v, err := u.Uint8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", ErrInvalidBool, v)
	}
}

func (u *Unpacker) String() (string, error) {
	b, err := u.sized()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bytes reads a length-prefixed byte string into a fresh slice.
func (u *Unpacker) Bytes() ([]byte, error) {
	b, err := u.sized()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (u *Unpacker) sized() ([]byte, error) {
	n, err := u.Uint32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(u.Len()) {
		return nil, ErrTruncated
	}
	return u.take(int(n))
}

// Type reads a type descriptor.
func (u *Unpacker) Type() (TypeInfo, error) {
	return u.typeAt(0)
}

func (u *Unpacker) typeAt(depth int) (TypeInfo, error) {
	if depth > maxTypeDepth {
		return TypeInfo{}, fmt.Errorf("%w: type nesting deeper than %d", ErrTooLarge, maxTypeDepth)
	}
	raw, err := u.Uint8()
	if err != nil {
		return TypeInfo{}, err
	}
	k := Kind(raw)
	n := 0
	switch {
	case !k.Valid():
		return TypeInfo{}, fmt.Errorf("%w: %d", ErrInvalidKind, raw)
	case k.Scalar():
		return TypeInfo{Kind: k}, nil
	case k == KindList, k == KindOptional:
		n = 1
	case k == KindMap:
		n = 2
	case k == KindTuple:
		count, err := u.Uint8()
		if err != nil {
			return TypeInfo{}, err
		}
		n = int(count)
	}
	t := TypeInfo{Kind: k, Elems: make([]TypeInfo, 0, n)}
	for i := 0; i < n; i++ {
		e, err := u.typeAt(depth + 1)
		if err != nil {
			return TypeInfo{}, err
		}
		t.Elems = append(t.Elems, e)
	}
	return t, nil
}

// Value decodes into the value ptr points to, using its static Go type.
func (u *Unpacker) Value(ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer", ErrNilValue)
	}
	c, err := codecOf(rv.Type().Elem())
	if err != nil {
		return err
	}
	return c.dec(u, rv.Elem())
}
