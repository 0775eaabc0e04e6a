package pack

import "reflect"

// TypeFor resolves the descriptor for T.
func TypeFor[T any]() (TypeInfo, error) {
	return TypeOf(reflect.TypeFor[T]())
}

// Encode packs each value in order into one buffer.
func Encode(values ...any) ([]byte, error) {
	var p Packer
	for _, v := range values {
		if err := p.Put(v); err != nil {
			return nil, err
		}
	}
	return p.Bytes(), nil
}

// EncodeType returns the wire form of a descriptor.
func EncodeType(t TypeInfo) []byte {
	var p Packer
	p.PutType(t)
	return p.Bytes()
}

// Decode unpacks exactly one T from b; unread bytes are an error.
func Decode[T any](b []byte) (T, error) {
	u := NewUnpacker(b)
	v, err := Next[T](u)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := u.Done(); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Next unpacks one T from the unpacker's current position.
func Next[T any](u *Unpacker) (T, error) {
	var v T
	c, err := codecOf(reflect.TypeFor[T]())
	if err != nil {
		return v, err
	}
	if err := c.dec(u, reflect.ValueOf(&v).Elem()); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Codec is a resolved encoder/decoder for one Go type.
type Codec struct {
	c *codec
}

// CodecOf resolves the codec for t once so hot paths skip the cache lookup.
func CodecOf(t reflect.Type) (Codec, error) {
	c, err := codecOf(t)
	if err != nil {
		return Codec{}, err
	}
	return Codec{c: c}, nil
}

// Type returns the wire descriptor of the codec's Go type.
func (c Codec) Type() TypeInfo {
	return c.c.info
}

// Encode appends v, which must have the codec's Go type.
func (c Codec) Encode(p *Packer, v reflect.Value) {
	c.c.enc(p, v)
}

// Decode reads one value into the settable v.
func (c Codec) Decode(u *Unpacker, v reflect.Value) error {
	return c.c.dec(u, v)
}

// TypedCodec is a Codec fixed to T. Resolve it once with CodecFor and reuse
// it; Put and Next skip the type cache.
type TypedCodec[T any] struct {
	c *codec
}

func CodecFor[T any]() (TypedCodec[T], error) {
	c, err := codecOf(reflect.TypeFor[T]())
	if err != nil {
		return TypedCodec[T]{}, err
	}
	return TypedCodec[T]{c: c}, nil
}

func (c TypedCodec[T]) Type() TypeInfo {
	return c.c.info
}

func (c TypedCodec[T]) Put(p *Packer, v T) {
	c.c.enc(p, reflect.ValueOf(&v).Elem())
}

func (c TypedCodec[T]) Next(u *Unpacker) (T, error) {
	var v T
	if err := c.c.dec(u, reflect.ValueOf(&v).Elem()); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
