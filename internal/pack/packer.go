package pack

import (
	"encoding/binary"
	"math"
	"reflect"
)

// Packer appends encoded values to a growing buffer. The zero value is ready to use.
type Packer struct {
	buf []byte
}

// NewPacker returns a packer with capacity preallocated.
func NewPacker(capacity int) *Packer {
	return &Packer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded buffer. The slice aliases the packer's storage.
func (p *Packer) Bytes() []byte {
	return p.buf
}

func (p *Packer) Len() int {
	return len(p.buf)
}

// Append writes raw, already-encoded bytes.
func (p *Packer) Append(raw []byte) {
	p.buf = append(p.buf, raw...)
}

func (p *Packer) PutUint8(v uint8) {
	p.buf = append(p.buf, v)
}

func (p *Packer) PutUint16(v uint16) {
	p.buf = binary.BigEndian.AppendUint16(p.buf, v)
}

func (p *Packer) PutUint32(v uint32) {
	p.buf = binary.BigEndian.AppendUint32(p.buf, v)
}

func (p *Packer) PutUint64(v uint64) {
	p.buf = binary.BigEndian.AppendUint64(p.buf, v)
}

func (p *Packer) PutInt8(v int8) {
	p.PutUint8(uint8(v))
}

func (p *Packer) PutInt16(v int16) {
	p.PutUint16(uint16(v))
}

func (p *Packer) PutInt32(v int32) {
	p.PutUint32(uint32(v))
}

func (p *Packer) PutInt64(v int64) {
	p.PutUint64(uint64(v))
}

func (p *Packer) PutFloat32(v float32) {
	p.PutUint32(math.Float32bits(v))
}

func (p *Packer) PutFloat64(v float64) {
	p.PutUint64(math.Float64bits(v))
}

func (p *Packer) PutBool(v bool) {
	if v {
		p.PutUint8(1)
		return
	}
	p.PutUint8(0)
}

func (p *Packer) PutString(v string) {
	p.PutUint32(uint32(len(v)))
	p.buf = append(p.buf, v...)
}

// PutBytes writes a length-prefixed byte string.
func (p *Packer) PutBytes(v []byte) {
	p.PutUint32(uint32(len(v)))
	p.buf = append(p.buf, v...)
}

// PutType writes a type descriptor.
func (p *Packer) PutType(t TypeInfo) {
	p.PutUint8(uint8(t.Kind))
	if t.Kind == KindTuple {
		p.PutUint8(uint8(len(t.Elems)))
	}
	for _, e := range t.Elems {
		p.PutType(e)
	}
}

// Put encodes v according to its static Go type.
func (p *Packer) Put(v any) error {
	if v == nil {
		return ErrNilValue
	}
	rv := reflect.ValueOf(v)
	c, err := codecOf(rv.Type())
	if err != nil {
		return err
	}
	c.enc(p, rv)
	return nil
}
