package pack

import (
	"fmt"
	"strings"
)

// Kind is the one-byte tag at the head of every encoded type descriptor.
type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindList
	KindOptional
	KindTuple
	KindMap
)

const maxTypeDepth = 32

var kindNames = [...]string{
	KindUnit:     "unit",
	KindBool:     "bool",
	KindInt8:     "i8",
	KindInt16:    "i16",
	KindInt32:    "i32",
	KindInt64:    "i64",
	KindUint8:    "u8",
	KindUint16:   "u16",
	KindUint32:   "u32",
	KindUint64:   "u64",
	KindFloat32:  "f32",
	KindFloat64:  "f64",
	KindString:   "string",
	KindBytes:    "bytes",
	KindList:     "list",
	KindOptional: "optional",
	KindTuple:    "tuple",
	KindMap:      "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is a known tag.
func (k Kind) Valid() bool {
	return k <= KindMap
}

// Scalar reports whether k carries no element descriptors.
func (k Kind) Scalar() bool {
	return k.Valid() && k < KindList
}

// TypeInfo describes one encodable type.
//
// List and Optional hold one element, Map holds key then value, Tuple holds
// its members in order. Scalars hold none.
type TypeInfo struct {
	Kind  Kind
	Elems []TypeInfo
}

func ListOf(elem TypeInfo) TypeInfo {
	return TypeInfo{Kind: KindList, Elems: []TypeInfo{elem}}
}

func OptionalOf(elem TypeInfo) TypeInfo {
	return TypeInfo{Kind: KindOptional, Elems: []TypeInfo{elem}}
}

func MapOf(key, value TypeInfo) TypeInfo {
	return TypeInfo{Kind: KindMap, Elems: []TypeInfo{key, value}}
}

func TupleOf(elems ...TypeInfo) TypeInfo {
	return TypeInfo{Kind: KindTuple, Elems: elems}
}

// Equal reports structural equality.
func (t TypeInfo) Equal(o TypeInfo) bool {
	if t.Kind != o.Kind || len(t.Elems) != len(o.Elems) {
		return false
	}
	for i := range t.Elems {
		if !t.Elems[i].Equal(o.Elems[i]) {
			return false
		}
	}
	return true
}

// Validate checks element counts against the kind.
func (t TypeInfo) Validate() error {
	return t.validate(0)
}

func (t TypeInfo) validate(depth int) error {
	if depth > maxTypeDepth {
		return fmt.Errorf("%w: type nesting deeper than %d", ErrTooLarge, maxTypeDepth)
	}
	want := -1
	switch {
	case !t.Kind.Valid():
		return fmt.Errorf("%w: %d", ErrInvalidKind, uint8(t.Kind))
	case t.Kind.Scalar():
		want = 0
	case t.Kind == KindList, t.Kind == KindOptional:
		want = 1
	case t.Kind == KindMap:
		want = 2
	case t.Kind == KindTuple:
		if len(t.Elems) > 255 {
			return fmt.Errorf("%w: tuple of %d elements", ErrTooLarge, len(t.Elems))
		}
	}
	if want >= 0 && len(t.Elems) != want {
		return fmt.Errorf("%w: %s expects %d element types, got %d", ErrInvalidKind, t.Kind, want, len(t.Elems))
	}
	for _, e := range t.Elems {
		if err := e.validate(depth + 1); err != nil {
			return err
		}
	}
	return nil
}

func (t TypeInfo) String() string {
	if len(t.Elems) == 0 && t.Kind != KindTuple {
		return t.Kind.String()
	}
	var b strings.Builder
	b.WriteString(t.Kind.String())
	b.WriteByte('<')
	for i, e := range t.Elems {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(e.String())
	}
	b.WriteByte('>')
	return b.String()
}
