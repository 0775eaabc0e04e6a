package pack

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Unit is the canonical "no value" type.
type Unit struct{}

// MaxElements bounds list and map counts accepted by the decoder.
const MaxElements = 1 << 24

var unitType = reflect.TypeFor[Unit]()

type codec struct {
	info TypeInfo
	enc  func(p *Packer, v reflect.Value)
	dec  func(u *Unpacker, v reflect.Value) error
}

var codecs sync.Map // reflect.Type -> *codec

// TypeOf resolves the descriptor for a Go type, failing for types with no
// wire representation.
func TypeOf(t reflect.Type) (TypeInfo, error) {
	c, err := codecOf(t)
	if err != nil {
		return TypeInfo{}, err
	}
	return c.info, nil
}

func codecOf(t reflect.Type) (*codec, error) {
	if t == nil {
		return nil, ErrNilValue
	}
	if c, ok := codecs.Load(t); ok {
		return c.(*codec), nil
	}
	c, err := buildCodec(t, make(map[reflect.Type]bool))
	if err != nil {
		return nil, err
	}
	actual, _ := codecs.LoadOrStore(t, c)
	return actual.(*codec), nil
}

func buildCodec(t reflect.Type, visiting map[reflect.Type]bool) (*codec, error) {
	if t == unitType {
		return &codec{
			info: TypeInfo{Kind: KindUnit},
			enc:  func(*Packer, reflect.Value) {},
			dec:  func(*Unpacker, reflect.Value) error { return nil },
		}, nil
	}
	if c := scalarCodec(t); c != nil {
		return c, nil
	}
	if visiting[t] {
		return nil, fmt.Errorf("%w: recursive type %s", ErrUnsupportedType, t)
	}
	visiting[t] = true
	defer delete(visiting, t)

	switch t.Kind() {
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return bytesCodec(), nil
		}
		return listCodec(t, visiting)
	case reflect.Pointer:
		return optionalCodec(t, visiting)
	case reflect.Struct:
		return tupleCodec(t, visiting)
	case reflect.Map:
		return mapCodec(t, visiting)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

func scalarCodec(t reflect.Type) *codec {
	switch t.Kind() {
	case reflect.Bool:
		return &codec{
			info: TypeInfo{Kind: KindBool},
			enc:  func(p *Packer, v reflect.Value) { p.PutBool(v.Bool()) },
			dec: func(u *Unpacker, v reflect.Value) error {
				b, err := u.Bool()
				if err != nil {
					return err
				}
				v.SetBool(b)
				return nil
			},
		}
	case reflect.Int8:
		return intCodec(KindInt8, func(p *Packer, x int64) { p.PutInt8(int8(x)) }, func(u *Unpacker) (int64, error) {
			x, err := u.Int8()
			return int64(x), err
		})
	case reflect.Int16:
		return intCodec(KindInt16, func(p *Packer, x int64) { p.PutInt16(int16(x)) }, func(u *Unpacker) (int64, error) {
			x, err := u.Int16()
			return int64(x), err
		})
	case reflect.Int32:
		return intCodec(KindInt32, func(p *Packer, x int64) { p.PutInt32(int32(x)) }, func(u *Unpacker) (int64, error) {
			x, err := u.Int32()
			return int64(x), err
		})
	case reflect.Int64, reflect.Int:
		return intCodec(KindInt64, (*Packer).PutInt64, (*Unpacker).Int64)
	case reflect.Uint8:
		return uintCodec(KindUint8, func(p *Packer, x uint64) { p.PutUint8(uint8(x)) }, func(u *Unpacker) (uint64, error) {
			x, err := u.Uint8()
			return uint64(x), err
		})
	case reflect.Uint16:
		return uintCodec(KindUint16, func(p *Packer, x uint64) { p.PutUint16(uint16(x)) }, func(u *Unpacker) (uint64, error) {
			x, err := u.Uint16()
			return uint64(x), err
		})
	case reflect.Uint32:
		return uintCodec(KindUint32, func(p *Packer, x uint64) { p.PutUint32(uint32(x)) }, func(u *Unpacker) (uint64, error) {
			x, err := u.Uint32()
			return uint64(x), err
		})
	case reflect.Uint64, reflect.Uint:
		return uintCodec(KindUint64, (*Packer).PutUint64, (*Unpacker).Uint64)
	case reflect.Float32:
		return &codec{
			info: TypeInfo{Kind: KindFloat32},
			enc:  func(p *Packer, v reflect.Value) { p.PutFloat32(float32(v.Float())) },
			dec: func(u *Unpacker, v reflect.Value) error {
				f, err := u.Float32()
				if err != nil {
					return err
				}
				v.SetFloat(float64(f))
				return nil
			},
		}
	case reflect.Float64:
		return &codec{
			info: TypeInfo{Kind: KindFloat64},
			enc:  func(p *Packer, v reflect.Value) { p.PutFloat64(v.Float()) },
			dec: func(u *Unpacker, v reflect.Value) error {
				f, err := u.Float64()
				if err != nil {
					return err
				}
				v.SetFloat(f)
				return nil
			},
		}
	case reflect.String:
		return &codec{
			info: TypeInfo{Kind: KindString},
			enc:  func(p *Packer, v reflect.Value) { p.PutString(v.String()) },
			dec: func(u *Unpacker, v reflect.Value) error {
				s, err := u.String()
				if err != nil {
					return err
				}
				v.SetString(s)
				return nil
			},
		}
	}
	return nil
}

func intCodec(k Kind, put func(*Packer, int64), get func(*Unpacker) (int64, error)) *codec {
	return &codec{
		info: TypeInfo{Kind: k},
		enc:  func(p *Packer, v reflect.Value) { put(p, v.Int()) },
		dec: func(u *Unpacker, v reflect.Value) error {
			x, err := get(u)
			if err != nil {
				return err
			}
			if v.OverflowInt(x) {
				return fmt.Errorf("%w: %d overflows %s", ErrTooLarge, x, v.Type())
			}
			v.SetInt(x)
			return nil
		},
	}
}

func uintCodec(k Kind, put func(*Packer, uint64), get func(*Unpacker) (uint64, error)) *codec {
	return &codec{
		info: TypeInfo{Kind: k},
		enc:  func(p *Packer, v reflect.Value) { put(p, v.Uint()) },
		dec: func(u *Unpacker, v reflect.Value) error {
			x, err := get(u)
			if err != nil {
				return err
			}
			if v.OverflowUint(x) {
				return fmt.Errorf("%w: %d overflows %s", ErrTooLarge, x, v.Type())
			}
			v.SetUint(x)
			return nil
		},
	}
}

func bytesCodec() *codec {
	return &codec{
		info: TypeInfo{Kind: KindBytes},
		enc:  func(p *Packer, v reflect.Value) { p.PutBytes(v.Bytes()) },
		dec: func(u *Unpacker, v reflect.Value) error {
			b, err := u.Bytes()
			if err != nil {
				return err
			}
			v.SetBytes(b)
			return nil
		},
	}
}

func listCodec(t reflect.Type, visiting map[reflect.Type]bool) (*codec, error) {
	elem, err := buildCodec(t.Elem(), visiting)
	if err != nil {
		return nil, err
	}
	return &codec{
		info: ListOf(elem.info),
		enc: func(p *Packer, v reflect.Value) {
			n := v.Len()
			p.PutUint32(uint32(n))
			for i := 0; i < n; i++ {
				elem.enc(p, v.Index(i))
			}
		},
		dec: func(u *Unpacker, v reflect.Value) error {
			n, err := readCount(u)
			if err != nil {
				return err
			}
			s := reflect.MakeSlice(t, 0, min(n, u.Len()))
			for i := 0; i < n; i++ {
				s = reflect.Append(s, reflect.Zero(t.Elem()))
				if err := elem.dec(u, s.Index(i)); err != nil {
					return err
				}
			}
			v.Set(s)
			return nil
		},
	}, nil
}

func optionalCodec(t reflect.Type, visiting map[reflect.Type]bool) (*codec, error) {
	elem, err := buildCodec(t.Elem(), visiting)
	if err != nil {
		return nil, err
	}
	return &codec{
		info: OptionalOf(elem.info),
		enc: func(p *Packer, v reflect.Value) {
			if v.IsNil() {
				p.PutUint8(0)
				return
			}
			p.PutUint8(1)
			elem.enc(p, v.Elem())
		},
		dec: func(u *Unpacker, v reflect.Value) error {
			flag, err := u.Uint8()
			if err != nil {
				return err
			}
			switch flag {
			case 0:
				v.Set(reflect.Zero(t))
				return nil
			case 1:
				ptr := reflect.New(t.Elem())
				if err := elem.dec(u, ptr.Elem()); err != nil {
					return err
				}
				v.Set(ptr)
				return nil
			default:
				return fmt.Errorf("%w: %d", ErrInvalidFlag, flag)
			}
		},
	}, nil
}

func tupleCodec(t reflect.Type, visiting map[reflect.Type]bool) (*codec, error) {
	if t.NumField() > 255 {
		return nil, fmt.Errorf("%w: %s has %d fields", ErrUnsupportedType, t, t.NumField())
	}
	fields := make([]*codec, t.NumField())
	infos := make([]TypeInfo, t.NumField())
	for i := range fields {
		f := t.Field(i)
		if !f.IsExported() {
			return nil, fmt.Errorf("%w: %s has unexported field %s", ErrUnsupportedType, t, f.Name)
		}
		c, err := buildCodec(f.Type, visiting)
		if err != nil {
			return nil, err
		}
		fields[i] = c
		infos[i] = c.info
	}
	return &codec{
		info: TupleOf(infos...),
		enc: func(p *Packer, v reflect.Value) {
			for i, c := range fields {
				c.enc(p, v.Field(i))
			}
		},
		dec: func(u *Unpacker, v reflect.Value) error {
			for i, c := range fields {
				if err := c.dec(u, v.Field(i)); err != nil {
					return err
				}
			}
			return nil
		},
	}, nil
}

func mapCodec(t reflect.Type, visiting map[reflect.Type]bool) (*codec, error) {
	key, err := buildCodec(t.Key(), visiting)
	if err != nil {
		return nil, err
	}
	val, err := buildCodec(t.Elem(), visiting)
	if err != nil {
		return nil, err
	}
	return &codec{
		info: MapOf(key.info, val.info),
		enc: func(p *Packer, v reflect.Value) {
			type pair struct {
				key []byte
				val reflect.Value
			}
			pairs := make([]pair, 0, v.Len())
			iter := v.MapRange()
			for iter.Next() {
				var kp Packer
				key.enc(&kp, iter.Key())
				pairs = append(pairs, pair{key: kp.Bytes(), val: iter.Value()})
			}
			sort.Slice(pairs, func(i, j int) bool {
				return bytes.Compare(pairs[i].key, pairs[j].key) < 0
			})
			p.PutUint32(uint32(len(pairs)))
			for _, kv := range pairs {
				p.Append(kv.key)
				val.enc(p, kv.val)
			}
		},
		dec: func(u *Unpacker, v reflect.Value) error {
			n, err := readCount(u)
			if err != nil {
				return err
			}
			m := reflect.MakeMapWithSize(t, min(n, u.Len()))
			for i := 0; i < n; i++ {
				k := reflect.New(t.Key()).Elem()
				if err := key.dec(u, k); err != nil {
					return err
				}
				e := reflect.New(t.Elem()).Elem()
				if err := val.dec(u, e); err != nil {
					return err
				}
				m.SetMapIndex(k, e)
			}
			v.Set(m)
			return nil
		},
	}, nil
}

func readCount(u *Unpacker) (int, error) {
	n, err := u.Uint32()
	if err != nil {
		return 0, err
	}
	if n > MaxElements {
		return 0, fmt.Errorf("%w: %d elements", ErrTooLarge, n)
	}
	return int(n), nil
}
