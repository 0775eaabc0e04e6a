package pack

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// GoType maps a descriptor onto the Go type that encodes as it.
// Tuples become structs with fields F0..Fn. list<u8> has no Go form because
// []uint8 always encodes as bytes.
func GoType(t TypeInfo) (reflect.Type, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return goType(t)
}

func goType(t TypeInfo) (reflect.Type, error) {
	switch t.Kind {
	case KindUnit:
		return unitType, nil
	case KindBool:
		return reflect.TypeFor[bool](), nil
	case KindInt8:
		return reflect.TypeFor[int8](), nil
	case KindInt16:
		return reflect.TypeFor[int16](), nil
	case KindInt32:
		return reflect.TypeFor[int32](), nil
	case KindInt64:
		return reflect.TypeFor[int64](), nil
	case KindUint8:
		return reflect.TypeFor[uint8](), nil
	case KindUint16:
		return reflect.TypeFor[uint16](), nil
	case KindUint32:
		return reflect.TypeFor[uint32](), nil
	case KindUint64:
		return reflect.TypeFor[uint64](), nil
	case KindFloat32:
		return reflect.TypeFor[float32](), nil
	case KindFloat64:
		return reflect.TypeFor[float64](), nil
	case KindString:
		return reflect.TypeFor[string](), nil
	case KindBytes:
		return reflect.TypeFor[[]byte](), nil
	case KindList:
		if t.Elems[0].Kind == KindUint8 {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
		}
		elem, err := goType(t.Elems[0])
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	case KindOptional:
		elem, err := goType(t.Elems[0])
		if err != nil {
			return nil, err
		}
		return reflect.PointerTo(elem), nil
	case KindTuple:
		fields := make([]reflect.StructField, len(t.Elems))
		for i, e := range t.Elems {
			ft, err := goType(e)
			if err != nil {
				return nil, err
			}
			fields[i] = reflect.StructField{Name: "F" + strconv.Itoa(i), Type: ft}
		}
		return reflect.StructOf(fields), nil
	case KindMap:
		key, err := goType(t.Elems[0])
		if err != nil {
			return nil, err
		}
		if !key.Comparable() {
			return nil, fmt.Errorf("%w: map key %s", ErrUnsupportedType, t.Elems[0])
		}
		val, err := goType(t.Elems[1])
		if err != nil {
			return nil, err
		}
		return reflect.MapOf(key, val), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, uint8(t.Kind))
	}
}

// DecodeValue decodes one value described by t, returning it as the Go
// type GoType(t) would produce.
func DecodeValue(t TypeInfo, u *Unpacker) (any, error) {
	rt, err := GoType(t)
	if err != nil {
		return nil, err
	}
	c, err := codecOf(rt)
	if err != nil {
		return nil, err
	}
	v := reflect.New(rt).Elem()
	if err := c.dec(u, v); err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// ParseValue converts text into a value that encodes as t. Scalars take their
// plain text form; composite types take JSON where tuples are arrays, options
// are null or the value, and map keys are parsed as the key type.
func ParseValue(t TypeInfo, s string) (any, error) {
	rt, err := GoType(t)
	if err != nil {
		return nil, err
	}
	if t.Kind.Scalar() {
		v, err := parseScalar(t, rt, s)
		if err != nil {
			return nil, err
		}
		return v.Interface(), nil
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", t, err)
	}
	v, err := fromJSON(t, rt, raw)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func parseScalar(t TypeInfo, rt reflect.Type, s string) (reflect.Value, error) {
	v := reflect.New(rt).Elem()
	var err error
	switch t.Kind {
	case KindUnit:
		if s != "" && s != "()" {
			err = fmt.Errorf("unit takes no value, got %q", s)
		}
	case KindBool:
		var b bool
		b, err = strconv.ParseBool(s)
		v.SetBool(b)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		var x int64
		x, err = strconv.ParseInt(s, 0, rt.Bits())
		v.SetInt(x)
	case KindUint8, KindUint16, KindUint32, KindUint64:
		var x uint64
		x, err = strconv.ParseUint(s, 0, rt.Bits())
		v.SetUint(x)
	case KindFloat32, KindFloat64:
		var f float64
		f, err = strconv.ParseFloat(s, rt.Bits())
		v.SetFloat(f)
	case KindString:
		v.SetString(s)
	case KindBytes:
		v.SetBytes([]byte(s))
	}
	if err != nil {
		return reflect.Value{}, fmt.Errorf("parse %s: %w", t, err)
	}
	return v, nil
}

func fromJSON(t TypeInfo, rt reflect.Type, raw any) (reflect.Value, error) {
	mismatch := func() (reflect.Value, error) {
		return reflect.Value{}, fmt.Errorf("parse %s: unexpected json value %v", t, raw)
	}
	switch t.Kind {
	case KindUnit:
		if raw != nil {
			if arr, ok := raw.([]any); !ok || len(arr) != 0 {
				return mismatch()
			}
		}
		return reflect.New(rt).Elem(), nil
	case KindBool:
		if _, ok := raw.(bool); !ok {
			return mismatch()
		}
		return reflect.ValueOf(raw).Convert(rt), nil
	case KindString, KindBytes:
		s, ok := raw.(string)
		if !ok {
			return mismatch()
		}
		return parseScalar(t, rt, s)
	case KindList:
		arr, ok := raw.([]any)
		if !ok {
			return mismatch()
		}
		out := reflect.MakeSlice(rt, len(arr), len(arr))
		for i, item := range arr {
			ev, err := fromJSON(t.Elems[0], rt.Elem(), item)
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	case KindOptional:
		if raw == nil {
			return reflect.Zero(rt), nil
		}
		ev, err := fromJSON(t.Elems[0], rt.Elem(), raw)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(rt.Elem())
		ptr.Elem().Set(ev)
		return ptr, nil
	case KindTuple:
		arr, ok := raw.([]any)
		if !ok || len(arr) != len(t.Elems) {
			return mismatch()
		}
		out := reflect.New(rt).Elem()
		for i, item := range arr {
			fv, err := fromJSON(t.Elems[i], rt.Field(i).Type, item)
			if err != nil {
				return reflect.Value{}, err
			}
			out.Field(i).Set(fv)
		}
		return out, nil
	case KindMap:
		obj, ok := raw.(map[string]any)
		if !ok {
			return mismatch()
		}
		out := reflect.MakeMapWithSize(rt, len(obj))
		for k, item := range obj {
			kv, err := parseKey(t.Elems[0], rt.Key(), k)
			if err != nil {
				return reflect.Value{}, err
			}
			vv, err := fromJSON(t.Elems[1], rt.Elem(), item)
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(kv, vv)
		}
		return out, nil
	default:
		num, ok := raw.(json.Number)
		if !ok {
			return mismatch()
		}
		return parseScalar(t, rt, num.String())
	}
}

func parseKey(t TypeInfo, rt reflect.Type, s string) (reflect.Value, error) {
	if t.Kind.Scalar() {
		return parseScalar(t, rt, s)
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return reflect.Value{}, fmt.Errorf("parse %s key: %w", t, err)
	}
	return fromJSON(t, rt, raw)
}
