package store

import (
	"math"
	"reflect"

	"google.golang.org/protobuf/proto"
)

// Cloner is implemented by state types that know how to deep-copy themselves.
type Cloner[T any] interface {
	DeepCopy() T
}

var (
	protoMessage = reflect.TypeFor[proto.Message]()
	errorType    = reflect.TypeFor[error]()
)

// Clone returns a deep copy of v. Types implementing Cloner copy themselves;
// protobuf messages are copied with proto.Clone. Otherwise pointers, slices,
// maps, arrays, interfaces and exported struct fields are copied recursively.
// Error values, unexported struct fields, channels and functions are copied
// by reference so that errors.Is keeps matching sentinels.
func Clone[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.DeepCopy()
	}
	src := reflect.ValueOf(&v).Elem()
	dst := reflect.New(src.Type()).Elem()
	copyValue(dst, src, make(map[uintptr]reflect.Value))
	out, _ := dst.Interface().(T)
	return out
}

func copyValue(dst, src reflect.Value, seen map[uintptr]reflect.Value) {
	if src.Kind() == reflect.Pointer && src.Type().Implements(protoMessage) {
		if !src.IsNil() && src.CanInterface() {
			dst.Set(reflect.ValueOf(proto.Clone(src.Interface().(proto.Message))))
		}
		return
	}
	if src.Kind() != reflect.Interface && src.Type().Implements(errorType) {
		dst.Set(src)
		return
	}

	switch src.Kind() {
	case reflect.Pointer:
		if src.IsNil() {
			return
		}
		if p, ok := seen[src.Pointer()]; ok && p.Type() == src.Type() {
			dst.Set(p)
			return
		}
		p := reflect.New(src.Type().Elem())
		seen[src.Pointer()] = p
		copyValue(p.Elem(), src.Elem(), seen)
		dst.Set(p)

	case reflect.Interface:
		if src.IsNil() {
			return
		}
		elem := src.Elem()
		c := reflect.New(elem.Type()).Elem()
		copyValue(c, elem, seen)
		dst.Set(c)

	case reflect.Struct:
		dst.Set(src)
		t := src.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() {
				copyValue(dst.Field(i), src.Field(i), seen)
			}
		}

	case reflect.Slice:
		if src.IsNil() {
			return
		}
		s := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			copyValue(s.Index(i), src.Index(i), seen)
		}
		dst.Set(s)

	case reflect.Array:
		for i := 0; i < src.Len(); i++ {
			copyValue(dst.Index(i), src.Index(i), seen)
		}

	case reflect.Map:
		if src.IsNil() {
			return
		}
		m := reflect.MakeMapWithSize(src.Type(), src.Len())
		iter := src.MapRange()
		for iter.Next() {
			v := reflect.New(src.Type().Elem()).Elem()
			copyValue(v, iter.Value(), seen)
			m.SetMapIndex(iter.Key(), v)
		}
		dst.Set(m)

	default:
		dst.Set(src)
	}
}

// Equal reports whether a and b are deeply equal.
func Equal[T any](a, b T) bool {
	return reflect.DeepEqual(a, b)
}

// IsEmpty reports whether v counts as "not yet available": nil, false, a zero
// number or NaN, an empty string, slice or array, or a nil pointer, map,
// interface, channel or function. Structs and non-nil maps are never empty.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == 0 || math.IsNaN(f)
	case reflect.String, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
