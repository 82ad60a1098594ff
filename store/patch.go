package store

import (
	"fmt"
	"reflect"
	"strings"
)

// Patch computes the next state from a draft. The draft is a deep copy of
// the current state owned by the patch, so mutating it is safe. A nil Patch
// leaves the state untouched. Patches run while the store holds its write
// lock and must not write to the same store.
type Patch[T any] func(draft T) T

// Replace discards the current state in favour of v.
func Replace[T any](v T) Patch[T] {
	return func(T) T { return v }
}

// Mutate applies fn to the draft in place.
func Mutate[T any](fn func(draft *T)) Patch[T] {
	return func(draft T) T {
		fn(&draft)
		return draft
	}
}

// Merge shallow-merges fields into struct or map state. Struct fields are
// matched by Go name or by json tag name. A nil value resets the field to its
// zero value. Merging into any other kind of state, an unknown field, or an
// incompatible value panics; use Replace for scalar state.
func Merge[T any](fields map[string]any) Patch[T] {
	return func(draft T) T {
		target := reflect.ValueOf(&draft).Elem()
		for target.Kind() == reflect.Pointer || target.Kind() == reflect.Interface {
			if target.IsNil() {
				panic(fmt.Sprintf("store: cannot merge into nil %s", target.Type()))
			}
			target = target.Elem()
		}

		switch target.Kind() {
		case reflect.Struct:
			for key, value := range fields {
				field, ok := structField(target, key)
				if !ok {
					panic(fmt.Sprintf("store: %s has no field %q", target.Type(), key))
				}
				field.Set(mergeValue(field.Type(), key, value))
			}
		case reflect.Map:
			if target.Type().Key().Kind() != reflect.String {
				panic(fmt.Sprintf("store: cannot merge into %s", target.Type()))
			}
			if target.IsNil() {
				target.Set(reflect.MakeMapWithSize(target.Type(), len(fields)))
			}
			for key, value := range fields {
				k := reflect.ValueOf(key).Convert(target.Type().Key())
				target.SetMapIndex(k, mergeValue(target.Type().Elem(), key, value))
			}
		default:
			panic(fmt.Sprintf("store: cannot merge into %s state, use Replace", target.Type()))
		}
		return draft
	}
}

func structField(v reflect.Value, key string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Name == key {
			return v.Field(i), true
		}
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && tag == key {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func mergeValue(t reflect.Type, key string, value any) reflect.Value {
	if value == nil {
		return reflect.Zero(t)
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(t):
		return v
	case v.Kind() == t.Kind() && v.Type().ConvertibleTo(t):
		return v.Convert(t)
	case isNumber(v.Kind()) && isNumber(t.Kind()):
		return v.Convert(t)
	}
	panic(fmt.Sprintf("store: cannot merge %T into %q (%s)", value, key, t))
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
