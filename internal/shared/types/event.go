package types

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNotSerializable is returned for events holding funcs, channels or cycles
var ErrNotSerializable = errors.New("event is not serializable")

// maxDepth bounds nesting; deeper values are treated as cyclic
const maxDepth = 64

// Event is an arbitrary mapping of named properties to values
type Event map[string]interface{}

// Filter maps property names to exact-match values. An empty filter matches every event.
type Filter map[string]interface{}

// Validate checks that the event can be deep-cloned safely
func (e Event) Validate() error {
	for key, value := range e {
		if err := validateValue(reflect.ValueOf(value), 0); err != nil {
			return fmt.Errorf("%w: property %q: %v", ErrNotSerializable, key, err)
		}
	}
	return nil
}

// Clone returns a structural deep copy of the event
func (e Event) Clone() Event {
	if e == nil {
		return nil
	}
	out := make(Event, len(e))
	for key, value := range e {
		out[key] = cloneInterface(value)
	}
	return out
}

// Clone returns a shallow copy of the filter
func (f Filter) Clone() Filter {
	if f == nil {
		return Filter{}
	}
	out := make(Filter, len(f))
	for key, value := range f {
		out[key] = value
	}
	return out
}

func validateValue(v reflect.Value, depth int) error {
	if !v.IsValid() {
		return nil
	}
	if depth > maxDepth {
		return errors.New("nesting too deep or cyclic")
	}

	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return validateValue(v.Elem(), depth+1)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("map key must be string, got %s", v.Type().Key())
		}
		iter := v.MapRange()
		for iter.Next() {
			if err := validateValue(iter.Value(), depth+1); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := validateValue(v.Index(i), depth+1); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			if err := validateValue(v.Field(i), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func cloneInterface(value interface{}) interface{} {
	switch typed := value.(type) {
	case nil:
		return nil
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return typed
	case Event:
		return typed.Clone()
	case map[string]interface{}:
		return map[string]interface{}(Event(typed).Clone())
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, item := range typed {
			out[i] = cloneInterface(item)
		}
		return out
	}

	v := reflect.ValueOf(value)
	return cloneValue(v).Interface()
}

func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(cloneValue(v.Elem()))
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(cloneValue(v.Elem()))
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if out.Field(i).CanSet() {
				out.Field(i).Set(cloneValue(v.Field(i)))
			}
		}
		return out
	default:
		return v
	}
}
