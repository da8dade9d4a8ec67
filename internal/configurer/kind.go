package configurer

import (
	"reflect"
	"time"
)

// Kind tags the declared type of a property and selects its coercion rule.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindDuration
	KindEnum
	KindSlice
	KindMap
	KindObject
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindBool:     "bool",
	KindInt:      "int",
	KindUint:     "uint",
	KindFloat:    "float",
	KindString:   "string",
	KindDuration: "duration",
	KindEnum:     "enum",
	KindSlice:    "slice",
	KindMap:      "map",
	KindObject:   "object",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindInvalid]
	}
	return kindNames[k]
}

// Enumerated is implemented by named string or integer types whose values form a closed set.
// Enumerators returns every value name; for integer types a name's position is its value.
type Enumerated interface {
	Enumerators() []string
}

var (
	durationType   = reflect.TypeFor[time.Duration]()
	enumeratedType = reflect.TypeFor[Enumerated]()
)

// KindOf classifies a declared type.
func KindOf(t reflect.Type) Kind {
	if t == nil {
		return KindInvalid
	}
	if t == durationType {
		return KindDuration
	}
	if isEnum(t) {
		return KindEnum
	}

	switch t.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return KindUint
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.String:
		return KindString
	case reflect.Slice:
		return KindSlice
	case reflect.Map:
		return KindMap
	default:
		return KindObject
	}
}

func isEnum(t reflect.Type) bool {
	if !t.Implements(enumeratedType) {
		return false
	}
	switch t.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func enumeratorsOf(t reflect.Type) []string {
	if !isEnum(t) {
		return nil
	}
	e, ok := reflect.Zero(t).Interface().(Enumerated)
	if !ok {
		return nil
	}
	return e.Enumerators()
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
