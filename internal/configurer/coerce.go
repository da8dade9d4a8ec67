package configurer

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

// Lookup resolves named object references written as "#name" or "#bean:name".
type Lookup interface {
	Lookup(name string) (any, bool)
}

var (
	errNilValue          = errors.New("nil value for non-nillable type")
	errNoConverter       = errors.New("no converter registered")
	errOverflow          = errors.New("value out of range")
	errFraction          = errors.New("value has a fractional part")
	errPrecision         = errors.New("value cannot be represented exactly")
	errNotBool           = errors.New(`expected "true" or "false"`)
	errUnknownReference  = errors.New("unknown reference")
	errUnknownEnumerator = errors.New("unknown enumerator")
)

type coercer struct {
	converters *Converters
	lookup     Lookup
}

func (c coercer) coerce(p *Property, raw any) (reflect.Value, error) {
	return c.coerceTo(p.Type, p.Kind, p.enumerators, raw)
}

func (c coercer) coerceTo(typ reflect.Type, kind Kind, names []string, raw any) (reflect.Value, error) {
	if raw == nil {
		if nillable(typ) {
			return reflect.Zero(typ), nil
		}
		return reflect.Value{}, errNilValue
	}

	rv := reflect.ValueOf(raw)
	if rv.Type() == typ {
		return rv, nil
	}
	if kind == KindObject && rv.Type().AssignableTo(typ) {
		return assign(typ, rv), nil
	}
	if fn, ok := c.converters.Lookup(typ); ok {
		return convertWith(fn, typ, raw)
	}

	switch kind {
	case KindBool:
		return toBool(typ, rv)
	case KindInt:
		return toInt(typ, rv)
	case KindUint:
		return toUint(typ, rv)
	case KindFloat:
		return toFloat(typ, rv)
	case KindString:
		return toString(typ, rv)
	case KindDuration:
		return toDuration(rv)
	case KindEnum:
		return toEnum(typ, names, rv)
	case KindSlice:
		return c.toSlice(typ, rv)
	case KindMap:
		return c.toMap(typ, rv)
	case KindObject:
		return c.toObject(typ, rv)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported declared kind %s", kind)
	}
}

func assign(typ reflect.Type, rv reflect.Value) reflect.Value {
	out := reflect.New(typ).Elem()
	out.Set(rv)
	return out
}

func unsupported(rv reflect.Value) error {
	return fmt.Errorf("unsupported source type %s", rv.Type())
}

func convertWith(fn ConverterFunc, typ reflect.Type, raw any) (reflect.Value, error) {
	out, err := fn(raw)
	if err != nil {
		return reflect.Value{}, err
	}
	if out == nil {
		if nillable(typ) {
			return reflect.Zero(typ), nil
		}
		return reflect.Value{}, errNilValue
	}

	ov := reflect.ValueOf(out)
	if ov.Type() == typ {
		return ov, nil
	}
	if ov.Type().AssignableTo(typ) {
		return assign(typ, ov), nil
	}
	return reflect.Value{}, fmt.Errorf("converter returned %s, not assignable to %s", ov.Type(), typ)
}

func toBool(typ reflect.Type, rv reflect.Value) (reflect.Value, error) {
	switch rv.Kind() {
	case reflect.String:
		var b bool
		switch s := strings.TrimSpace(rv.String()); {
		case strings.EqualFold(s, "true"):
			b = true
		case strings.EqualFold(s, "false"):
		default:
			return reflect.Value{}, errNotBool
		}
		return reflect.ValueOf(b).Convert(typ), nil
	case reflect.Bool:
		return rv.Convert(typ), nil
	default:
		return reflect.Value{}, unsupported(rv)
	}
}

func toInt(typ reflect.Type, rv reflect.Value) (reflect.Value, error) {
	var n int64
	switch rv.Kind() {
	case reflect.String:
		parsed, err := strconv.ParseInt(strings.TrimSpace(rv.String()), 10, typ.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		n = parsed
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return reflect.Value{}, errOverflow
		}
		n = int64(u)
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return reflect.Value{}, errFraction
		}
		if f >= 1<<63 || f < -(1<<63) {
			return reflect.Value{}, errOverflow
		}
		n = int64(f)
	default:
		return reflect.Value{}, unsupported(rv)
	}

	out := reflect.New(typ).Elem()
	if out.OverflowInt(n) {
		return reflect.Value{}, errOverflow
	}
	out.SetInt(n)
	return out, nil
}

func toUint(typ reflect.Type, rv reflect.Value) (reflect.Value, error) {
	var n uint64
	switch rv.Kind() {
	case reflect.String:
		parsed, err := strconv.ParseUint(strings.TrimSpace(rv.String()), 10, typ.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		n = parsed
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < 0 {
			return reflect.Value{}, errOverflow
		}
		n = uint64(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n = rv.Uint()
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return reflect.Value{}, errFraction
		}
		if f < 0 || f >= 1<<64 {
			return reflect.Value{}, errOverflow
		}
		n = uint64(f)
	default:
		return reflect.Value{}, unsupported(rv)
	}

	out := reflect.New(typ).Elem()
	if out.OverflowUint(n) {
		return reflect.Value{}, errOverflow
	}
	out.SetUint(n)
	return out, nil
}

func toFloat(typ reflect.Type, rv reflect.Value) (reflect.Value, error) {
	out := reflect.New(typ).Elem()

	var f float64
	switch rv.Kind() {
	case reflect.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), typ.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetFloat(parsed)
		return out, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		f = float64(n)
		if f >= 1<<63 || int64(f) != n {
			return reflect.Value{}, errPrecision
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		f = float64(n)
		if f >= 1<<64 || uint64(f) != n {
			return reflect.Value{}, errPrecision
		}
	case reflect.Float32, reflect.Float64:
		f = rv.Float()
	default:
		return reflect.Value{}, unsupported(rv)
	}

	if out.OverflowFloat(f) {
		return reflect.Value{}, errOverflow
	}
	// Numbers from other kinds must survive the conversion unchanged.
	if typ.Bits() == 32 && !math.IsNaN(f) && float64(float32(f)) != f {
		return reflect.Value{}, errPrecision
	}
	out.SetFloat(f)
	return out, nil
}

func toString(typ reflect.Type, rv reflect.Value) (reflect.Value, error) {
	var s string
	switch rv.Kind() {
	case reflect.String:
		s = rv.String()
	case reflect.Bool:
		s = strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s = strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		s = strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		s = strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	default:
		stringer, ok := rv.Interface().(fmt.Stringer)
		if !ok {
			return reflect.Value{}, unsupported(rv)
		}
		s = stringer.String()
	}
	return reflect.ValueOf(s).Convert(typ), nil
}

// toDuration accepts extended duration strings ("1d2h", "500ms") and integral
// numbers or bare integer strings, which are read as milliseconds.
func toDuration(rv reflect.Value) (reflect.Value, error) {
	if rv.Kind() == reflect.String {
		s := strings.TrimSpace(rv.String())
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return toDuration(reflect.ValueOf(n))
		}
		d, err := str2duration.ParseDuration(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil
	}

	ms, err := toInt(reflect.TypeFor[int64](), rv)
	if err != nil {
		return reflect.Value{}, err
	}
	n := ms.Int()
	if n > math.MaxInt64/int64(time.Millisecond) || n < math.MinInt64/int64(time.Millisecond) {
		return reflect.Value{}, errOverflow
	}
	return reflect.ValueOf(time.Duration(n) * time.Millisecond), nil
}

func toEnum(typ reflect.Type, names []string, rv reflect.Value) (reflect.Value, error) {
	if rv.Kind() != reflect.String {
		return reflect.Value{}, unsupported(rv)
	}

	s := rv.String()
	for i, name := range names {
		if name != s {
			continue
		}
		out := reflect.New(typ).Elem()
		switch typ.Kind() {
		case reflect.String:
			out.SetString(name)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out.SetInt(int64(i))
		default:
			out.SetUint(uint64(i))
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("%w %q, expected one of: %s", errUnknownEnumerator, s, strings.Join(names, ", "))
}

func (c coercer) toSlice(typ reflect.Type, rv reflect.Value) (reflect.Value, error) {
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return reflect.Value{}, unsupported(rv)
	}
	if rv.Type().AssignableTo(typ) {
		return assign(typ, rv), nil
	}

	elem := typ.Elem()
	kind, names := KindOf(elem), enumeratorsOf(elem)
	out := reflect.MakeSlice(typ, rv.Len(), rv.Len())
	for i := 0; i < rv.Len(); i++ {
		ev, err := c.coerceTo(elem, kind, names, rv.Index(i).Interface())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(ev)
	}
	return out, nil
}

func (c coercer) toMap(typ reflect.Type, rv reflect.Value) (reflect.Value, error) {
	if rv.Kind() != reflect.Map {
		return reflect.Value{}, unsupported(rv)
	}
	if rv.Type().AssignableTo(typ) {
		return assign(typ, rv), nil
	}

	keyType, elemType := typ.Key(), typ.Elem()
	keyKind, keyNames := KindOf(keyType), enumeratorsOf(keyType)
	elemKind, elemNames := KindOf(elemType), enumeratorsOf(elemType)

	out := reflect.MakeMapWithSize(typ, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := c.coerceTo(keyType, keyKind, keyNames, iter.Key().Interface())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key().Interface(), err)
		}
		v, err := c.coerceTo(elemType, elemKind, elemNames, iter.Value().Interface())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("value for key %v: %w", iter.Key().Interface(), err)
		}
		out.SetMapIndex(k, v)
	}
	return out, nil
}

func (c coercer) toObject(typ reflect.Type, rv reflect.Value) (reflect.Value, error) {
	if rv.Kind() == reflect.String && strings.HasPrefix(rv.String(), "#") && c.lookup != nil {
		name := strings.TrimPrefix(strings.TrimPrefix(rv.String(), "#"), "bean:")
		obj, ok := c.lookup.Lookup(name)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w %q", errUnknownReference, name)
		}
		if obj == nil {
			if nillable(typ) {
				return reflect.Zero(typ), nil
			}
			return reflect.Value{}, errNilValue
		}
		ov := reflect.ValueOf(obj)
		if !ov.Type().AssignableTo(typ) {
			return reflect.Value{}, fmt.Errorf("reference %q is a %s, not assignable to %s", name, ov.Type(), typ)
		}
		return assign(typ, ov), nil
	}
	return reflect.Value{}, fmt.Errorf("%w for %s", errNoConverter, typ)
}
