package configurer

import (
	"errors"
	"fmt"
	"reflect"
)

// Builder registers properties with explicit setter functions, without reflection over fields.
type Builder struct {
	typ   reflect.Type
	props []*Property
	errs  []error
}

// NewBuilder starts a schema for the given struct type. Pointer types are dereferenced.
func NewBuilder(typ reflect.Type) *Builder {
	b := &Builder{typ: typ}
	if typ != nil && typ.Kind() == reflect.Pointer {
		b.typ = typ.Elem()
	}
	if b.typ == nil || b.typ.Kind() != reflect.Struct {
		b.errs = append(b.errs, fmt.Errorf("%w: %v is not a struct type", ErrInvalidTarget, typ))
	}
	return b
}

// Property declares a property of the given type. set receives the target pointer
// and a value already coerced to declared.
func (b *Builder) Property(name string, declared reflect.Type, set func(target, value any)) *Builder {
	return b.add(name, declared, set, nil)
}

func (b *Builder) add(name string, declared reflect.Type, set func(target, value any), get func(target any) any) *Builder {
	switch {
	case name == "":
		b.errs = append(b.errs, errors.New("property name must not be empty"))
		return b
	case declared == nil:
		b.errs = append(b.errs, fmt.Errorf("property %q: declared type must not be nil", name))
		return b
	case set == nil:
		b.errs = append(b.errs, fmt.Errorf("property %q: setter must not be nil", name))
		return b
	}

	b.props = append(b.props, &Property{
		Name:        name,
		Type:        declared,
		Kind:        KindOf(declared),
		enumerators: enumeratorsOf(declared),
		set: func(target any, value reflect.Value) {
			set(target, value.Interface())
		},
		get: get,
	})
	return b
}

// Build validates the declared properties and returns the schema.
func (b *Builder) Build() (*Schema, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return newSchema(b.typ, b.props)
}

// Define declares a write-only property with a typed setter.
func Define[T, V any](b *Builder, name string, set func(*T, V)) *Builder {
	if set == nil {
		return b.add(name, reflect.TypeFor[V](), nil, nil)
	}
	return b.add(name, reflect.TypeFor[V](), func(target, value any) {
		v, _ := value.(V)
		set(target.(*T), v)
	}, nil)
}

// Accessor declares a property with both a typed getter and setter.
func Accessor[T, V any](b *Builder, name string, get func(*T) V, set func(*T, V)) *Builder {
	if set == nil || get == nil {
		return b.add(name, reflect.TypeFor[V](), nil, nil)
	}
	return b.add(name, reflect.TypeFor[V](), func(target, value any) {
		v, _ := value.(V)
		set(target.(*T), v)
	}, func(target any) any {
		return get(target.(*T))
	})
}
