package configurer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrTypeCoercion is returned when a matched property's raw value cannot be converted to its declared type.
	ErrTypeCoercion = errors.New("type coercion failed")
	// ErrAmbiguousSchema is returned when two property names collide once case is ignored.
	ErrAmbiguousSchema = errors.New("ambiguous property schema")
	// ErrInvalidTarget is returned when the configuration target is nil or of the wrong type.
	ErrInvalidTarget = errors.New("invalid configuration target")
	// ErrSchemaExists is returned when a schema is registered for a type that already has one.
	ErrSchemaExists = errors.New("schema already registered")
)

// CoercionError describes a failed conversion of a raw value for a single property.
type CoercionError struct {
	Property string
	Type     reflect.Type
	Value    any
	Err      error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("property %q: cannot convert %v (%T) to %s: %v", e.Property, e.Value, e.Value, e.Type, e.Err)
}

// Unwrap exposes both ErrTypeCoercion and the underlying cause to errors.Is.
func (e *CoercionError) Unwrap() []error {
	return []error{ErrTypeCoercion, e.Err}
}

// AmbiguousSchemaError lists the declared names that collide for a type.
type AmbiguousSchemaError struct {
	Type  reflect.Type
	Names []string
}

func (e *AmbiguousSchemaError) Error() string {
	return fmt.Sprintf("ambiguous schema for %s: properties %s collide when case is ignored", e.Type, strings.Join(e.Names, ", "))
}

func (e *AmbiguousSchemaError) Unwrap() error {
	return ErrAmbiguousSchema
}
