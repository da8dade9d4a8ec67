// Package configurer applies named, loosely typed property values to strongly
// typed configuration structs.
//
// Each configurable type has one immutable Schema mapping property names to
// setters and declared types. Schemas come either from one-time introspection
// of struct fields (SchemaFor, cached process-wide) or from explicit
// registration through a Builder. A PropertyConfigurer looks a name up
// (exactly, or ignoring case), coerces the raw value to the declared type and
// calls the setter once.
//
// Unknown names are not errors: Configure returns false so callers can chain
// several configurers and let the first one that recognizes a name apply it.
// Values that cannot be coerced fail with ErrTypeCoercion.
package configurer
