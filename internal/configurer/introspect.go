package configurer

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

const tagName = "prop"

// introspect builds a schema from the exported fields of a struct type.
//
// Field names come from the `prop` tag, falling back to the Go field name with a
// lowercase first letter. `prop:"-"` skips a field. Embedded structs and fields
// tagged `prop:",inline"` contribute their own fields.
func introspect(typ reflect.Type) (*Schema, error) {
	var props []*Property
	collectFields(typ, nil, &props)
	return newSchema(typ, props)
}

func collectFields(typ reflect.Type, index []int, props *[]*Property) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name, inline := parseTag(field.Tag.Get(tagName))
		if name == "-" {
			continue
		}

		fieldIndex := make([]int, len(index)+1)
		copy(fieldIndex, index)
		fieldIndex[len(index)] = i

		if field.Type.Kind() == reflect.Struct && (inline || (field.Anonymous && name == "")) {
			collectFields(field.Type, fieldIndex, props)
			continue
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = lowerFirst(field.Name)
		}

		*props = append(*props, &Property{
			Name:        name,
			Type:        field.Type,
			Kind:        KindOf(field.Type),
			enumerators: enumeratorsOf(field.Type),
			set: func(target any, value reflect.Value) {
				reflect.ValueOf(target).Elem().FieldByIndex(fieldIndex).Set(value)
			},
			get: func(target any) any {
				return reflect.ValueOf(target).Elem().FieldByIndex(fieldIndex).Interface()
			},
		})
	}
}

func parseTag(tag string) (name string, inline bool) {
	name, opts, _ := strings.Cut(tag, ",")
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == "inline" {
			inline = true
		}
	}
	return name, inline
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
