package jwt

import (
	"reflect"
	"strings"
)

// HasRequiredJSONTag reports whether a struct field has the "required" JSON tag.
//
// Payload structs passed to Verify may mark members as required:
//
//	type Claims struct {
//	    Username string `json:"username,required"`
//	    Email    string `json:"email"`
//	}
//
// After decoding, a required field left at its zero value fails
// with a *MissingClaimError carrying the JSON member name.
func HasRequiredJSONTag(field reflect.StructField) bool {
	if isExported := field.PkgPath == ""; !isExported {
		return false
	}

	tag := field.Tag.Get("json")
	return strings.Contains(tag, ",required")
}

// meetRequirements validates that all required fields of a struct are non-zero.
func meetRequirements(val reflect.Value) error {
	val = reflect.Indirect(val)
	if val.Kind() != reflect.Struct {
		return nil
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		// skip unexported fields here.
		if isExported := field.PkgPath == ""; !isExported {
			continue
		}

		if field.Anonymous && indirectType(field.Type).Kind() == reflect.Struct {
			fv := val.Field(i)
			if fv.Kind() == reflect.Ptr && fv.IsNil() {
				continue
			}
			if err := meetRequirements(fv); err != nil {
				return err
			}

			continue
		}

		if HasRequiredJSONTag(field) && val.Field(i).IsZero() {
			return &MissingClaimError{Name: jsonName(field)}
		}
	}

	return nil
}

func jsonName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" {
		return field.Name
	}

	return name
}

// indirectType returns the underlying type for pointer types.
func indirectType(typ reflect.Type) reflect.Type {
	if typ.Kind() == reflect.Ptr {
		return typ.Elem()
	}

	return typ
}
