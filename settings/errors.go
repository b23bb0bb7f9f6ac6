package settings

import "fmt"

// MissingKeyError indicates a required top-level key is absent from the
// serialized form.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("settings: missing required key %q", e.Key)
}

// UnknownFieldError indicates a sub-mapping contains a field that is not
// part of the settings schema.
type UnknownFieldError struct {
	Section string
	Field   string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("settings: unknown field %q in %q", e.Field, e.Section)
}

// TypeMismatchError indicates a field value that cannot be interpreted as
// its declared type.
type TypeMismatchError struct {
	Field    string
	Expected string
	Got      interface{}
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("settings: field %q expects %s, got %T", e.Field, e.Expected, e.Got)
}
