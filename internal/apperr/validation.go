package apperr

import "fmt"

// Fields accumulates field errors so that a request reports every offending
// field in one round trip.
type Fields struct {
	list []FieldError
}

func (f *Fields) Add(field, code, format string, args ...any) {
	f.list = append(f.list, FieldError{
		Field:   field,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

// Require adds a "required" error when ok is false.
func (f *Fields) Require(ok bool, field string) {
	if !ok {
		f.Add(field, "Required", "%s is required", field)
	}
}

func (f *Fields) Empty() bool { return len(f.list) == 0 }

func (f *Fields) List() []FieldError { return f.list }

// Err returns nil when no field failed, otherwise a validation error whose
// code is the code of the first failure.
func (f *Fields) Err() error {
	if len(f.list) == 0 {
		return nil
	}
	code := f.list[0].Code
	msg := f.list[0].Message
	if len(f.list) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(f.list)-1)
	}
	return New(KindValidation, code, WithMessagef("%s", msg), WithFields(f.list...))
}

// Validation builds a single-field validation error.
func Validation(field, code, format string, args ...any) *Error {
	var f Fields
	f.Add(field, code, format, args...)
	return f.Err().(*Error)
}
