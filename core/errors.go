package core

import "github.com/pkg/errors"

// FieldError ties a validation message to a single request field,
// e.g. a media URL or a quiz answer index.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries either a single message (Err) or a set of
// per-field messages. API handlers render Fields via FieldMap.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// FieldMap renders the field errors as a field-to-message map ready for a
// JSON error body. Nil when the error carries no field details.
func (err ValidationError) FieldMap() map[string]string {
	if err.Fields == nil {
		return nil
	}
	flds := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		flds[fErr.Field] = fErr.Error
	}
	return flds
}

// shutdown signals an unrecoverable integrity problem, e.g. a lost
// database connection; the server drains and exits when one surfaces.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
