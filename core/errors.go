package core

import "github.com/pkg/errors"

var (
	// storage errors; services translate them into ValidationErrors
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// NonFieldErrors is the FieldError.Field of errors that concern several fields.
const NonFieldErrors = "non_field_errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// NotFoundError is returned when the requested object does not exist.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// PermissionError is returned when an authenticated user is not allowed to perform an action.
type PermissionError struct {
	Reason string
}

func NewPermissionError(reason string) error {
	return &PermissionError{Reason: reason}
}

func (err PermissionError) Error() string {
	return err.Reason
}

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

// NewInvalidPKError reports a reference to an object that does not exist.
func NewInvalidPKError(field string, id int) error {
	return NewValidationError(nil, FieldError{Field: field, Error: InvalidPKText(id)})
}

// NewUniqueTogetherError reports a violation of a multi-field uniqueness constraint.
func NewUniqueTogetherError(fields ...string) error {
	return NewValidationError(nil, FieldError{Field: NonFieldErrors, Error: UniqueTogetherText(fields...)})
}
