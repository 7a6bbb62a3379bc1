package biz

import (
	"fmt"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
)

const (
	ReasonMovieNotFound      = "MOVIE_NOT_FOUND"
	ReasonUserNotFound       = "USER_NOT_FOUND"
	ReasonImageNotFound      = "IMAGE_NOT_FOUND"
	ReasonValidationFailed   = "VALIDATION_FAILED"
	ReasonInvalidCredentials = "INVALID_CREDENTIALS"
	ReasonUnauthenticated    = "UNAUTHENTICATED"
	ReasonStorage            = "STORAGE_ERROR"
	ReasonUpstream           = "UPSTREAM_ERROR"
)

var (
	ErrMovieNotFound      = errors.NotFound(ReasonMovieNotFound, "movie not found")
	ErrUserNotFound       = errors.NotFound(ReasonUserNotFound, "user not found")
	ErrImageNotFound      = errors.NotFound(ReasonImageNotFound, "image not found")
	ErrValidation         = errors.New(422, ReasonValidationFailed, "validation failed")
	ErrInvalidCredentials = errors.Unauthorized(ReasonInvalidCredentials, "Invalid email or password")
	ErrUnauthenticated    = errors.Unauthorized(ReasonUnauthenticated, "login required")
	ErrStorage            = errors.InternalServer(ReasonStorage, "storage failure")
	ErrUpstream           = errors.ServiceUnavailable(ReasonUpstream, "movie database unavailable")
)

// StorageError tags a persistence failure.
func StorageError(err error) error {
	return ErrStorage.WithCause(err)
}

// UpstreamError tags a failure of the external movie database.
func UpstreamError(format string, args ...interface{}) error {
	return ErrUpstream.WithCause(fmt.Errorf(format, args...))
}

// FieldError is one failed form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists failed fields in form order. It matches ErrValidation.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages(), "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Messages returns the field messages in order.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return msgs
}
