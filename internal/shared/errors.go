package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested resource does not exist or is inactive.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest indicates a business rule violation on the request.
	ErrBadRequest = errors.New("bad request")
	// ErrInvalidCredentials indicates directory authentication failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates a missing or unverifiable token.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
)

// DomainError pairs a sentinel kind with a human readable message. The kind
// drives HTTP status mapping, the message goes into the response envelope.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string { return e.Message }

func (e *DomainError) Unwrap() error { return e.Kind }

// NotFoundf builds a DomainError mapping to HTTP 404.
func NotFoundf(format string, args ...any) error {
	return &DomainError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// BadRequestf builds a DomainError mapping to HTTP 400.
func BadRequestf(format string, args ...any) error {
	return &DomainError{Kind: ErrBadRequest, Message: fmt.Sprintf(format, args...)}
}
