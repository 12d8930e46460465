package store

import (
	"errors"
	"fmt"
)

var (
	ErrClosed        = errors.New("history store is closed")
	ErrClosing       = errors.New("history store is closing")
	ErrWorkerCrashed = errors.New("history worker crashed")
	ErrNotFound      = errors.New("not found")
)

// ValidationError reports a malformed entry. It is returned before anything
// reaches the database.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UnavailableError is returned for requests that could not be served because
// the worker crashed or the store is closed. Err is one of ErrClosed,
// ErrClosing or an ErrWorkerCrashed chain.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: storage unavailable: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err means the store could not be reached.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// WorkerError is the serialized form of an error raised while the worker
// handled a request.
type WorkerError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	Code    string `json:"code,omitempty"`
	Name    string `json:"name"`
}

func (e *WorkerError) Error() string { return e.Message }

const (
	codeValidation = "validation_error"
	codeNotFound   = "not_found"
)

func serializeError(err error) *WorkerError {
	if err == nil {
		return nil
	}
	var we *WorkerError
	if errors.As(err, &we) {
		return we
	}
	out := &WorkerError{Message: err.Error(), Name: "Error"}
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		out.Name = "ValidationError"
		out.Code = codeValidation
	case errors.Is(err, ErrNotFound):
		out.Name = "NotFoundError"
		out.Code = codeNotFound
	}
	return out
}
