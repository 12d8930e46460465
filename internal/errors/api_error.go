package errors

import (
	"errors"
	"net/http"

	"github.com/sadopc/flowtime/internal/store"
)

type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Unavailable(message string) *APIError {
	if message == "" {
		message = "storage unavailable"
	}
	return New(http.StatusServiceUnavailable, "storage_unavailable", message)
}

// FromStore maps errors returned by the history store onto API errors.
func FromStore(err error) *APIError {
	if err == nil {
		return nil
	}
	var ve *store.ValidationError
	switch {
	case errors.As(err, &ve):
		apiErr := BadRequest("validation_error", ve.Message)
		apiErr.Details = map[string]string{"field": ve.Field}
		return apiErr
	case errors.Is(err, store.ErrNotFound):
		return NotFound("not_found", "not found")
	case store.IsUnavailable(err):
		return Unavailable("")
	}
	return Internal("")
}
