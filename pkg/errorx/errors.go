package errorx

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized   = errors.New("data api client not initialized")
	ErrPublishFailed  = errors.New("failed to publish job")
	ErrInvalidRequest = errors.New("invalid request")
)

// BusinessError an error with the HTTP status it maps to
type BusinessError struct {
	Code    int
	Message string
	Details []ErrorDetail
}

// ErrorDetail one field level problem
type ErrorDetail struct {
	Path string
	Info string
}

func (e *BusinessError) Error() string {
	return e.Message
}

func NewBusinessError(code int, message string) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
	}
}

// StatusCode returns the HTTP status carried by err, 500 when it carries none.
func StatusCode(err error) int {
	var bizErr *BusinessError
	if errors.As(err, &bizErr) && bizErr.Code != 0 {
		return bizErr.Code
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
