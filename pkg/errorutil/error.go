package errorutil

import (
	"errors"
	"fmt"
)

// Error is the normalised job failure carried in a job response.
type Error struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	DevDetails string `json:"dev_details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Retriable creates an error caused by a transient condition (network, backend outage).
// Jobs are never re-queued by the worker; the flag only classifies the failure in logs.
func Retriable(message string) *Error {
	return &Error{
		Code:      500,
		Message:   message,
		Retryable: true,
	}
}

// RetriableWithDetails is Retriable with developer details attached.
func RetriableWithDetails(message string, details string) *Error {
	return &Error{
		Code:       500,
		Message:    message,
		Retryable:  true,
		DevDetails: details,
	}
}

// NonRetriable creates an error caused by bad input or a broken invariant.
func NonRetriable(message string) *Error {
	return &Error{
		Code:      400,
		Message:   message,
		Retryable: false,
	}
}

// NonRetriableWithDetails is NonRetriable with developer details attached.
func NonRetriableWithDetails(message string, details string) *Error {
	return &Error{
		Code:       400,
		Message:    message,
		Retryable:  false,
		DevDetails: details,
	}
}

// Wrap converts any error into *Error. Errors that already are *Error anywhere in
// the chain are returned as is; everything else becomes a non retryable 500.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{
		Code:       500,
		Message:    err.Error(),
		Retryable:  false,
		DevDetails: fmt.Sprintf("%+v", err),
	}
}
