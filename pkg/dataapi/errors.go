package dataapi

import (
	"fmt"
	"strings"
)

// QueryError a remote read failed; no partial result is returned with it.
type QueryError struct {
	Query  string
	Cursor string // set when a continuation page failed
	Err    error
}

func (e *QueryError) Error() string {
	if e.Cursor != "" {
		return fmt.Sprintf("dataapi: query page %s failed: %v", e.Cursor, e.Err)
	}
	return fmt.Sprintf("dataapi: query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// InvalidReferenceError a child intent named a parent handle that is not in the unit of work.
// It signals a programming defect, never bad input.
type InvalidReferenceError struct {
	Ref  Ref
	Size int
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("dataapi: unknown parent reference %s (unit of work holds %d intents)", e.Ref.ReferenceID(), e.Size)
}

// CommitError the backend rejected the whole batch; nothing was created.
type CommitError struct {
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *CommitError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("dataapi: commit rejected (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("dataapi: commit failed: %v", e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// APIErrorItem is one entry of the backend's error array.
type APIErrorItem struct {
	ErrorCode string   `json:"errorCode"`
	Message   string   `json:"message"`
	Fields    []string `json:"fields,omitempty"`
}

func (i APIErrorItem) String() string {
	if i.ErrorCode == "" {
		return i.Message
	}
	return i.ErrorCode + ": " + i.Message
}

// APIError non 2xx response from the record store
type APIError struct {
	StatusCode int
	Items      []APIErrorItem
}

func (e *APIError) Error() string {
	if len(e.Items) == 0 {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	msgs := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		msgs = append(msgs, item.String())
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, strings.Join(msgs, "; "))
}
