package rpgtl

import (
	"errors"
	"fmt"
)

// ErrBatchCancelled settles jobs that were still queued when their batch was cancelled.
var ErrBatchCancelled = errors.New("batch cancelled before dispatch")

// ValidationError reports bad input to a translation call. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// TranslationError is returned when a unit could not be translated, e.g.
// after every endpoint failed. Cause holds the last underlying error.
type TranslationError struct {
	Message string
	Cause   error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// EndpointError is one failed attempt against one translation endpoint.
type EndpointError struct {
	Endpoint   string
	StatusCode int // 0 for transport and decoding failures
	Message    string
	Cause      error
	Retryable  bool // Whether the same request may succeed later
}

func (e *EndpointError) Error() string {
	msg := fmt.Sprintf("endpoint %s: %s", e.Endpoint, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("endpoint %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *EndpointError) Unwrap() error {
	return e.Cause
}

// PatchError means a translation could not be written back; the original
// text stays in place.
type PatchError struct {
	Path Path
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("cannot resolve path %s", e.Path)
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// DocumentError indicates a document that could not be parsed or encoded.
type DocumentError struct {
	Message string
	Cause   error
}

func (e *DocumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("document error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("document error: %s", e.Message)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}
