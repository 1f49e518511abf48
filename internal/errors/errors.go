// Package errors defines custom error types for better error handling and debugging.
// StreamError provides context-aware error reporting with type classification.
package errors

import (
	stderrors "errors"
	"fmt"
)

// StreamError represents errors that occur during stream processing
type StreamError struct {
	Type    string
	Message string
	Cause   error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// Error type constants
const (
	ErrorTypeConfigurationInvalid = "CONFIGURATION_INVALID"
	ErrorTypeAPIKeyMissing        = "API_KEY_MISSING"
	ErrorTypeTMDBFailure          = "TMDB_FAILURE"
	ErrorTypeAdapterFailure       = "ADAPTER_FAILURE"
	ErrorTypeDebridFailure        = "DEBRID_FAILURE"
	ErrorTypeTimeout              = "TIMEOUT"
	ErrorTypeInvalidID            = "INVALID_ID"
	ErrorTypeInternal             = "INTERNAL"
)

// NewStreamError creates a new StreamError
func NewStreamError(errorType, message string, cause error) *StreamError {
	return &StreamError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigurationError creates a configuration-related error
func NewConfigurationError(message string, cause error) *StreamError {
	return NewStreamError(ErrorTypeConfigurationInvalid, message, cause)
}

// NewAPIKeyMissingError creates an API key missing error
func NewAPIKeyMissingError(service string) *StreamError {
	return NewStreamError(ErrorTypeAPIKeyMissing, fmt.Sprintf("API key missing for %s", service), nil)
}

// NewTMDBError creates a TMDB-related error
func NewTMDBError(message string, cause error) *StreamError {
	return NewStreamError(ErrorTypeTMDBFailure, message, cause)
}

// NewAdapterError wraps a failure reported by one source adapter.
func NewAdapterError(source string, cause error) *StreamError {
	return NewStreamError(ErrorTypeAdapterFailure, fmt.Sprintf("source %s failed", source), cause)
}

// NewDebridError wraps a failure reported by a debrid provider.
func NewDebridError(provider, message string, cause error) *StreamError {
	return NewStreamError(ErrorTypeDebridFailure, fmt.Sprintf("%s: %s", provider, message), cause)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(operation string) *StreamError {
	return NewStreamError(ErrorTypeTimeout, fmt.Sprintf("Operation timeout: %s", operation), nil)
}

// NewInvalidIDError creates an invalid ID error
func NewInvalidIDError(id string) *StreamError {
	return NewStreamError(ErrorTypeInvalidID, fmt.Sprintf("Invalid ID format: %s", id), nil)
}

// NewInternalError marks a defect in the pipeline itself.
func NewInternalError(message string, cause error) *StreamError {
	return NewStreamError(ErrorTypeInternal, message, cause)
}

// IsType reports whether err is, or wraps, a StreamError of the given type.
func IsType(err error, errorType string) bool {
	var se *StreamError
	for err != nil {
		if !stderrors.As(err, &se) {
			return false
		}
		if se.Type == errorType {
			return true
		}
		err = se.Cause
	}
	return false
}
