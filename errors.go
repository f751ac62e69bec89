package voiceai

import (
	"errors"
	"fmt"
)

// ErrorCode classifies adapter failures.
type ErrorCode string

const (
	// ErrCodeValidation marks bad caller input; the operation fails fast with
	// no I/O attempted.
	ErrCodeValidation ErrorCode = "validation_error"
	// ErrCodeConfiguration marks bad adapter construction options.
	ErrCodeConfiguration ErrorCode = "configuration_error"
	// ErrCodeUpstream marks a vendor non-success status or explicit failure.
	ErrCodeUpstream ErrorCode = "upstream_error"
	// ErrCodeTimeout marks an exhausted polling bound.
	ErrCodeTimeout ErrorCode = "timeout_error"
	// ErrCodeTransport marks a dial failure, connection drop, or mid-stream
	// read failure.
	ErrCodeTransport ErrorCode = "transport_error"
)

// Error is the typed failure shared by all adapters. The same value crosses
// both channels of an operation: the returned error and the emitted
// EventError carry identical information, never divergent copies.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError reports bad caller input.
func NewValidationError(message string, cause error) *Error {
	return &Error{Code: ErrCodeValidation, Message: message, Err: cause}
}

// NewConfigurationError reports invalid adapter construction options.
func NewConfigurationError(message string, cause error) *Error {
	return &Error{Code: ErrCodeConfiguration, Message: message, Err: cause}
}

// NewUpstreamError reports an explicit vendor failure.
func NewUpstreamError(message string, cause error) *Error {
	return &Error{Code: ErrCodeUpstream, Message: message, Err: cause}
}

// NewTimeoutError reports an exhausted polling bound.
func NewTimeoutError(message string, cause error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: message, Err: cause}
}

// NewTransportError reports a connection-level failure.
func NewTransportError(message string, cause error) *Error {
	return &Error{Code: ErrCodeTransport, Message: message, Err: cause}
}

// CodeOf extracts the ErrorCode from err, unwrapping as needed. It returns ""
// for nil and for errors outside the taxonomy.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
