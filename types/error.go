package types

import "fmt"

// ErrorCode represents a unified error code across the library.
type ErrorCode string

// Memory coordination error codes
const (
	// ErrConfiguration reports an invalid coordinator construction, such as
	// an empty source list.
	ErrConfiguration ErrorCode = "CONFIGURATION"

	// ErrSourceRead reports a failed get/get-all on a memory source. Read
	// failures abort the whole operation; no partial result is synthesized.
	ErrSourceRead ErrorCode = "SOURCE_READ"

	// ErrSourceWrite reports a failed put/set/reset on a memory source
	// mid-fan-out. Writes that already succeeded are not rolled back.
	ErrSourceWrite ErrorCode = "SOURCE_WRITE"
)

// Store error codes
const (
	ErrStoreClosed  ErrorCode = "STORE_CLOSED"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrTokenizer    ErrorCode = "TOKENIZER_ERROR"
	ErrStoreBackend ErrorCode = "STORE_BACKEND"
)

// NoSource marks an error that is not scoped to a particular memory source.
const NoSource = -1

// Error represents a structured error with code, message, and the index of
// the memory source it originated from, when applicable.
type Error struct {
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
	SourceIndex int       `json:"source_index"`
	Cause       error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.SourceIndex != NoSource {
		msg = fmt.Sprintf("%s (source %d)", msg, e.SourceIndex)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, SourceIndex: NoSource}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithSource records the construction-order index of the failing source.
// Index 0 is the primary; secondary sources follow in order.
func (e *Error) WithSource(index int) *Error {
	e.SourceIndex = index
	return e
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// GetSourceIndex extracts the failing source index from an error, or
// NoSource if the error is not source-scoped.
func GetSourceIndex(err error) int {
	if e, ok := err.(*Error); ok {
		return e.SourceIndex
	}
	return NoSource
}
