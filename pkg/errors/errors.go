package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrChannelUnavailable is reported by a source when the channel no longer exists
	// or cannot be accessed. The orchestrator flags the channel instead of retrying it.
	ErrChannelUnavailable = errors.New("channel unavailable")

	// ErrNoHandler means no plugin is registered for a platform or scraper identity.
	ErrNoHandler = errors.New("no handler registered")
)

// Error codes attached with WrapWithCode.
const (
	CodeStore    = "store"
	CodeFetch    = "fetch"
	CodeUpload   = "upload"
	CodeParse    = "parse"
	CodeConflict = "conflict"
)

// Error represents a custom error type
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new error with a message
func New(message string) error {
	return &Error{
		Message: message,
	}
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapWithCode wraps an error with a code and message
func WrapWithCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode returns the error code if it exists
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetMessage returns the error message
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsNotFound returns true if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsChannelUnavailable returns true if a source reported the channel as gone
func IsChannelUnavailable(err error) bool {
	return errors.Is(err, ErrChannelUnavailable)
}

// IsNoHandler returns true if no plugin could be resolved
func IsNoHandler(err error) bool {
	return errors.Is(err, ErrNoHandler)
}

// IsStore returns true if the error came from the shared store. Store errors are fatal to a run.
func IsStore(err error) bool {
	return GetCode(err) == CodeStore
}
