// Package errs defines the application error kinds shared by the storage,
// enrichment and presentation layers.
package errs

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	EINVALID   = "invalid"
	ENOTFOUND  = "not_found"
	EEXISTS    = "already_exists"
	ETRANSPORT = "transport"
	EINTERNAL  = "internal"
)

// Error is an application error carrying a machine-readable code and a
// message that is safe to show to the user.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("application error: code=%s message=%s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("application error: code=%s message=%s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an application error with a formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and user-facing message to an underlying error.
func Wrap(code string, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrorCode returns the code of an application error, EINTERNAL for any other
// error and an empty string for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the user-facing message of an application error.
// Non-application errors are reported generically.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}
