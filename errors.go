package bridge

import (
	"errors"
	"fmt"
)

// Error type constants for classification and matching
const (
	// ErrorTypeInitialization means the runtime could not be started, or was
	// already active.
	ErrorTypeInitialization = "initialization_error"

	// ErrorTypeShutdown means the runtime could not be stopped cleanly.
	ErrorTypeShutdown = "shutdown_error"

	// ErrorTypeModuleImport means a runtime module could not be imported.
	ErrorTypeModuleImport = "module_import_error"

	// ErrorTypeInvalidArgument means a host argument was rejected before any
	// runtime interaction took place.
	ErrorTypeInvalidArgument = "invalid_argument"

	// ErrorTypeMarshal means a runtime value had an unexpected shape.
	ErrorTypeMarshal = "marshal_error"

	// ErrorTypeBridge covers any other runtime or bridge failure.
	ErrorTypeBridge = "bridge_error"
)

// Sentinels for use with errors.Is. They match any *Error of the same type.
var (
	ErrInitialization  = &Error{Type: ErrorTypeInitialization}
	ErrShutdown        = &Error{Type: ErrorTypeShutdown}
	ErrModuleImport    = &Error{Type: ErrorTypeModuleImport}
	ErrInvalidArgument = &Error{Type: ErrorTypeInvalidArgument}
	ErrMarshal         = &Error{Type: ErrorTypeMarshal}
	ErrBridge          = &Error{Type: ErrorTypeBridge}
)

// Error is the host-visible failure of a bridge operation. Cause carries
// the runtime's own error text when the failure originated in the runtime.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
	Wrapped error  `json:"-"` // Original error being wrapped
}

// NewError creates an Error without a runtime cause.
func NewError(errorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Errorf creates an Error with a formatted message.
func Errorf(errorType, format string, args ...any) *Error {
	return &Error{Type: errorType, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != "" {
		return fmt.Sprintf("%s due to: %s", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap implements the error unwrapping interface for Go's errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *Error of the same type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Descriptor returns the structured form of the error.
func (e *Error) Descriptor() ErrorDescriptor {
	return ErrorDescriptor{Message: e.Message, Cause: e.Cause}
}

// ErrorType classifies err. Errors that did not come from the bridge are
// reported as ErrorTypeBridge.
func ErrorType(err error) string {
	var bridgeErr *Error
	if errors.As(err, &bridgeErr) {
		return bridgeErr.Type
	}
	return ErrorTypeBridge
}

// ErrorDescriptor describes a runtime failure. Cause is empty when the
// runtime had no error set.
type ErrorDescriptor struct {
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// HasCause reports whether the runtime supplied an error text.
func (d ErrorDescriptor) HasCause() bool {
	return d.Cause != ""
}

// Err converts the descriptor into an *Error of the given type.
func (d ErrorDescriptor) Err(errorType string) *Error {
	return &Error{Type: errorType, Message: d.Message, Cause: d.Cause}
}
