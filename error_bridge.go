package bridge

import (
	"github.com/deepnoodle-ai/bridge/script"
)

// ErrorBridge turns the runtime's error slot into host errors. Every
// runtime call that may raise is followed by a check so that a stale error
// never leaks into the outcome of the next call.
type ErrorBridge struct {
	interp script.Interpreter
}

// NewErrorBridge returns an ErrorBridge reading the error slot of interp.
func NewErrorBridge(interp script.Interpreter) *ErrorBridge {
	return &ErrorBridge{interp: interp}
}

// CheckAndClear reads and clears the error slot. It returns nil when no
// error was raised.
func (b *ErrorBridge) CheckAndClear(message string) *ErrorDescriptor {
	err := b.interp.FetchError()
	if err == nil {
		return nil
	}
	return &ErrorDescriptor{Message: message, Cause: err.Error()}
}

// RaiseIfError clears the error slot and, if an error was raised, returns it
// as an *Error of the given type.
func (b *ErrorBridge) RaiseIfError(errorType, message string) error {
	desc := b.CheckAndClear(message)
	if desc == nil {
		return nil
	}
	return desc.Err(errorType)
}

// fail builds the host error for a runtime operation that returned err.
// The error slot is consumed; when it was empty the failure was detected by
// the interpreter itself and carries no runtime cause.
func (b *ErrorBridge) fail(errorType, message string, err error) *Error {
	desc := b.CheckAndClear(message)
	if desc == nil {
		desc = &ErrorDescriptor{Message: message}
	}
	failure := desc.Err(errorType)
	failure.Wrapped = err
	return failure
}
