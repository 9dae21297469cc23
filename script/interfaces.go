package script

import (
	"context"
	"errors"
	"log/slog"

	"github.com/risor-io/risor/object"
)

var (
	// ErrNotActive is returned by every runtime operation issued while the
	// interpreter is not started.
	ErrNotActive = errors.New("interpreter is not active")

	// ErrAlreadyActive is returned when Start is called on a running interpreter.
	ErrAlreadyActive = errors.New("interpreter is already active")

	// ErrUncheckedError is returned when a runtime operation is issued while
	// the error slot still holds an error that nobody fetched.
	ErrUncheckedError = errors.New("previous runtime error was not checked")
)

// Value represents an object living inside the embedded runtime.
type Value interface {

	// Value returns the Go value for this value as an any
	Value() any

	// Type returns the runtime type name of this value
	Type() string

	// String returns the string representation of this value
	String() string

	// IsTruthy returns true if this value is truthy
	IsTruthy() bool
}

// Options configures an interpreter session.
type Options struct {
	// EnvironmentPath is a directory of source modules consulted before the
	// host modules. Empty means defaults only.
	EnvironmentPath string

	// HostModules are Go-implemented modules importable by name.
	HostModules map[string]*object.Module

	Logger *slog.Logger
}

// Interpreter is the capability set the bridge requires from an embedded
// runtime. Every operation that fails inside the runtime parks its error in
// the error slot, and the interpreter refuses further operations until the
// slot is drained with FetchError.
type Interpreter interface {
	Start(ctx context.Context, opts Options) error
	Stop(ctx context.Context) error
	Active() bool

	Import(ctx context.Context, name string) (Value, error)
	GetAttr(ctx context.Context, obj Value, name string) (Value, error)
	Call(ctx context.Context, fn Value, args ...Value) (Value, error)
	CallMethod(ctx context.Context, obj Value, name string, args ...Value) (Value, error)

	NewString(s string) (Value, error)
	NewBool(b bool) (Value, error)
	NewBytes(b []byte) (Value, error)

	// StringOf, BoolOf and BytesOf read a runtime value. BytesOf returns a
	// view into runtime memory which callers must copy before keeping.
	StringOf(v Value) (string, bool)
	BoolOf(v Value) (bool, bool)
	BytesOf(v Value) ([]byte, bool)

	// FetchError returns the parked runtime error, if any, and clears the slot.
	FetchError() error
	PendingError() bool
}

// Script represents a compiled script that can be evaluated.
type Script interface {
	Evaluate(ctx context.Context, globals map[string]any) (Value, error)
}

// Compiler is an interface used to compile source code into a Script.
type Compiler interface {
	Compile(ctx context.Context, code string) (Script, error)
}
