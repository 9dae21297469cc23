package modules

import (
	"github.com/risor-io/risor/object"
)

// Module is a Go-implemented library importable from the embedded runtime.
type Module interface {

	// Name returns the import name of the Module, e.g. "schema.validator"
	Name() string

	// Build returns the runtime representation of the Module
	Build() *object.Module
}

// Registry maps import names to runtime modules
type Registry map[string]*object.Module

// NewRegistry builds the given modules into a Registry. A later module
// replaces an earlier one with the same name.
func NewRegistry(mods ...Module) Registry {
	r := make(Registry, len(mods))
	for _, m := range mods {
		r[m.Name()] = m.Build()
	}
	return r
}

// All returns every module shipped with the bridge.
func All() []Module {
	return []Module{
		&IOModule{},
		&QRCodeModule{},
		&ValidatorModule{},
	}
}

// Default returns a Registry holding All modules.
func Default() Registry {
	return NewRegistry(All()...)
}
