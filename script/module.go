package script

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor/vm"
)

const (
	// SourceExtension is the file extension of source modules found in an
	// environment directory.
	SourceExtension = ".risor"

	// SiteScript is run once at startup when present in the environment.
	SiteScript = "site.risor"
)

// sourceModule is a module loaded from an environment directory. Its
// globals live on the machine that ran it.
type sourceModule struct {
	name    string
	path    string
	machine *vm.VirtualMachine
}

// ModulePath maps a dotted module name onto a source file in env, so
// "schema.validator" resolves to <env>/schema/validator.risor.
func ModulePath(env, name string) (string, error) {
	if err := checkModuleName(name); err != nil {
		return "", err
	}
	rel := filepath.Join(strings.Split(name, ".")...) + SourceExtension
	return filepath.Join(env, rel), nil
}

func checkModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("empty module name")
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" || strings.ContainsAny(part, `/\`) {
			return fmt.Errorf("invalid module name %q", name)
		}
	}
	return nil
}
