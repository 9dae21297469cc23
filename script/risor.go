package script

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/modules/all"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/parser"
	"github.com/risor-io/risor/vm"
)

type RisorScript struct {
	engine *RisorScriptingEngine
	code   *compiler.Code
}

func (s *RisorScript) Evaluate(ctx context.Context, globals map[string]any) (Value, error) {
	combinedGlobals := make(map[string]any)
	for name, value := range s.engine.globals {
		combinedGlobals[name] = value
	}
	for name, value := range globals {
		combinedGlobals[name] = value
	}
	value, err := risor.EvalCode(ctx, s.code, risor.WithGlobals(combinedGlobals))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate risor script: %w", err)
	}
	return &RisorValue{obj: value}, nil
}

type RisorScriptingEngine struct {
	globals map[string]any
}

func NewRisorScriptingEngine(globals map[string]any) *RisorScriptingEngine {
	return &RisorScriptingEngine{globals: globals}
}

func (e *RisorScriptingEngine) Compile(ctx context.Context, code string) (Script, error) {
	compiledCode, err := e.compile(ctx, code)
	if err != nil {
		return nil, err
	}
	return &RisorScript{engine: e, code: compiledCode}, nil
}

// Load compiles and runs a source module on its own virtual machine. The
// machine is kept so that functions defined by the module can be called
// later with their module globals intact.
func (e *RisorScriptingEngine) Load(ctx context.Context, code string) (*vm.VirtualMachine, error) {
	compiledCode, err := e.compile(ctx, code)
	if err != nil {
		return nil, err
	}
	machine := vm.New(compiledCode, vm.WithGlobals(e.globals))
	if err := machine.Run(ctx); err != nil {
		return nil, err
	}
	return machine, nil
}

func (e *RisorScriptingEngine) compile(ctx context.Context, code string) (*compiler.Code, error) {
	ast, err := parser.Parse(ctx, code)
	if err != nil {
		return nil, err
	}

	var globalNames []string
	for name := range e.globals {
		globalNames = append(globalNames, name)
	}
	sort.Strings(globalNames)

	return compiler.Compile(ast, compiler.WithGlobalNames(globalNames))
}

// RisorValue is a runtime object together with the virtual machine that
// owns it. Functions defined in source modules can only be called on the
// machine that loaded them.
type RisorValue struct {
	obj     object.Object
	machine *vm.VirtualMachine
	module  *sourceModule
}

// NewRisorValue wraps a risor object that is not bound to any machine.
func NewRisorValue(obj object.Object) *RisorValue {
	return &RisorValue{obj: obj}
}

func (value *RisorValue) Value() any {
	if value.module != nil {
		return value.module.name
	}
	return ConvertRisorValueToGo(value.obj)
}

func (value *RisorValue) Type() string {
	if value.module != nil {
		return "module"
	}
	return string(value.obj.Type())
}

func (value *RisorValue) IsTruthy() bool {
	if value.module != nil {
		return true
	}
	switch obj := value.obj.(type) {
	case *object.Bool:
		return obj.Value()
	case *object.Int:
		return obj.Value() != 0
	case *object.Float:
		return obj.Value() != 0.0
	case *object.List:
		return len(obj.Value()) > 0
	case *object.Map:
		return len(obj.Value()) > 0
	case *object.String:
		val := obj.Value()
		return val != "" && strings.ToLower(val) != "false"
	default:
		// Use Risor's built-in truthiness evaluation
		return obj.IsTruthy()
	}
}

func (value *RisorValue) String() string {
	if value.module != nil {
		return fmt.Sprintf("module(%s)", value.module.name)
	}
	var strValue string
	switch v := value.obj.(type) {
	case *object.String:
		strValue = v.Value()
	case *object.Int:
		strValue = fmt.Sprintf("%d", v.Value())
	case *object.Float:
		strValue = fmt.Sprintf("%g", v.Value())
	case *object.Bool:
		strValue = fmt.Sprintf("%t", v.Value())
	case *object.Time:
		strValue = v.Value().Format(time.RFC3339)
	case *object.NilType:
		strValue = ""
	case *object.Error:
		strValue = v.Value().Error()
	case fmt.Stringer:
		strValue = v.String()
	default:
		strValue = v.Inspect()
	}
	return strValue
}

func DefaultRisorGlobals() map[string]any {
	globals := map[string]any{}
	for name, value := range all.Builtins() {
		globals[name] = value
	}
	return globals
}
