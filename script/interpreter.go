package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/risor-io/risor/object"
)

// callable is satisfied by risor builtins and by host objects that can be
// invoked directly from Go.
type callable interface {
	Call(ctx context.Context, args ...object.Object) object.Object
}

// RisorInterpreter runs an embedded Risor session. The mutex plays the role
// of the interpreter lock: only one operation touches the runtime at a time.
type RisorInterpreter struct {
	mu      sync.Mutex
	active  bool
	opts    Options
	engine  *RisorScriptingEngine
	globals map[string]any
	modules map[string]*RisorValue
	raised  error
	logger  *slog.Logger
}

// NewRisorInterpreter returns a stopped interpreter.
func NewRisorInterpreter() *RisorInterpreter {
	return &RisorInterpreter{}
}

func (r *RisorInterpreter) Start(ctx context.Context, opts Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return ErrAlreadyActive
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	globals := DefaultRisorGlobals()
	for name, mod := range opts.HostModules {
		// Dotted modules are only reachable through Import
		if !strings.Contains(name, ".") {
			globals[name] = mod
		}
	}
	engine := NewRisorScriptingEngine(globals)

	if opts.EnvironmentPath != "" {
		if err := runSite(ctx, engine, opts.EnvironmentPath); err != nil {
			return err
		}
		logger.Debug("using environment", "path", opts.EnvironmentPath)
	}

	r.opts = opts
	r.engine = engine
	r.globals = globals
	r.modules = map[string]*RisorValue{}
	r.raised = nil
	r.logger = logger
	r.active = true
	return nil
}

func runSite(ctx context.Context, engine *RisorScriptingEngine, env string) error {
	info, err := os.Stat(env)
	if err != nil {
		return fmt.Errorf("environment %q: %w", env, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("environment %q is not a directory", env)
	}
	sitePath := filepath.Join(env, SiteScript)
	src, err := os.ReadFile(sitePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	site, err := engine.Compile(ctx, string(src))
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", sitePath, err)
	}
	if _, err := site.Evaluate(ctx, nil); err != nil {
		return fmt.Errorf("failed to run %s: %w", sitePath, err)
	}
	return nil
}

func (r *RisorInterpreter) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return ErrNotActive
	}
	if r.raised != nil {
		r.logger.Warn("discarding unchecked runtime error at shutdown", "error", r.raised)
	}
	r.active = false
	r.engine = nil
	r.globals = nil
	r.modules = nil
	r.raised = nil
	return nil
}

func (r *RisorInterpreter) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// guard must be called with the lock held.
func (r *RisorInterpreter) guard() error {
	if !r.active {
		return ErrNotActive
	}
	if r.raised != nil {
		return ErrUncheckedError
	}
	return nil
}

// raise parks err in the error slot. Must be called with the lock held.
func (r *RisorInterpreter) raise(err error) error {
	r.raised = err
	return err
}

func (r *RisorInterpreter) Import(ctx context.Context, name string) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.guard(); err != nil {
		return nil, err
	}
	if mod, ok := r.modules[name]; ok {
		return mod, nil
	}
	mod, err := r.load(ctx, name)
	if err != nil {
		return nil, r.raise(err)
	}
	r.modules[name] = mod
	r.logger.Debug("imported module", "module", name)
	return mod, nil
}

// load resolves a module from the environment first, then from the host
// modules, then from the risor builtin modules.
func (r *RisorInterpreter) load(ctx context.Context, name string) (*RisorValue, error) {
	if err := checkModuleName(name); err != nil {
		return nil, err
	}
	if env := r.opts.EnvironmentPath; env != "" {
		path, err := ModulePath(env, name)
		if err != nil {
			return nil, err
		}
		src, err := os.ReadFile(path)
		if err == nil {
			machine, err := r.engine.Load(ctx, string(src))
			if err != nil {
				return nil, fmt.Errorf("error in module %s: %w", name, err)
			}
			return &RisorValue{
				module:  &sourceModule{name: name, path: path, machine: machine},
				machine: machine,
			}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if mod, ok := r.opts.HostModules[name]; ok {
		return NewRisorValue(mod), nil
	}
	if mod, ok := r.globals[name].(*object.Module); ok {
		return NewRisorValue(mod), nil
	}
	return nil, fmt.Errorf("no module named %q", name)
}

func (r *RisorInterpreter) GetAttr(ctx context.Context, obj Value, name string) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.guard(); err != nil {
		return nil, err
	}
	attr, err := r.getAttr(obj, name)
	if err != nil {
		return nil, r.raise(err)
	}
	return attr, nil
}

func (r *RisorInterpreter) getAttr(obj Value, name string) (*RisorValue, error) {
	rv, err := asRisor(obj)
	if err != nil {
		return nil, err
	}
	if rv.module != nil {
		attr, err := rv.module.machine.Get(name)
		if err != nil {
			return nil, fmt.Errorf("module %q has no attribute %q", rv.module.name, name)
		}
		return &RisorValue{obj: attr, machine: rv.machine}, nil
	}
	attr, ok := rv.obj.GetAttr(name)
	if !ok {
		return nil, fmt.Errorf("%s object has no attribute %q", rv.obj.Type(), name)
	}
	return &RisorValue{obj: attr, machine: rv.machine}, nil
}

func (r *RisorInterpreter) Call(ctx context.Context, fn Value, args ...Value) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.guard(); err != nil {
		return nil, err
	}
	rv, err := asRisor(fn)
	if err != nil {
		return nil, r.raise(err)
	}
	result, err := r.call(ctx, rv, args)
	if err != nil {
		return nil, r.raise(err)
	}
	return result, nil
}

func (r *RisorInterpreter) CallMethod(ctx context.Context, obj Value, name string, args ...Value) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.guard(); err != nil {
		return nil, err
	}
	method, err := r.getAttr(obj, name)
	if err != nil {
		return nil, r.raise(err)
	}
	result, err := r.call(ctx, method, args)
	if err != nil {
		return nil, r.raise(err)
	}
	return result, nil
}

func (r *RisorInterpreter) call(ctx context.Context, fn *RisorValue, args []Value) (result *RisorValue, err error) {
	objs := make([]object.Object, 0, len(args))
	for _, arg := range args {
		rv, err := asRisor(arg)
		if err != nil {
			return nil, err
		}
		if rv.module != nil {
			return nil, fmt.Errorf("cannot pass module %s as an argument", rv.module.name)
		}
		objs = append(objs, rv.obj)
	}
	if fn.module != nil {
		return nil, fmt.Errorf("module %s is not callable", fn.module.name)
	}

	defer func() {
		if p := recover(); p != nil {
			result, err = nil, fmt.Errorf("runtime panic: %v", p)
		}
	}()

	var out object.Object
	switch f := fn.obj.(type) {
	case *object.Function:
		if fn.machine == nil {
			return nil, fmt.Errorf("function is not bound to a loaded module")
		}
		out, err = fn.machine.Call(ctx, f, objs)
		if err != nil {
			return nil, err
		}
	case callable:
		out = f.Call(ctx, objs...)
	default:
		return nil, fmt.Errorf("%s object is not callable", fn.obj.Type())
	}

	if errObj, ok := out.(*object.Error); ok {
		return nil, errObj.Value()
	}
	if out == nil {
		out = object.Nil
	}
	return &RisorValue{obj: out, machine: fn.machine}, nil
}

func (r *RisorInterpreter) NewString(s string) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.guard(); err != nil {
		return nil, err
	}
	return NewRisorValue(object.NewString(s)), nil
}

func (r *RisorInterpreter) NewBool(b bool) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.guard(); err != nil {
		return nil, err
	}
	return NewRisorValue(object.NewBool(b)), nil
}

// NewBytes copies b so the runtime owns its own memory.
func (r *RisorInterpreter) NewBytes(b []byte) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.guard(); err != nil {
		return nil, err
	}
	return NewRisorValue(object.NewByteSlice(copyBytes(b))), nil
}

func (r *RisorInterpreter) StringOf(v Value) (string, bool) {
	rv, err := asRisor(v)
	if err != nil || rv.obj == nil {
		return "", false
	}
	s, ok := rv.obj.(*object.String)
	if !ok {
		return "", false
	}
	return s.Value(), true
}

func (r *RisorInterpreter) BoolOf(v Value) (bool, bool) {
	rv, err := asRisor(v)
	if err != nil || rv.obj == nil {
		return false, false
	}
	b, ok := rv.obj.(*object.Bool)
	if !ok {
		return false, false
	}
	return b.Value(), true
}

func (r *RisorInterpreter) BytesOf(v Value) ([]byte, bool) {
	rv, err := asRisor(v)
	if err != nil || rv.obj == nil {
		return nil, false
	}
	b, ok := rv.obj.(*object.ByteSlice)
	if !ok {
		return nil, false
	}
	return b.Value(), true
}

func (r *RisorInterpreter) FetchError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.raised
	r.raised = nil
	return err
}

func (r *RisorInterpreter) PendingError() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.raised != nil
}

func asRisor(v Value) (*RisorValue, error) {
	rv, ok := v.(*RisorValue)
	if !ok || rv == nil {
		return nil, fmt.Errorf("foreign runtime value %T", v)
	}
	return rv, nil
}
