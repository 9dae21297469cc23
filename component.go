package bridge

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Version of the host component
const Version = "1.0.0"

// Component is the surface exposed to the host application. Its properties
// and methods can be used directly or looked up by name, including the
// localized aliases the host registers them under.
type Component struct {
	handle *Handle
	calls  *CallFacade

	mu                sync.Mutex
	pathToEnvironment string

	properties map[string]*property
	methods    map[string]*method
}

type property struct {
	name    string
	aliases []string
	get     func() any
	set     func(value any) error
}

type method struct {
	name      string
	aliases   []string
	params    int
	lifecycle bool
	call      func(ctx context.Context, args []HostValue) (any, error)
}

// NewComponent returns a Component driving h. A nil h uses Default().
func NewComponent(h *Handle) *Component {
	if h == nil {
		h = Default()
	}
	c := &Component{
		handle:     h,
		calls:      NewCallFacade(h),
		properties: map[string]*property{},
		methods:    map[string]*method{},
	}
	c.initProperties()
	c.initMethods()
	return c
}

func (c *Component) initProperties() {
	c.addProperty(&property{
		name:    "Version",
		aliases: []string{"ВерсияКомпоненты"},
		get:     func() any { return Version },
	})
	c.addProperty(&property{
		name:    "isInitialized",
		aliases: []string{"ПитонВключен"},
		get:     func() any { return c.IsInitialized() },
	})
	c.addProperty(&property{
		name:    "pathToEnvironment",
		aliases: []string{"pathToVenv", "ПутьКВиртуальномуОкружению"},
		get:     func() any { return c.PathToEnvironment() },
		set: func(value any) error {
			s, ok := value.(string)
			if !ok {
				return Errorf(ErrorTypeInvalidArgument, "pathToEnvironment must be a string, not %T", value)
			}
			c.SetPathToEnvironment(s)
			return nil
		},
	})
}

func (c *Component) initMethods() {
	c.addMethod(&method{
		name:      "initializeRuntime",
		lifecycle: true,
		aliases:   []string{"initializePython", "ВключитьПитон"},
		call: func(ctx context.Context, args []HostValue) (any, error) {
			return nil, c.InitializeRuntime(ctx)
		},
	})
	c.addMethod(&method{
		name:      "finalizeRuntime",
		lifecycle: true,
		aliases:   []string{"uninitializePython", "ВыключитьПитон"},
		call: func(ctx context.Context, args []HostValue) (any, error) {
			return nil, c.FinalizeRuntime(ctx)
		},
	})
	c.addMethod(&method{
		name:    "MakeSimpleQR",
		aliases: []string{"СоздатьПростойQR"},
		params:  1,
		call: func(ctx context.Context, args []HostValue) (any, error) {
			data, err := stringParam("MakeSimpleQR", "data", args[0])
			if err != nil {
				return nil, err
			}
			return c.MakeSimpleQR(ctx, data)
		},
	})
	c.addMethod(&method{
		name:    "Validator",
		aliases: []string{"Валидатор"},
		params:  2,
		call: func(ctx context.Context, args []HostValue) (any, error) {
			data, err := stringParam("Validator", "data", args[0])
			if err != nil {
				return nil, err
			}
			schema, err := stringParam("Validator", "schema", args[1])
			if err != nil {
				return nil, err
			}
			return c.Validator(ctx, data, schema)
		},
	})
}

func (c *Component) addProperty(p *property) {
	for _, name := range append([]string{p.name}, p.aliases...) {
		c.properties[strings.ToLower(name)] = p
	}
}

func (c *Component) addMethod(m *method) {
	for _, name := range append([]string{m.name}, m.aliases...) {
		c.methods[strings.ToLower(name)] = m
	}
}

func stringParam(methodName, param string, v HostValue) (string, error) {
	s, ok := v.AsString()
	if !ok {
		return "", Errorf(ErrorTypeInvalidArgument, "%s: %s must be a string, not %s", methodName, param, v.Kind())
	}
	return s, nil
}

// Version returns the component version
func (c *Component) Version() string {
	return Version
}

// IsInitialized reports whether the runtime is active
func (c *Component) IsInitialized() bool {
	return c.handle.IsInitialized()
}

// PathToEnvironment returns the environment used by InitializeRuntime
func (c *Component) PathToEnvironment() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pathToEnvironment
}

// SetPathToEnvironment sets the environment used by the next InitializeRuntime
func (c *Component) SetPathToEnvironment(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pathToEnvironment = path
}

// InitializeRuntime starts the runtime with the current PathToEnvironment
func (c *Component) InitializeRuntime(ctx context.Context) error {
	return c.handle.Initialize(ctx, Config{EnvironmentPath: c.PathToEnvironment()})
}

// FinalizeRuntime stops the runtime
func (c *Component) FinalizeRuntime(ctx context.Context) error {
	return c.handle.Finalize(ctx)
}

// MakeSimpleQR returns a PNG QR code encoding data
func (c *Component) MakeSimpleQR(ctx context.Context, data string) ([]byte, error) {
	return c.calls.MakeSimpleQR(ctx, data)
}

// Validator validates the JSON document data against schema
func (c *Component) Validator(ctx context.Context, data, schema string) (string, error) {
	return c.calls.Validator(ctx, data, schema)
}

// Properties returns the primary property names
func (c *Component) Properties() []string {
	return primaryNames(c.properties, func(p *property) string { return p.name })
}

// Methods returns the primary method names
func (c *Component) Methods() []string {
	return primaryNames(c.methods, func(m *method) string { return m.name })
}

func primaryNames[T any](byName map[string]*T, name func(*T) string) []string {
	seen := map[string]bool{}
	var names []string
	for _, v := range byName {
		n := name(v)
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// GetProperty reads a property by name or alias, ignoring case
func (c *Component) GetProperty(name string) (any, error) {
	p, ok := c.properties[strings.ToLower(name)]
	if !ok {
		return nil, Errorf(ErrorTypeInvalidArgument, "unknown property %q", name)
	}
	return p.get(), nil
}

// SetProperty writes a property by name or alias, ignoring case
func (c *Component) SetProperty(name string, value any) error {
	p, ok := c.properties[strings.ToLower(name)]
	if !ok {
		return Errorf(ErrorTypeInvalidArgument, "unknown property %q", name)
	}
	if p.set == nil {
		return Errorf(ErrorTypeInvalidArgument, "property %q is read-only", p.name)
	}
	return p.set(value)
}

// IsLifecycleMethod reports whether name, or one of its aliases, starts or
// stops the runtime.
func (c *Component) IsLifecycleMethod(name string) bool {
	m, ok := c.methods[strings.ToLower(name)]
	return ok && m.lifecycle
}

// Call invokes a method by name or alias, ignoring case. Arguments must be
// strings, booleans or byte slices.
func (c *Component) Call(ctx context.Context, name string, args ...any) (any, error) {
	m, ok := c.methods[strings.ToLower(name)]
	if !ok {
		return nil, Errorf(ErrorTypeInvalidArgument, "unknown method %q", name)
	}
	if len(args) != m.params {
		return nil, Errorf(ErrorTypeInvalidArgument, "%s takes %d argument(s), got %d", m.name, m.params, len(args))
	}
	values := make([]HostValue, len(args))
	for i, arg := range args {
		v, err := ValueOf(arg)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return m.call(ctx, values)
}
