package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/deepnoodle-ai/bridge/modules"
	"github.com/deepnoodle-ai/bridge/script"
	"go.jetify.com/typeid"
)

// State of a runtime Handle
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// At most one Handle may be active per process.
var (
	activeMu     sync.Mutex
	activeHandle *Handle
)

var (
	defaultHandle *Handle
	defaultOnce   sync.Once
)

// Default returns the process-wide Handle backed by a Risor interpreter and
// the modules shipped with the bridge.
func Default() *Handle {
	defaultOnce.Do(func() {
		defaultHandle = NewHandle(HandleOptions{})
	})
	return defaultHandle
}

// NewSessionID returns a new ID for a runtime activation
func NewSessionID() string {
	id, err := typeid.WithPrefix("rt")
	if err != nil {
		panic(err)
	}
	return id.String()
}

// HandleOptions configures a new Handle
type HandleOptions struct {
	Interpreter script.Interpreter
	Modules     modules.Registry
	Logger      *slog.Logger
}

// Handle owns the lifecycle of the embedded runtime and serializes every
// operation issued against it.
type Handle struct {
	mu        sync.Mutex
	state     State
	interp    script.Interpreter
	modules   modules.Registry
	errs      *ErrorBridge
	refs      *refTable
	logger    *slog.Logger
	sessionID string
	config    Config
}

// NewHandle creates an uninitialized Handle
func NewHandle(opts HandleOptions) *Handle {
	if opts.Interpreter == nil {
		opts.Interpreter = script.NewRisorInterpreter()
	}
	if opts.Modules == nil {
		opts.Modules = modules.Default()
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	return &Handle{
		state:   StateUninitialized,
		interp:  opts.Interpreter,
		modules: opts.Modules,
		errs:    NewErrorBridge(opts.Interpreter),
		refs:    newRefTable(opts.Logger),
		logger:  opts.Logger,
	}
}

// Initialize starts the runtime. It fails when the Handle is already
// active, in which case the state is left unchanged.
func (h *Handle) Initialize(ctx context.Context, cfg Config) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateActive {
		return NewError(ErrorTypeInitialization, "runtime is already initialized")
	}
	if err := cfg.Validate(); err != nil {
		return &Error{
			Type:    ErrorTypeInitialization,
			Message: "invalid runtime configuration",
			Cause:   err.Error(),
			Wrapped: err,
		}
	}

	activeMu.Lock()
	defer activeMu.Unlock()
	if activeHandle != nil && activeHandle != h {
		return NewError(ErrorTypeInitialization, "another runtime is already active in this process")
	}

	err := h.interp.Start(ctx, script.Options{
		EnvironmentPath: cfg.EnvironmentPath,
		HostModules:     h.modules,
		Logger:          h.logger,
	})
	if err != nil {
		return &Error{
			Type:    ErrorTypeInitialization,
			Message: "failed to initialize runtime",
			Cause:   err.Error(),
			Wrapped: err,
		}
	}
	// Start can succeed and still leave the runtime inactive
	if !h.interp.Active() {
		return NewError(ErrorTypeInitialization, "failed to initialize runtime: runtime is not active after startup")
	}

	for _, name := range cfg.Preload {
		mod, err := h.interp.Import(ctx, name)
		if err != nil {
			failure := h.errs.fail(ErrorTypeInitialization, fmt.Sprintf("failed to preload module %s", name), err)
			if stopErr := h.interp.Stop(ctx); stopErr != nil {
				h.logger.Error("failed to stop runtime after preload failure", "error", stopErr)
			}
			return failure
		}
		h.logger.Debug("preloaded module", "module", name, "type", mod.Type())
	}

	h.state = StateActive
	h.sessionID = NewSessionID()
	h.config = cfg
	activeHandle = h

	h.logger.Info("runtime initialized",
		"session_id", h.sessionID,
		"environment", cfg.EnvironmentPath)
	return nil
}

// Finalize stops the runtime. Any runtime refs still held are released.
func (h *Handle) Finalize(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateActive {
		return Errorf(ErrorTypeShutdown, "runtime is not initialized (state %s)", h.state)
	}
	if err := h.interp.Stop(ctx); err != nil {
		return &Error{
			Type:    ErrorTypeShutdown,
			Message: "failed to finalize runtime",
			Cause:   err.Error(),
			Wrapped: err,
		}
	}
	if h.interp.Active() {
		return NewError(ErrorTypeShutdown, "runtime is still active after shutdown")
	}

	if n := h.refs.releaseAll(); n > 0 {
		h.logger.Warn("released outstanding runtime refs at shutdown", "count", n)
	}
	h.state = StateFinalized

	activeMu.Lock()
	if activeHandle == h {
		activeHandle = nil
	}
	activeMu.Unlock()

	h.logger.Info("runtime finalized", "session_id", h.sessionID)
	return nil
}

// State returns the current lifecycle state
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// IsInitialized reports whether the runtime is active
func (h *Handle) IsInitialized() bool {
	return h.State() == StateActive
}

// SessionID returns the ID of the current or last activation
func (h *Handle) SessionID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessionID
}

// Config returns the config of the current or last activation
func (h *Handle) Config() Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.config
}

// RefStats reports runtime object handles acquired through this Handle.
func (h *Handle) RefStats() RefStats {
	return h.refs.stats()
}

// LiveRefs returns the number of runtime refs not yet released.
func (h *Handle) LiveRefs() int {
	return h.refs.stats().Live
}

// Errors returns the ErrorBridge bound to this Handle's runtime.
func (h *Handle) Errors() *ErrorBridge {
	return h.errs
}

// enter locks the Handle for one runtime operation. The returned function
// must be called to leave.
func (h *Handle) enter() (func(), error) {
	h.mu.Lock()
	if h.state != StateActive {
		h.mu.Unlock()
		return nil, NewError(ErrorTypeBridge, "runtime is not initialized")
	}
	return h.mu.Unlock, nil
}
