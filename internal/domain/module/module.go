package module

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/domain/sandbox"
	"github.com/legalbox/swa/internal/infrastructure/config"
	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/infrastructure/monitoring"
	"github.com/legalbox/swa/internal/shared/types"
)

// ErrPanic wraps a panic recovered from widget code
var ErrPanic = errors.New("widget panicked")

// Creator builds the widget of a module from its sandbox. The sandbox is
// nil when the module has no id. The widget may implement Starter and Ender.
type Creator func(sb *sandbox.Sandbox) (interface{}, error)

// Starter is implemented by widgets with a start phase
type Starter interface {
	Start() error
}

// Ender is implemented by widgets with an end phase
type Ender interface {
	End() error
}

// Funcs is a widget assembled from optional lifecycle functions
type Funcs struct {
	StartFunc func() error
	EndFunc   func() error
}

// Start calls StartFunc when set
func (f Funcs) Start() error {
	if f.StartFunc == nil {
		return nil
	}
	return f.StartFunc()
}

// End calls EndFunc when set
func (f Funcs) End() error {
	if f.EndFunc == nil {
		return nil
	}
	return f.EndFunc()
}

// Env carries the shared collaborators of modules
type Env struct {
	Options        *config.Options
	DefaultBuilder sandbox.Builder
	DefaultFactory sandbox.ElementFactory
	Logger         *logging.Logger
	Metrics        *monitoring.Metrics
}

// Module wraps one widget with a failure-isolated lifecycle
type Module struct {
	id      string
	sandbox *sandbox.Sandbox
	factory sandbox.ElementFactory
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	widget  interface{} // Protected by mu
	state   types.State // Protected by mu
	err     error       // Protected by mu
	busy    bool        // Protected by mu
	cleaned bool        // Protected by mu
}

// New builds the sandbox and invokes creator. Creation failures are logged
// and leave the module in the failed state.
func New(moduleID string, creator Creator, env Env) *Module {
	if env.Logger == nil {
		env.Logger = logging.NewNop()
	}

	m := &Module{
		id:      moduleID,
		factory: sandbox.ResolveFactory(env.Options, env.DefaultFactory),
		logger:  env.Logger.ForModule(moduleID),
		metrics: env.Metrics,
		state:   types.StateCreated,
	}

	if builder := sandbox.ResolveBuilder(env.Options, env.DefaultBuilder); builder != nil {
		if err := guard(func() error {
			m.sandbox = builder.Build(moduleID)
			return nil
		}); err != nil {
			m.logger.Error("Sandbox builder failed", zap.Error(err))
		}
	}

	start := time.Now()
	err := guard(func() error {
		if creator == nil {
			return errors.New("no creator function")
		}
		widget, err := creator(m.sandbox)
		if err != nil {
			return err
		}
		m.widget = widget
		return nil
	})
	m.metrics.RecordLifecycle("create", err, time.Since(start))

	if err != nil {
		m.logger.Error("Module creation failed", zap.Error(err))
		m.state = types.StateFailed
		m.err = err
	}
	return m
}

// ID returns the module id
func (m *Module) ID() string {
	return m.id
}

// Sandbox returns the module sandbox, nil when the module has no id
func (m *Module) Sandbox() *sandbox.Sandbox {
	return m.sandbox
}

// State returns the lifecycle state
func (m *Module) State() types.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the failure that moved the module to the failed state
func (m *Module) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Info returns a snapshot of the module
func (m *Module) Info() types.ModuleInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := types.ModuleInfo{ID: m.id, State: m.state}
	if m.err != nil {
		info.Error = m.err.Error()
	}
	return info
}

// Start runs the widget start phase. It never panics; failures are logged
// and move the module to the failed state.
func (m *Module) Start() {
	m.mu.Lock()
	if m.state != types.StateCreated || m.busy {
		m.logger.Debug("Start ignored", zap.String("state", string(m.state)))
		m.mu.Unlock()
		return
	}
	m.busy = true
	widget := m.widget
	m.mu.Unlock()

	if init, ok := m.factory.(sandbox.ElementInitializer); ok && m.sandbox != nil {
		if box := m.sandbox.GetBox(false); box != nil {
			if err := guard(func() error { init.InitElement(box); return nil }); err != nil {
				m.logger.Error("Element initialization failed", zap.Error(err))
			}
		}
	}

	var err error
	if starter, ok := widget.(Starter); ok {
		begin := time.Now()
		err = guard(starter.Start)
		m.metrics.RecordLifecycle("start", err, time.Since(begin))
		if err != nil {
			m.logger.Error("Module start failed", zap.Error(err))
		}
	} else {
		m.logger.Debug("Widget has no start phase")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	switch {
	case err != nil:
		m.fail(err)
	case m.state == types.StateCreated:
		m.state = types.StateStarted
	}
}

// End runs the widget end phase, then releases everything registered
// through the sandbox. Cleanup happens even when the widget fails, and
// calling End again is a no-op.
func (m *Module) End() {
	m.mu.Lock()
	if m.cleaned {
		m.logger.Debug("End ignored", zap.String("state", string(m.state)))
		m.mu.Unlock()
		return
	}
	m.cleaned = true
	widget := m.widget
	m.mu.Unlock()

	var err error
	if ender, ok := widget.(Ender); ok {
		begin := time.Now()
		err = guard(ender.End)
		m.metrics.RecordLifecycle("end", err, time.Since(begin))
		if err != nil {
			m.logger.Error("Module end failed", zap.Error(err))
		}
	}

	m.cleanup()

	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case err != nil:
		m.fail(err)
	case m.state != types.StateFailed:
		m.state = types.StateEnded
	}
}

func (m *Module) cleanup() {
	if m.sandbox == nil {
		return
	}
	m.sandbox.Teardown()

	destroyer, ok := m.factory.(sandbox.ElementDestroyer)
	if !ok {
		return
	}
	if box := m.sandbox.GetBox(false); box != nil {
		if err := guard(func() error { destroyer.DisposeElement(box); return nil }); err != nil {
			m.logger.Error("Element destruction failed", zap.Error(err))
		}
	}
}

// fail records the first failure. Must hold lock.
func (m *Module) fail(err error) {
	m.state = types.StateFailed
	if m.err == nil {
		m.err = err
	}
}

// guard converts a panic in fn into an error
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
