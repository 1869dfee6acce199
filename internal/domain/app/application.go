package app

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/domain/event"
	"github.com/legalbox/swa/internal/domain/module"
	"github.com/legalbox/swa/internal/domain/sandbox"
	"github.com/legalbox/swa/internal/infrastructure/config"
	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/infrastructure/monitoring"
	"github.com/legalbox/swa/internal/shared/types"
)

// Window drives the application lifecycle
type Window interface {
	OnLoad(fn func())
	OnUnload(fn func())
}

// Application holds the ordered module registry, the bus and the options
type Application struct {
	mu      sync.RWMutex
	modules []*module.Module // Protected by mu

	options *config.Options
	bus     *event.Publisher
	builder sandbox.Builder
	factory sandbox.ElementFactory
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates an application. A bus and an options store are created when
// services does not carry them.
func New(services sandbox.Services) *Application {
	if services.Logger == nil {
		services.Logger = logging.NewNop()
	}
	if services.Bus == nil {
		services.Bus = event.NewPublisher(services.Logger).WithMetrics(services.Metrics)
	}
	if services.Options == nil {
		services.Options = config.NewOptions()
	}

	return &Application{
		options: services.Options,
		bus:     services.Bus,
		builder: sandbox.NewBuilder(services),
		factory: services.Factory,
		logger:  services.Logger.Named("app"),
		metrics: services.Metrics,
	}
}

// Bus returns the application event bus
func (a *Application) Bus() *event.Publisher {
	return a.bus
}

// Options returns the configuration store shared with modules
func (a *Application) Options() *config.Options {
	return a.options
}

// SetOptions merges partial into the configuration
func (a *Application) SetOptions(partial map[string]interface{}) {
	a.options.Set(partial)
}

// GetOption returns the named option, or def when it is missing or nil
func (a *Application) GetOption(name string, def interface{}) interface{} {
	return a.options.Get(name, def)
}

// ResetOptions drops every option
func (a *Application) ResetOptions() {
	a.options.Reset()
}

// NewModule creates a module bound to this application without registering it
func (a *Application) NewModule(moduleID string, creator module.Creator) *module.Module {
	return module.New(moduleID, creator, module.Env{
		Options:        a.options,
		DefaultBuilder: a.builder,
		DefaultFactory: a.factory,
		Logger:         a.logger,
		Metrics:        a.metrics,
	})
}

// Register creates a module and adds it to the registry
func (a *Application) Register(moduleID string, creator module.Creator) *module.Module {
	m := a.NewModule(moduleID, creator)
	a.AddModule(m)
	return m
}

// AddModule appends m. Adding a module already present is a no-op.
func (a *Application) AddModule(m *module.Module) bool {
	if m == nil {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if slices.Contains(a.modules, m) {
		return false
	}
	a.modules = append(a.modules, m)
	a.metrics.SetModules(len(a.modules))
	return true
}

// RemoveModule drops m from the registry without ending it
func (a *Application) RemoveModule(m *module.Module) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := slices.Index(a.modules, m)
	if idx < 0 {
		return false
	}
	a.modules = slices.Delete(a.modules, idx, idx+1)
	a.metrics.SetModules(len(a.modules))
	return true
}

// Modules returns the registered modules in insertion order
func (a *Application) Modules() []*module.Module {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.modules)
}

// Module returns the first registered module with the given id
func (a *Application) Module(moduleID string) (*module.Module, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, m := range a.modules {
		if m.ID() == moduleID {
			return m, true
		}
	}
	return nil, false
}

// Info describes every registered module
func (a *Application) Info() []types.ModuleInfo {
	modules := a.Modules()
	infos := make([]types.ModuleInfo, 0, len(modules))
	for _, m := range modules {
		infos = append(infos, m.Info())
	}
	return infos
}

// StartAll starts every module in insertion order
func (a *Application) StartAll() {
	modules := a.Modules()
	a.logger.Info("Starting modules", zap.Int("count", len(modules)))

	for _, m := range modules {
		m.Start()
	}
}

// EndAll ends every module in insertion order, then removes them from the
// registry
func (a *Application) EndAll() {
	modules := a.Modules()
	a.logger.Info("Ending modules", zap.Int("count", len(modules)))

	for _, m := range modules {
		m.End()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.modules = slices.DeleteFunc(a.modules, func(m *module.Module) bool {
		return slices.Contains(modules, m)
	})
	a.metrics.SetModules(len(a.modules))
}

// Run binds StartAll to the window load event and EndAll to unload
func (a *Application) Run(w Window) {
	w.OnLoad(a.StartAll)
	w.OnUnload(a.EndAll)
}

// Stats returns application statistics
func (a *Application) Stats() types.Stats {
	modules := a.Modules()

	stats := types.Stats{
		TotalModules: len(modules),
		Subscribers:  a.bus.Len(),
	}
	for _, m := range modules {
		switch m.State() {
		case types.StateStarted:
			stats.StartedModules++
		case types.StateFailed:
			stats.FailedModules++
		}
	}
	return stats
}
