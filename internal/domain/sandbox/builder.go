package sandbox

import (
	"github.com/legalbox/swa/internal/domain/event"
	"github.com/legalbox/swa/internal/infrastructure/config"
	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/infrastructure/monitoring"
	"github.com/legalbox/swa/internal/infrastructure/tracing"
)

// Builder produces the sandbox of a module. It returns nil for an empty id.
type Builder interface {
	Build(moduleID string) *Sandbox
}

// BuilderFunc adapts a function to Builder
type BuilderFunc func(moduleID string) *Sandbox

// Build calls f
func (f BuilderFunc) Build(moduleID string) *Sandbox {
	return f(moduleID)
}

// Services are the collaborators capability groups are bound to.
// Any of them may be nil; the matching capability then degrades to
// neutral results.
type Services struct {
	Document  DocumentService
	Factory   ElementFactory
	Bus       *event.Publisher
	Catalog   Catalog
	Transport Transport
	Location  Location
	Scheduler Scheduler
	Trace     *tracing.Scope
	Options   *config.Options
	Logger    *logging.Logger
	Metrics   *monitoring.Metrics
}

// Plugin attaches one capability group to a sandbox
type Plugin func(sb *Sandbox, svc Services)

// DefaultPlugins lists the capability groups in the order they are applied
func DefaultPlugins() []Plugin {
	return []Plugin{
		CSSPlugin,
		DOMPlugin,
		EventsPlugin,
		I18nPlugin,
		ServerPlugin,
		URLPlugin,
		UtilsPlugin,
	}
}

// DefaultBuilder composes sandboxes from services and plugins
type DefaultBuilder struct {
	services Services
	plugins  []Plugin
}

// NewBuilder creates a builder applying the given plugins, or DefaultPlugins when none
func NewBuilder(services Services, plugins ...Plugin) *DefaultBuilder {
	if len(plugins) == 0 {
		plugins = DefaultPlugins()
	}
	if services.Logger == nil {
		services.Logger = logging.NewNop()
	}
	return &DefaultBuilder{services: services, plugins: plugins}
}

// Build creates the sandbox for moduleID
func (b *DefaultBuilder) Build(moduleID string) *Sandbox {
	if moduleID == "" {
		return nil
	}

	svc := b.services
	svc.Factory = ResolveFactory(svc.Options, svc.Factory)

	sb := New(moduleID, svc.Document, svc.Factory, svc.Logger, svc.Metrics)
	for _, plugin := range b.plugins {
		plugin(sb, svc)
	}
	return sb
}

// ResolveFactory returns the element factory configured in opts, or def
func ResolveFactory(opts *config.Options, def ElementFactory) ElementFactory {
	if opts == nil {
		return def
	}
	if factory, ok := opts.Get(config.OptionElementFactory, nil).(ElementFactory); ok {
		return factory
	}
	return def
}

// ResolveBuilder returns the sandbox builder configured in opts, or def
func ResolveBuilder(opts *config.Options, def Builder) Builder {
	if opts == nil {
		return def
	}
	if builder, ok := opts.Get(config.OptionSandboxBuilder, nil).(Builder); ok {
		return builder
	}
	return def
}
