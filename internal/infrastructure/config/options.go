package config

import "sync"

// Well-known option names.
const (
	// OptionSandboxBuilder holds the sandbox builder used by new modules.
	OptionSandboxBuilder = "sandbox.builder"

	// OptionElementFactory holds the DOM element factory.
	OptionElementFactory = "dom.factory"
)

// Options is a key/value configuration store shared by an application and
// its modules. Later Set calls merge into the existing values. The zero
// value is an empty store.
type Options struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewOptions creates an empty store.
func NewOptions() *Options {
	return &Options{values: make(map[string]interface{})}
}

// Get returns the named option, or def when it is absent or nil.
func (o *Options) Get(name string, def interface{}) interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	value, ok := o.values[name]
	if !ok || value == nil {
		return def
	}
	return value
}

// Set merges partial into the store; last write wins.
func (o *Options) Set(partial map[string]interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.values == nil {
		o.values = make(map[string]interface{}, len(partial))
	}
	for name, value := range partial {
		o.values[name] = value
	}
}

// Reset removes every option.
func (o *Options) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values = make(map[string]interface{})
}

// Snapshot returns a copy of the current values.
func (o *Options) Snapshot() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make(map[string]interface{}, len(o.values))
	for name, value := range o.values {
		out[name] = value
	}
	return out
}
