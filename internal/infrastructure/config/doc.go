// Package config provides host configuration and the runtime options store.
//
// Config is loaded from environment variables with envconfig; every field
// has a default so the host starts with no environment at all.
//
// Options is the key/value store the application core reads at runtime
// (for instance to swap the sandbox builder or the element factory). It
// is an explicit value handed to the application, not a package global:
//
//	opts := config.NewOptions()
//	opts.Set(map[string]interface{}{config.OptionElementFactory: factory})
//	factory := opts.Get(config.OptionElementFactory, nil)
package config
