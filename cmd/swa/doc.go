// Package main is the entry point for the scalable web application host.
//
// The host parses an HTML page, registers one module per script found
// below the modules directory, starts them on window load and serves the
// page, the event bus and the module registry over HTTP.
//
// Architecture:
//
//	HTTP / WebSocket → event loop → Application → Modules → Sandboxes → page
//
// Configuration:
//   - Environment variables (see internal/infrastructure/config)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./swa -page index.html -modules ./modules -i18n ./lang
//
//	# Development mode (colored logs, debug level)
//	./swa -dev
//
// Signals:
//   - SIGINT, SIGTERM: window unload (every module ends), then shutdown
package main
