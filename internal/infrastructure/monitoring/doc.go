/*
Package monitoring provides metrics collection for the application core.

# Overview

Prometheus metrics for the event bus, the module lifecycle, sandbox
containment checks and the HTTP host. Metrics are registered on an injected
prometheus.Registerer so independent applications (and tests) do not clash
on the default registry.

# Features

- Publish / delivery / subscriber failure counters
- Module lifecycle transitions by phase and outcome
- Containment violations per capability group
- HTTP request and WebSocket connection metrics

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

All recording methods accept a nil receiver.
*/
package monitoring
