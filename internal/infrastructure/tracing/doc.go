/*
Package tracing provides lightweight request tracing for the HTTP host.

# Overview

Every request handled by the host gets a span. The trace id is taken from
the X-Trace-ID header when the caller sends one and generated otherwise;
both ids are echoed in the response. Finished spans are logged by a
buffered collector, at debug level unless the request failed.

The trace travels in the request context, so an outgoing request made on
behalf of it (see providers/http) carries the same X-Trace-ID.

# Usage

	tracer := tracing.New(logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
