package tracing

import (
	"context"
	"sync"
)

// Scope remembers the trace of the task running on the event loop, so
// requests started by that task continue the trace of the HTTP request
// that queued it. A nil Scope carries nothing.
type Scope struct {
	mu      sync.Mutex
	traceID TraceID
	spanID  SpanID
}

// NewScope creates an empty scope
func NewScope() *Scope {
	return &Scope{}
}

// Wrap returns task bound to the trace carried by ctx
func (s *Scope) Wrap(ctx context.Context, task func()) func() {
	if s == nil {
		return task
	}
	traceID, spanID := GetTraceID(ctx), GetSpanID(ctx)
	return func() {
		prevTrace, prevSpan := s.swap(traceID, spanID)
		defer s.swap(prevTrace, prevSpan)
		task()
	}
}

// Context returns parent carrying the trace of the running task, if any
func (s *Scope) Context(parent context.Context) context.Context {
	if s == nil {
		return parent
	}
	s.mu.Lock()
	traceID, spanID := s.traceID, s.spanID
	s.mu.Unlock()
	return WithTrace(parent, traceID, spanID)
}

func (s *Scope) swap(traceID TraceID, spanID SpanID) (TraceID, SpanID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prevTrace, prevSpan := s.traceID, s.spanID
	s.traceID, s.spanID = traceID, spanID
	return prevTrace, prevSpan
}
