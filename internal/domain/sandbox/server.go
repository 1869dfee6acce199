package sandbox

import (
	"context"

	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/infrastructure/tracing"
	"github.com/legalbox/swa/internal/shared/types"
)

type serverCapability struct {
	sb        *Sandbox
	transport Transport
	scheduler Scheduler
	trace     *tracing.Scope
}

// ServerPlugin attaches asynchronous requests to the application server
func ServerPlugin(sb *Sandbox, svc Services) {
	sb.Server = &serverCapability{sb: sb, transport: svc.Transport, scheduler: svc.Scheduler, trace: svc.Trace}
}

// Send posts data to url. receive runs later on the event loop with the
// decoded response, or with a failure event. Responses arriving after the
// module ended are dropped. The request continues the trace of the task
// that called Send.
func (s *serverCapability) Send(url string, data interface{}, receive func(types.Event)) {
	if s.transport == nil {
		s.deliver(receive, failure("no transport configured"))
		return
	}
	ctx := s.trace.Context(s.sb.ctx)
	if s.scheduler == nil {
		s.deliver(receive, s.post(ctx, url, data))
		return
	}

	go func() {
		response := s.post(ctx, url, data)
		if s.sb.ctx.Err() != nil {
			return
		}
		if err := s.scheduler.Post(func() {
			if s.sb.ctx.Err() == nil {
				s.deliver(receive, response)
			}
		}); err != nil {
			s.sb.logger.Warn("Dropping server response", zap.String("url", url), zap.Error(err))
		}
	}()
}

func (s *serverCapability) post(ctx context.Context, url string, data interface{}) types.Event {
	response, err := s.transport.Post(ctx, url, data)
	if err != nil {
		s.sb.logger.Warn("Server request failed", zap.String("url", url), zap.Error(err))
		return failure(err.Error())
	}
	return types.Event(response)
}

func (s *serverCapability) deliver(receive func(types.Event), response types.Event) {
	if receive == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.sb.logger.Error("Server callback panicked", zap.Any("panic", r))
		}
	}()
	receive(response)
}

func failure(message string) types.Event {
	return types.Event{"status": "failure", "error": message}
}
