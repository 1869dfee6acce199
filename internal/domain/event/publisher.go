package event

import (
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/infrastructure/monitoring"
	"github.com/legalbox/swa/internal/shared/types"
)

// Publisher broadcasts events to its subscribers in registration order
type Publisher struct {
	mu          sync.RWMutex
	subscribers []*Subscriber // Protected by mu
	publishing  bool          // Protected by mu
	pending     []types.Event // Protected by mu

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewPublisher creates an empty bus
func NewPublisher(logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{
		logger: logger.Named("bus"),
	}
}

// WithMetrics adds metrics tracking to the publisher
func (p *Publisher) WithMetrics(metrics *monitoring.Metrics) *Publisher {
	p.metrics = metrics
	return p
}

// AddSubscriber registers s unless it is already present
func (p *Publisher) AddSubscriber(s *Subscriber) {
	if s == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.subscribers {
		if existing == s {
			return
		}
	}
	p.subscribers = append(p.subscribers, s)
	p.metrics.SetSubscribers(len(p.subscribers))
}

// RemoveSubscriber unregisters s; absent subscribers are ignored
func (p *Publisher) RemoveSubscriber(s *Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, existing := range p.subscribers {
		if existing == s {
			p.subscribers = append(p.subscribers[:i:i], p.subscribers[i+1:]...)
			break
		}
	}
	p.metrics.SetSubscribers(len(p.subscribers))
}

// Len returns the number of registered subscribers
func (p *Publisher) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers)
}

// Publish notifies a snapshot of the current subscribers. Subscribers added
// or removed by a callback only affect later deliveries. An event published
// from inside a callback is queued and delivered once the current event has
// reached every subscriber. A failing subscriber is logged and skipped;
// Publish itself never panics.
func (p *Publisher) Publish(event types.Event) {
	if err := event.Validate(); err != nil {
		p.logger.Warn("Dropping event", zap.Error(err))
		p.metrics.RecordRejected()
		return
	}

	p.mu.Lock()
	if p.publishing {
		p.pending = append(p.pending, event.Clone())
		p.mu.Unlock()
		return
	}
	p.publishing = true
	p.mu.Unlock()

	for {
		p.deliver(event)

		p.mu.Lock()
		if len(p.pending) == 0 {
			p.publishing = false
			p.mu.Unlock()
			return
		}
		event = p.pending[0]
		p.pending[0] = nil
		p.pending = p.pending[1:]
		p.mu.Unlock()
	}
}

func (p *Publisher) deliver(event types.Event) {
	p.mu.RLock()
	snapshot := make([]*Subscriber, len(p.subscribers))
	copy(snapshot, p.subscribers)
	p.mu.RUnlock()

	delivered, failed := 0, 0
	for i, s := range snapshot {
		matched, err := p.notify(s, event)
		if matched {
			delivered++
		}
		if err != nil {
			failed++
			p.logger.Error("Subscriber failed",
				zap.Int("subscriber", i),
				zap.Any("filter", s.filter),
				zap.Error(err),
			)
		}
	}
	p.metrics.RecordPublish(delivered, failed)
}

// notify converts a callback panic into an error
func (p *Publisher) notify(s *Subscriber, event types.Event) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			matched = true
			err = fmt.Errorf("callback panicked: %v", r)
			p.logger.Debug("Subscriber panic stack", zap.ByteString("stack", debug.Stack()))
		}
	}()
	return s.Notify(event)
}
