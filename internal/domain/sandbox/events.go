package sandbox

import (
	"slices"
	"sync"

	"github.com/legalbox/swa/internal/domain/event"
	"github.com/legalbox/swa/internal/shared/types"
)

type eventsCapability struct {
	sb  *Sandbox
	bus *event.Publisher

	mu          sync.Mutex
	subscribers []*event.Subscriber // Protected by mu
}

// EventsPlugin attaches bus access scoped to the module's subscriptions
func EventsPlugin(sb *Sandbox, svc Services) {
	events := &eventsCapability{sb: sb, bus: svc.Bus}
	sb.Events = events
	sb.OnTeardown(events.UnsubscribeAll)
}

func (e *eventsCapability) Subscribe(filter types.Filter, callback event.Callback) {
	if e.bus == nil || callback == nil {
		return
	}
	s := event.NewSubscriber(filter, callback)

	e.mu.Lock()
	e.subscribers = append(e.subscribers, s)
	e.mu.Unlock()

	e.bus.AddSubscriber(s)
}

// Unsubscribe removes every subscription of this module whose filter
// includes and is included by filter
func (e *eventsCapability) Unsubscribe(filter types.Filter) {
	if e.bus == nil {
		return
	}

	var removed []*event.Subscriber
	e.mu.Lock()
	e.subscribers = slices.DeleteFunc(e.subscribers, func(s *event.Subscriber) bool {
		if event.SameFilter(s.Filter(), filter) {
			removed = append(removed, s)
			return true
		}
		return false
	})
	e.mu.Unlock()

	for _, s := range removed {
		e.bus.RemoveSubscriber(s)
	}
}

func (e *eventsCapability) Publish(evt types.Event) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(evt)
}

func (e *eventsCapability) UnsubscribeAll() {
	e.mu.Lock()
	subscribers := e.subscribers
	e.subscribers = nil
	e.mu.Unlock()

	if e.bus == nil {
		return
	}
	for _, s := range subscribers {
		e.bus.RemoveSubscriber(s)
	}
}
