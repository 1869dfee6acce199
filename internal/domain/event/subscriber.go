package event

import (
	"github.com/legalbox/swa/internal/shared/types"
)

// Callback receives a private copy of each matching event
type Callback func(event types.Event) error

// Subscriber pairs one filter with one callback
type Subscriber struct {
	filter   types.Filter
	callback Callback
}

// NewSubscriber stores filter and callback; the filter shape is not validated.
func NewSubscriber(filter types.Filter, callback Callback) *Subscriber {
	return &Subscriber{
		filter:   filter.Clone(),
		callback: callback,
	}
}

// Filter returns a copy of the subscriber's filter
func (s *Subscriber) Filter() types.Filter {
	return s.filter.Clone()
}

// Includes reports whether every property of filter is present in event
// with a strictly equal value. An empty filter matches every event.
func Includes(event, filter map[string]interface{}) bool {
	for key, want := range filter {
		got, ok := event[key]
		if !ok || !types.StrictEqual(got, want) {
			return false
		}
	}
	return true
}

// SameFilter reports mutual inclusion of two filters
func SameFilter(a, b types.Filter) bool {
	return Includes(a, b) && Includes(b, a)
}

// Matches reports whether the event passes the subscriber's filter
func (s *Subscriber) Matches(event types.Event) bool {
	return Includes(event, s.filter)
}

// Notify invokes the callback with a deep copy of event when it matches.
// Callback errors and panics are not contained here.
func (s *Subscriber) Notify(event types.Event) (bool, error) {
	if !s.Matches(event) {
		return false, nil
	}
	if s.callback == nil {
		return true, nil
	}
	return true, s.callback(event.Clone())
}
