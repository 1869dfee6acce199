// Package event implements the publish/subscribe bus that decouples modules.
//
// A Subscriber owns one (filter, callback) pair. An event matches a filter
// when every filter property is present in the event with a strictly equal
// value; the empty filter matches everything. Matching subscribers receive a
// deep copy of the event, so a callback may mutate what it receives without
// affecting other subscribers or the publisher.
//
// Publisher.Publish iterates a snapshot of the subscriber list taken when the
// call starts. Callbacks may add or remove subscribers (including
// themselves); those changes apply to the next delivery. An event published
// from inside a callback is queued until the current event has reached every
// subscriber, so deliveries never interleave. A callback that
// returns an error or panics is logged and the remaining subscribers are
// still notified.
//
//	bus := event.NewPublisher(logger)
//	bus.AddSubscriber(event.NewSubscriber(types.Filter{"name": "search"}, onSearch))
//	bus.Publish(types.Event{"name": "search", "query": "lease"})
package event
