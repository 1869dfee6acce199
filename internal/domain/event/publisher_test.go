package event

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/infrastructure/monitoring"
	"github.com/legalbox/swa/internal/shared/types"
)

type recorder struct {
	events []types.Event
}

func (r *recorder) callback(evt types.Event) error {
	r.events = append(r.events, evt)
	return nil
}

func TestAddSubscriberNoDuplicates(t *testing.T) {
	p := NewPublisher(nil)
	s := NewSubscriber(nil, nil)

	p.AddSubscriber(s)
	p.AddSubscriber(s)

	assert.Equal(t, 1, p.Len())
}

func TestRemoveSubscriber(t *testing.T) {
	p := NewPublisher(nil)
	s1 := NewSubscriber(nil, nil)
	s2 := NewSubscriber(nil, nil)
	p.AddSubscriber(s1)

	p.RemoveSubscriber(s2)
	assert.Equal(t, 1, p.Len())

	p.RemoveSubscriber(s1)
	assert.Equal(t, 0, p.Len())
}

func TestPublishFiltersSubscribers(t *testing.T) {
	p := NewPublisher(nil)
	var all, one, two recorder
	p.AddSubscriber(NewSubscriber(types.Filter{}, all.callback))
	p.AddSubscriber(NewSubscriber(types.Filter{"a": 1}, one.callback))
	p.AddSubscriber(NewSubscriber(types.Filter{"a": 2}, two.callback))

	p.Publish(types.Event{"a": 1})

	assert.Len(t, all.events, 1)
	assert.Len(t, one.events, 1)
	assert.Empty(t, two.events)
}

func TestPublishInsertionOrder(t *testing.T) {
	p := NewPublisher(nil)
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		p.AddSubscriber(NewSubscriber(nil, func(types.Event) error {
			order = append(order, name)
			return nil
		}))
	}

	p.Publish(types.Event{})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestSubscriberRemovingItselfDuringNotify(t *testing.T) {
	p := NewPublisher(nil)
	calls := 0
	var self *Subscriber
	self = NewSubscriber(nil, func(types.Event) error {
		calls++
		p.RemoveSubscriber(self)
		return nil
	})
	var after recorder
	p.AddSubscriber(self)
	p.AddSubscriber(NewSubscriber(nil, after.callback))

	p.Publish(types.Event{"n": 1})
	p.Publish(types.Event{"n": 2})

	assert.Equal(t, 1, calls)
	assert.Len(t, after.events, 2, "removal must not skip the next subscriber")
}

func TestSubscriberAddedDuringNotifySeesOnlyLaterEvents(t *testing.T) {
	p := NewPublisher(nil)
	var late recorder
	added := false
	p.AddSubscriber(NewSubscriber(nil, func(types.Event) error {
		if !added {
			added = true
			p.AddSubscriber(NewSubscriber(nil, late.callback))
		}
		return nil
	}))

	p.Publish(types.Event{"n": 1})
	assert.Empty(t, late.events)

	p.Publish(types.Event{"n": 2})
	require.Len(t, late.events, 1)
	assert.Equal(t, 2, late.events[0]["n"])
}

func TestSelfResubscribeDoesNotLoop(t *testing.T) {
	p := NewPublisher(nil)
	calls := 0
	var cb Callback
	cb = func(types.Event) error {
		calls++
		p.AddSubscriber(NewSubscriber(nil, cb))
		return nil
	}
	p.AddSubscriber(NewSubscriber(nil, cb))

	p.Publish(types.Event{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, p.Len())
}

func TestReentrantPublishIsNotInterleaved(t *testing.T) {
	p := NewPublisher(nil)
	var order []string
	p.AddSubscriber(NewSubscriber(types.Filter{"name": "outer"}, func(types.Event) error {
		order = append(order, "outer-1")
		p.Publish(types.Event{"name": "inner"})
		return nil
	}))
	p.AddSubscriber(NewSubscriber(nil, func(evt types.Event) error {
		order = append(order, "all:"+evt["name"].(string))
		return nil
	}))

	p.Publish(types.Event{"name": "outer"})

	assert.Equal(t, []string{"outer-1", "all:outer", "all:inner"}, order)
}

func TestPublishIsolatesFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	p := NewPublisher(logging.NewFromCore(core)).WithMetrics(metrics)

	var s2, s3 recorder
	p.AddSubscriber(NewSubscriber(nil, func(types.Event) error { panic("s1 broke") }))
	p.AddSubscriber(NewSubscriber(nil, s2.callback))
	p.AddSubscriber(NewSubscriber(nil, func(types.Event) error { return errors.New("s3 broke") }))
	p.AddSubscriber(NewSubscriber(nil, s3.callback))

	assert.NotPanics(t, func() { p.Publish(types.Event{"a": 1}) })

	assert.Len(t, s2.events, 1)
	assert.Len(t, s3.events, 1)
	assert.Equal(t, 2, logs.FilterMessage("Subscriber failed").Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SubscriberFailures))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.Deliveries))
}

func TestSubscriberMutationDoesNotLeak(t *testing.T) {
	p := NewPublisher(nil)
	var second recorder
	p.AddSubscriber(NewSubscriber(nil, func(evt types.Event) error {
		evt["a"] = "changed"
		evt["list"].([]interface{})[0] = "changed"
		return nil
	}))
	p.AddSubscriber(NewSubscriber(nil, second.callback))

	original := types.Event{"a": "orig", "list": []interface{}{"orig"}}
	p.Publish(original)

	require.Len(t, second.events, 1)
	assert.Equal(t, "orig", second.events[0]["a"])
	assert.Equal(t, "orig", second.events[0]["list"].([]interface{})[0])
	assert.Equal(t, "orig", original["a"])
}

func TestPublishRejectsUnserializableEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	p := NewPublisher(nil).WithMetrics(metrics)
	var r recorder
	p.AddSubscriber(NewSubscriber(nil, r.callback))

	p.Publish(types.Event{"cb": func() {}})

	assert.Empty(t, r.events)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsRejected))
}
