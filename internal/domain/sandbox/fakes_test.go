package sandbox

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/legalbox/swa/internal/domain/event"
	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/providers/document"
	"github.com/legalbox/swa/internal/shared/id"
	"github.com/legalbox/swa/internal/testutil"
)

const testPage = `<html><body>
<div id="news"><p id="news.title" class="big">Hello #name#</p><a id="news.link" href="/#lang#">x</a></div>
<div id="other"><p id="other.title">Other</p></div>
</body></html>`

type fixture struct {
	doc       *document.Document
	bus       *event.Publisher
	scheduler *fakeScheduler
	location  *fakeLocation
	transport *testutil.MockTransport
	catalog   *fakeCatalog
	builder   *DefaultBuilder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	doc, err := document.Parse(strings.NewReader(testPage), nil)
	require.NoError(t, err)

	f := &fixture{
		doc:       doc,
		bus:       event.NewPublisher(logging.NewNop()),
		scheduler: &fakeScheduler{},
		location:  newFakeLocation(),
		transport: &testutil.MockTransport{},
		catalog:   &fakeCatalog{selected: "en", strings: map[string]string{"en/title": "Title", "fr/title": "Titre"}},
	}
	f.builder = NewBuilder(Services{
		Document:  doc,
		Factory:   doc,
		Bus:       f.bus,
		Catalog:   f.catalog,
		Transport: f.transport,
		Location:  f.location,
		Scheduler: f.scheduler,
	})
	return f
}

type fakeScheduler struct {
	mu     sync.Mutex
	tasks  []func()
	timers []*fakeTimer
}

type fakeTimer struct {
	delay   time.Duration
	task    func()
	stopped bool
}

func (s *fakeScheduler) Post(task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	return nil
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *fakeScheduler) runPending() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	for _, task := range tasks {
		task()
	}
}

func (s *fakeScheduler) AfterFunc(d time.Duration, task func()) func() bool {
	timer := &fakeTimer{delay: d, task: task}
	s.timers = append(s.timers, timer)
	return func() bool {
		wasActive := !timer.stopped
		timer.stopped = true
		return wasActive
	}
}

// fire runs every timer that was not stopped
func (s *fakeScheduler) fire() {
	for _, timer := range s.timers {
		if !timer.stopped {
			timer.stopped = true
			timer.task()
		}
	}
}

type fakeLocation struct {
	hash      string
	listeners map[id.HashListenerID]func(string)
}

func newFakeLocation() *fakeLocation {
	return &fakeLocation{listeners: make(map[id.HashListenerID]func(string))}
}

func (l *fakeLocation) String() string { return "http://example.test/page#" + l.hash }
func (l *fakeLocation) Hash() string   { return l.hash }

func (l *fakeLocation) SetHash(hash string) {
	l.hash = hash
	for _, cb := range l.listeners {
		cb(hash)
	}
}

func (l *fakeLocation) OnHashChange(callback func(string)) id.HashListenerID {
	listenerID := id.NewHashListenerID()
	l.listeners[listenerID] = callback
	return listenerID
}

func (l *fakeLocation) RemoveHashListener(listenerID id.HashListenerID) {
	delete(l.listeners, listenerID)
}

type fakeCatalog struct {
	selected string
	strings  map[string]string
}

func (c *fakeCatalog) Languages() []string { return []string{"en", "fr"} }
func (c *fakeCatalog) Selected() string    { return c.selected }

func (c *fakeCatalog) Select(code string) error {
	if code != "en" && code != "fr" {
		return errors.New("unknown language")
	}
	c.selected = code
	return nil
}

func (c *fakeCatalog) Lookup(key, lang string) (string, bool) {
	value, ok := c.strings[lang+"/"+key]
	return value, ok
}
