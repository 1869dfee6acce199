package location

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/shared/id"
)

type hashListener struct {
	id       id.HashListenerID
	callback func(hash string)
}

// Location is the address of the page with hash change notification
type Location struct {
	mu        sync.RWMutex
	url       *url.URL       // Protected by mu
	listeners []hashListener // Protected by mu

	logger *logging.Logger
}

// New parses raw as the page address
func New(raw string, logger *logging.Logger) (*Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", raw, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Location{url: u, logger: logger.Named("location")}, nil
}

// String returns the full address
func (l *Location) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.url.String()
}

// Hash returns the fragment without the leading '#'
func (l *Location) Hash() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.url.Fragment
}

// Query returns the first value of the named query parameter
func (l *Location) Query(name string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.url.Query().Get(name)
}

// SetHash changes the fragment and notifies hash listeners in
// registration order when it differs from the current one
func (l *Location) SetHash(hash string) {
	hash = strings.TrimPrefix(hash, "#")

	l.mu.Lock()
	if l.url.Fragment == hash {
		l.mu.Unlock()
		return
	}
	l.url.Fragment = hash
	l.url.RawFragment = ""
	listeners := slices.Clone(l.listeners)
	l.mu.Unlock()

	for _, listener := range listeners {
		l.notify(listener, hash)
	}
}

func (l *Location) notify(listener hashListener, hash string) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Hash listener panicked",
				zap.String("listener", listener.id.String()),
				zap.Any("panic", r),
			)
		}
	}()
	listener.callback(hash)
}

// OnHashChange registers callback for hash changes
func (l *Location) OnHashChange(callback func(hash string)) id.HashListenerID {
	listenerID := id.NewHashListenerID()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, hashListener{id: listenerID, callback: callback})
	return listenerID
}

// RemoveHashListener unregisters a hash listener
func (l *Location) RemoveHashListener(listenerID id.HashListenerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = slices.DeleteFunc(l.listeners, func(h hashListener) bool {
		return h.id == listenerID
	})
}

// ListenerCount returns the number of hash listeners
func (l *Location) ListenerCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.listeners)
}
