package sandbox

import (
	"sync"

	"github.com/legalbox/swa/internal/shared/id"
)

type urlCapability struct {
	sb       *Sandbox
	location Location

	mu        sync.Mutex
	listeners []id.HashListenerID // Protected by mu
}

// URLPlugin attaches location access
func URLPlugin(sb *Sandbox, svc Services) {
	u := &urlCapability{sb: sb, location: svc.Location}
	sb.URL = u
	sb.OnTeardown(u.release)
}

func (u *urlCapability) GetLocation() string {
	if u.location == nil {
		return ""
	}
	return u.location.String()
}

func (u *urlCapability) GetHash() string {
	if u.location == nil {
		return ""
	}
	return u.location.Hash()
}

func (u *urlCapability) SetHash(hash string) {
	if u.location == nil {
		return
	}
	u.location.SetHash(hash)
}

func (u *urlCapability) OnHashChange(callback func(hash string)) {
	if u.location == nil || callback == nil {
		return
	}
	listenerID := u.location.OnHashChange(callback)

	u.mu.Lock()
	u.listeners = append(u.listeners, listenerID)
	u.mu.Unlock()
}

func (u *urlCapability) release() {
	u.mu.Lock()
	listeners := u.listeners
	u.listeners = nil
	u.mu.Unlock()

	for _, listenerID := range listeners {
		u.location.RemoveHashListener(listenerID)
	}
}
