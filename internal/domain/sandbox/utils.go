package sandbox

import (
	"strings"
	"sync"
	"time"

	"github.com/legalbox/swa/internal/shared/id"
)

type utilsCapability struct {
	sb        *Sandbox
	scheduler Scheduler

	mu     sync.Mutex
	timers map[id.TimerID]func() bool // Protected by mu; nil while arming
}

// UtilsPlugin attaches timers, logging and small helpers
func UtilsPlugin(sb *Sandbox, svc Services) {
	u := &utilsCapability{
		sb:        sb,
		scheduler: svc.Scheduler,
		timers:    make(map[id.TimerID]func() bool),
	}
	sb.Utils = u
	sb.OnTeardown(u.clearAll)
}

func (u *utilsCapability) Has(m map[string]interface{}, key string) bool {
	_, ok := m[key]
	return ok
}

func (u *utilsCapability) Trim(s string) string {
	return strings.TrimSpace(s)
}

// GetTimestamp returns the current time in milliseconds
func (u *utilsCapability) GetTimestamp() int64 {
	return time.Now().UnixMilli()
}

// SetTimeout runs fn on the event loop after d. It returns an empty id
// when no scheduler is configured. The timer is armed outside the lock so
// a scheduler may run the task before AfterFunc returns.
func (u *utilsCapability) SetTimeout(fn func(), d time.Duration) id.TimerID {
	if u.scheduler == nil || fn == nil {
		u.sb.logger.Warn("Timer not scheduled")
		return ""
	}

	timerID := id.NewTimerID()
	u.mu.Lock()
	u.timers[timerID] = nil
	u.mu.Unlock()

	stop := u.scheduler.AfterFunc(d, func() {
		u.mu.Lock()
		_, pending := u.timers[timerID]
		delete(u.timers, timerID)
		u.mu.Unlock()
		if pending {
			fn()
		}
	})

	u.mu.Lock()
	_, pending := u.timers[timerID]
	if pending {
		u.timers[timerID] = stop
	}
	u.mu.Unlock()

	// Cleared or torn down while the timer was being armed
	if !pending {
		stop()
	}
	return timerID
}

func (u *utilsCapability) ClearTimeout(timerID id.TimerID) {
	u.mu.Lock()
	stop, ok := u.timers[timerID]
	delete(u.timers, timerID)
	u.mu.Unlock()

	if ok && stop != nil {
		stop()
	}
}

func (u *utilsCapability) Log(message string) {
	u.sb.logger.Log(message)
}

func (u *utilsCapability) clearAll() {
	u.mu.Lock()
	timers := u.timers
	u.timers = make(map[id.TimerID]func() bool)
	u.mu.Unlock()

	for _, stop := range timers {
		if stop != nil {
			stop()
		}
	}
}
