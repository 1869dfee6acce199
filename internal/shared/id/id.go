// Package id provides handle generation for sandbox resources.
//
// Handles are prefixed ULIDs so logs show what a handle refers to:
//   - lsn_*: DOM listeners created through a sandbox
//   - tmr_*: timers created through the utils capability
//   - sub_*: event subscriptions
//   - hash_*: hash change listeners
//   - trc_*, spn_*: request traces and spans of the HTTP host
//
// ULIDs sort by creation time, which keeps listener registries in
// registration order when they are listed.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ListenerID identifies a DOM listener
type ListenerID string

// TimerID identifies a pending timeout
type TimerID string

// SubscriptionID identifies an event subscription
type SubscriptionID string

// HashListenerID identifies a hash change listener
type HashListenerID string

const (
	ListenerPrefix     = "lsn"
	TimerPrefix        = "tmr"
	SubscriptionPrefix = "sub"
	HashListenerPrefix = "hash"
	TracePrefix        = "trc"
	SpanPrefix         = "spn"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewListenerID generates a new DOM listener handle
func NewListenerID() ListenerID {
	return ListenerID(Default().GenerateWithPrefix(ListenerPrefix))
}

// NewTimerID generates a new timer handle
func NewTimerID() TimerID {
	return TimerID(Default().GenerateWithPrefix(TimerPrefix))
}

// NewSubscriptionID generates a new subscription handle
func NewSubscriptionID() SubscriptionID {
	return SubscriptionID(Default().GenerateWithPrefix(SubscriptionPrefix))
}

// NewHashListenerID generates a new hash listener handle
func NewHashListenerID() HashListenerID {
	return HashListenerID(Default().GenerateWithPrefix(HashListenerPrefix))
}

// NewTraceID generates a new request trace id
func NewTraceID() string {
	return Default().GenerateWithPrefix(TracePrefix)
}

// NewSpanID generates a new span id
func NewSpanID() string {
	return Default().GenerateWithPrefix(SpanPrefix)
}

func (id ListenerID) String() string     { return string(id) }
func (id TimerID) String() string        { return string(id) }
func (id SubscriptionID) String() string { return string(id) }
func (id HashListenerID) String() string { return string(id) }

// IsValid checks if a string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}
