package sandbox

import (
	"context"
	"time"

	"golang.org/x/net/html"

	"github.com/legalbox/swa/internal/domain/event"
	"github.com/legalbox/swa/internal/providers/document"
	"github.com/legalbox/swa/internal/shared/id"
	"github.com/legalbox/swa/internal/shared/types"
)

// DocumentService resolves elements of the page
type DocumentService interface {
	QueryByID(elementID string) *html.Node
	Body() *html.Node
}

// ElementFactory creates elements and DOM listeners
type ElementFactory interface {
	CreateElement(tag string, attrs map[string]string, children ...*html.Node) *html.Node
	CreateListener(el *html.Node, eventType string, callback func(types.Event)) *document.Listener
	DestroyListener(l *document.Listener)
}

// ElementInitializer is an optional factory hook run on the box before start
type ElementInitializer interface {
	InitElement(el *html.Node)
}

// ElementDestroyer is an optional factory hook run on the box after end.
// It tears down the box and any widgets nested in it.
type ElementDestroyer interface {
	DisposeElement(el *html.Node)
}

// Catalog looks up localized strings
type Catalog interface {
	Languages() []string
	Selected() string
	Select(code string) error
	Lookup(key, lang string) (string, bool)
}

// Transport posts data to the server
type Transport interface {
	Post(ctx context.Context, url string, data interface{}) (map[string]interface{}, error)
}

// Location exposes the page address and its hash
type Location interface {
	String() string
	Hash() string
	SetHash(hash string)
	OnHashChange(callback func(hash string)) id.HashListenerID
	RemoveHashListener(listenerID id.HashListenerID)
}

// Scheduler runs tasks on the event loop
type Scheduler interface {
	Post(task func()) error
	AfterFunc(d time.Duration, task func()) func() bool
}

// CSSCapability manages classes of elements inside the box
type CSSCapability interface {
	GetClasses(el *html.Node) map[string]bool
	AddClass(el *html.Node, name string)
	RemoveClass(el *html.Node, name string)
}

// DOMCapability queries and changes elements inside the box
type DOMCapability interface {
	ByID(localID string) *html.Node
	Element(tag string, attrs map[string]string, children ...*html.Node) *html.Node
	Append(parent, child *html.Node)
	Find(selector string) []*html.Node
	XPath(expr string) []*html.Node
	SetHTML(el *html.Node, markup string)
	AddListener(el *html.Node, eventType string, callback func(types.Event)) *document.Listener
	RemoveListener(l *document.Listener)
	RemoveAllListeners()
	ListenerCount() int
}

// EventsCapability mediates access to the bus
type EventsCapability interface {
	Subscribe(filter types.Filter, callback event.Callback)
	Unsubscribe(filter types.Filter)
	Publish(evt types.Event)
	UnsubscribeAll()
}

// I18nCapability reads localized strings
type I18nCapability interface {
	GetLanguageList() []string
	GetSelectedLanguage() string
	SelectLanguage(code string) bool
	GetString(key string, lang ...string) (string, bool)
	FilterHTML(el *html.Node, data map[string]string)
}

// ServerCapability talks to the application server
type ServerCapability interface {
	Send(url string, data interface{}, receive func(types.Event))
}

// URLCapability reads and changes the page location
type URLCapability interface {
	GetLocation() string
	GetHash() string
	SetHash(hash string)
	OnHashChange(callback func(hash string))
}

// UtilsCapability groups general helpers
type UtilsCapability interface {
	Has(m map[string]interface{}, key string) bool
	Trim(s string) string
	GetTimestamp() int64
	SetTimeout(fn func(), d time.Duration) id.TimerID
	ClearTimeout(timerID id.TimerID)
	Log(message string)
}
