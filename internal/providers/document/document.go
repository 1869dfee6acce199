package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/shared/id"
	"github.com/legalbox/swa/internal/shared/types"
)

var ErrNoBody = errors.New("document has no body element")

const blankPage = "<!DOCTYPE html><html><head></head><body></body></html>"

// Document is the page tree plus its listener registry and window events
type Document struct {
	mu        sync.RWMutex
	root      *html.Node
	body      *html.Node
	listeners map[*html.Node][]*Listener // Protected by mu
	onLoad    []func()                   // Protected by mu
	onUnload  []func()                   // Protected by mu

	logger *logging.Logger
}

// Parse reads an HTML page
func Parse(r io.Reader, logger *logging.Logger) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	body := htmlquery.FindOne(root, "//body")
	if body == nil {
		return nil, ErrNoBody
	}

	if logger == nil {
		logger = logging.NewNop()
	}
	return &Document{
		root:      root,
		body:      body,
		listeners: make(map[*html.Node][]*Listener),
		logger:    logger.Named("document"),
	}, nil
}

// NewBlank creates an empty page
func NewBlank(logger *logging.Logger) *Document {
	doc, err := Parse(strings.NewReader(blankPage), logger)
	if err != nil {
		panic(err) // blankPage is a constant
	}
	return doc
}

// Root returns the document node
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the body element
func (d *Document) Body() *html.Node {
	return d.body
}

// QueryByID returns the element with the given id attribute, or nil
func (d *Document) QueryByID(elementID string) *html.Node {
	if elementID == "" {
		return nil
	}
	return findByID(d.root, elementID)
}

func findByID(n *html.Node, elementID string) *html.Node {
	if n.Type == html.ElementNode {
		if value, ok := Attr(n, "id"); ok && value == elementID {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, elementID); found != nil {
			return found
		}
	}
	return nil
}

// CreateElement builds a detached element with attributes and children
func (d *Document) CreateElement(tag string, attrs map[string]string, children ...*html.Node) *html.Node {
	el := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for _, key := range sortedKeys(attrs) {
		el.Attr = append(el.Attr, html.Attribute{Key: key, Val: attrs[key]})
	}
	for _, child := range children {
		if child == nil {
			continue
		}
		if child.Parent != nil {
			child.Parent.RemoveChild(child)
		}
		el.AppendChild(child)
	}
	return el
}

// CreateText builds a detached text node
func (d *Document) CreateText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// DestroyElement drops listeners on el and its descendants and detaches it
func (d *Document) DestroyElement(el *html.Node) {
	if el == nil {
		return
	}

	d.mu.Lock()
	walk(el, func(n *html.Node) {
		delete(d.listeners, n)
	})
	d.mu.Unlock()

	if el.Parent != nil {
		el.Parent.RemoveChild(el)
	}
}

// HTML renders the whole page
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// OuterHTML renders a single node
func OuterHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	return htmlquery.OutputHTML(n, true)
}

// OnLoad registers a page load handler
func (d *Document) OnLoad(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onLoad = append(d.onLoad, fn)
}

// OnUnload registers a page unload handler
func (d *Document) OnUnload(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onUnload = append(d.onUnload, fn)
}

// FireLoad runs the load handlers in registration order
func (d *Document) FireLoad() {
	d.mu.RLock()
	handlers := append([]func(){}, d.onLoad...)
	d.mu.RUnlock()
	d.fire("load", handlers)
}

// FireUnload runs the unload handlers in registration order
func (d *Document) FireUnload() {
	d.mu.RLock()
	handlers := append([]func(){}, d.onUnload...)
	d.mu.RUnlock()
	d.fire("unload", handlers)
}

func (d *Document) fire(name string, handlers []func()) {
	for _, fn := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("Window handler panicked", zap.String("event", name), zap.Any("panic", r))
				}
			}()
			fn()
		}()
	}
}

// Listener is a DOM listener registered on one element
type Listener struct {
	id       id.ListenerID
	element  *html.Node
	kind     string
	callback func(types.Event)
}

// ID returns the listener handle
func (l *Listener) ID() id.ListenerID { return l.id }

// Element returns the element the listener is attached to
func (l *Listener) Element() *html.Node { return l.element }

// Type returns the DOM event type
func (l *Listener) Type() string { return l.kind }

// CreateListener attaches callback for eventType on el
func (d *Document) CreateListener(el *html.Node, eventType string, callback func(types.Event)) *Listener {
	l := &Listener{
		id:       id.NewListenerID(),
		element:  el,
		kind:     eventType,
		callback: callback,
	}

	d.mu.Lock()
	d.listeners[el] = append(d.listeners[el], l)
	d.mu.Unlock()
	return l
}

// DestroyListener detaches l; unknown listeners are ignored
func (d *Document) DestroyListener(l *Listener) {
	if l == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	list := d.listeners[l.element]
	for i, existing := range list {
		if existing == l {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(d.listeners, l.element)
	} else {
		d.listeners[l.element] = list
	}
}

// ListenerCount returns the number of registered listeners
func (d *Document) ListenerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	count := 0
	for _, list := range d.listeners {
		count += len(list)
	}
	return count
}

// Dispatch delivers a DOM event to listeners on el and then on each
// ancestor. Every listener gets its own copy of payload with "type" and
// "target" set. It returns the number of listeners invoked.
func (d *Document) Dispatch(el *html.Node, eventType string, payload types.Event) int {
	var targetID string
	if el != nil {
		targetID, _ = Attr(el, "id")
	}

	invoked := 0
	for n := el; n != nil; n = n.Parent {
		d.mu.RLock()
		list := append([]*Listener{}, d.listeners[n]...)
		d.mu.RUnlock()

		for _, l := range list {
			if l.kind != eventType || l.callback == nil {
				continue
			}
			evt := payload.Clone()
			if evt == nil {
				evt = types.Event{}
			}
			evt["type"] = eventType
			evt["target"] = targetID
			d.invoke(l, evt)
			invoked++
		}
	}
	return invoked
}

func (d *Document) invoke(l *Listener, evt types.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Listener panicked",
				zap.String("listener", l.id.String()),
				zap.String("type", l.kind),
				zap.Any("panic", r),
			)
		}
	}()
	l.callback(evt)
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
