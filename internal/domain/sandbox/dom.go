package sandbox

import (
	"slices"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/legalbox/swa/internal/providers/document"
	"github.com/legalbox/swa/internal/shared/types"
)

type domCapability struct {
	sb      *Sandbox
	factory ElementFactory
	policy  *bluemonday.Policy

	mu        sync.Mutex
	listeners []*document.Listener // Protected by mu
}

// DOMPlugin attaches element queries and listener management
func DOMPlugin(sb *Sandbox, svc Services) {
	dom := &domCapability{
		sb:      sb,
		factory: svc.Factory,
		policy:  bluemonday.UGCPolicy(),
	}
	sb.DOM = dom
	sb.OnTeardown(dom.RemoveAllListeners)
}

func (d *domCapability) ByID(localID string) *html.Node {
	if d.sb.document == nil {
		return nil
	}
	el := d.sb.document.QueryByID(d.sb.GetID(localID))
	if el == nil || !d.sb.allowed("dom", "byId", el) {
		return nil
	}
	return el
}

func (d *domCapability) Element(tag string, attrs map[string]string, children ...*html.Node) *html.Node {
	if d.factory == nil {
		d.sb.logger.Warn("No element factory configured")
		return nil
	}
	return d.factory.CreateElement(tag, attrs, children...)
}

func (d *domCapability) Append(parent, child *html.Node) {
	if child == nil || !d.sb.allowed("dom", "append", parent) {
		return
	}
	if child.Parent != nil {
		// moving an element out of another box is not allowed
		if !d.sb.allowed("dom", "append", child) {
			return
		}
		child.Parent.RemoveChild(child)
	}
	parent.AppendChild(child)
}

func (d *domCapability) Find(selector string) []*html.Node {
	box := d.sb.GetBox(false)
	if box == nil {
		return nil
	}
	return goquery.NewDocumentFromNode(box).Find(selector).Nodes
}

func (d *domCapability) XPath(expr string) []*html.Node {
	box := d.sb.GetBox(false)
	if box == nil {
		return nil
	}

	nodes, err := htmlquery.QueryAll(box, expr)
	if err != nil {
		d.sb.logger.Warn("Invalid XPath expression", zap.String("expr", expr), zap.Error(err))
		return nil
	}
	// absolute expressions may escape the box
	return slices.DeleteFunc(nodes, func(n *html.Node) bool {
		return !d.sb.IsInBox(n)
	})
}

func (d *domCapability) SetHTML(el *html.Node, markup string) {
	if !d.sb.allowed("dom", "setHTML", el) {
		return
	}
	if el.Type != html.ElementNode {
		return
	}

	nodes, err := html.ParseFragment(strings.NewReader(d.policy.Sanitize(markup)), el)
	if err != nil {
		d.sb.logger.Warn("Invalid markup", zap.Error(err))
		return
	}

	document.RemoveChildren(el)
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		el.AppendChild(n)
	}
}

func (d *domCapability) AddListener(el *html.Node, eventType string, callback func(types.Event)) *document.Listener {
	if !d.sb.allowed("dom", "addListener", el) {
		return nil
	}
	if d.factory == nil {
		d.sb.logger.Warn("No element factory configured")
		return nil
	}

	l := d.factory.CreateListener(el, eventType, callback)
	d.mu.Lock()
	d.listeners = append(d.listeners, l)
	d.mu.Unlock()
	return l
}

func (d *domCapability) RemoveListener(l *document.Listener) {
	if l == nil {
		return
	}

	d.mu.Lock()
	idx := slices.Index(d.listeners, l)
	if idx >= 0 {
		d.listeners = slices.Delete(d.listeners, idx, idx+1)
	}
	d.mu.Unlock()

	if idx >= 0 {
		d.factory.DestroyListener(l)
	}
}

func (d *domCapability) RemoveAllListeners() {
	d.mu.Lock()
	listeners := d.listeners
	d.listeners = nil
	d.mu.Unlock()

	for _, l := range listeners {
		d.factory.DestroyListener(l)
	}
}

func (d *domCapability) ListenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}
