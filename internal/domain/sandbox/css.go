package sandbox

import (
	"golang.org/x/net/html"

	"github.com/legalbox/swa/internal/providers/document"
)

type cssCapability struct {
	sb *Sandbox
}

// CSSPlugin attaches class management
func CSSPlugin(sb *Sandbox, _ Services) {
	sb.CSS = &cssCapability{sb: sb}
}

func (c *cssCapability) GetClasses(el *html.Node) map[string]bool {
	classes := make(map[string]bool)
	if !c.sb.allowed("css", "getClasses", el) {
		return classes
	}
	for _, name := range document.Classes(el) {
		classes[name] = true
	}
	return classes
}

func (c *cssCapability) AddClass(el *html.Node, name string) {
	if !c.sb.allowed("css", "addClass", el) {
		return
	}
	document.AddClass(el, name)
}

func (c *cssCapability) RemoveClass(el *html.Node, name string) {
	if !c.sb.allowed("css", "removeClass", el) {
		return
	}
	document.RemoveClass(el, name)
}
