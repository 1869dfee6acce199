package sandbox

import (
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

var placeholder = regexp.MustCompile(`#([A-Za-z0-9_.\-]+)#`)

type i18nCapability struct {
	sb      *Sandbox
	catalog Catalog
}

// I18nPlugin attaches localized string lookup
func I18nPlugin(sb *Sandbox, svc Services) {
	sb.I18n = &i18nCapability{sb: sb, catalog: svc.Catalog}
}

func (i *i18nCapability) GetLanguageList() []string {
	if i.catalog == nil {
		return nil
	}
	return i.catalog.Languages()
}

func (i *i18nCapability) GetSelectedLanguage() string {
	if i.catalog == nil {
		return ""
	}
	return i.catalog.Selected()
}

func (i *i18nCapability) SelectLanguage(code string) bool {
	if i.catalog == nil {
		return false
	}
	if err := i.catalog.Select(code); err != nil {
		i.sb.logger.Warn("Cannot select language", zap.String("lang", code), zap.Error(err))
		return false
	}
	return true
}

// GetString looks key up in lang, or in the selected language
func (i *i18nCapability) GetString(key string, lang ...string) (string, bool) {
	if i.catalog == nil {
		return "", false
	}
	code := i.catalog.Selected()
	if len(lang) > 0 && lang[0] != "" {
		code = lang[0]
	}
	return i.catalog.Lookup(key, code)
}

// FilterHTML replaces #name# placeholders in text and attribute values
// below el with the matching entry of data. Unknown names are left as is.
func (i *i18nCapability) FilterHTML(el *html.Node, data map[string]string) {
	if !i.sb.allowed("i18n", "filterHTML", el) {
		return
	}
	replace := func(s string) string {
		return placeholder.ReplaceAllStringFunc(s, func(match string) string {
			if value, ok := data[match[1:len(match)-1]]; ok {
				return value
			}
			return match
		})
	}
	filterNode(el, replace)
}

func filterNode(n *html.Node, replace func(string) string) {
	switch n.Type {
	case html.TextNode:
		n.Data = replace(n.Data)
	case html.ElementNode:
		for j := range n.Attr {
			n.Attr[j].Val = replace(n.Attr[j].Val)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		filterNode(c, replace)
	}
}
