package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/legalbox/swa/internal/shared/types"
)

const page = `<html><body><div id="news"><p id="headline">Hello</p></div><div id="other"></div></body></html>`

func parse(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(page), nil)
	require.NoError(t, err)
	return doc
}

func TestQueryByID(t *testing.T) {
	doc := parse(t)

	news := doc.QueryByID("news")
	require.NotNil(t, news)
	assert.Equal(t, "div", news.Data)

	assert.Equal(t, "Hello", TextContent(doc.QueryByID("headline")))
	assert.Nil(t, doc.QueryByID("missing"))
	assert.Nil(t, doc.QueryByID(""))
}

func TestNewBlank(t *testing.T) {
	doc := NewBlank(nil)
	require.NotNil(t, doc.Body())
	assert.Nil(t, doc.Body().FirstChild)
}

func TestCreateElement(t *testing.T) {
	doc := NewBlank(nil)

	el := doc.CreateElement("div", map[string]string{"id": "box", "class": "a"}, doc.CreateText("hi"))
	assert.Nil(t, el.Parent)
	assert.Equal(t, "hi", TextContent(el))

	doc.Body().AppendChild(el)
	assert.Same(t, el, doc.QueryByID("box"))

	out, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, `<div class="a" id="box">hi</div>`)
}

func TestClasses(t *testing.T) {
	el := NewBlank(nil).CreateElement("div", nil)

	AddClass(el, "x")
	AddClass(el, "y")
	AddClass(el, "x")
	assert.Equal(t, []string{"x", "y"}, Classes(el))

	RemoveClass(el, "x")
	assert.Equal(t, []string{"y"}, Classes(el))

	RemoveClass(el, "y")
	_, ok := Attr(el, "class")
	assert.False(t, ok)
}

func TestDispatchBubbles(t *testing.T) {
	doc := parse(t)
	headline := doc.QueryByID("headline")
	news := doc.QueryByID("news")

	var got []string
	doc.CreateListener(headline, "click", func(evt types.Event) {
		got = append(got, "headline:"+evt["target"].(string))
	})
	doc.CreateListener(news, "click", func(evt types.Event) {
		got = append(got, "news:"+evt["type"].(string))
	})
	doc.CreateListener(news, "keyup", func(types.Event) {
		got = append(got, "keyup")
	})

	n := doc.Dispatch(headline, "click", types.Event{"x": 1})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"headline:headline", "news:click"}, got)
}

func TestDispatchSurvivesPanic(t *testing.T) {
	doc := parse(t)
	el := doc.QueryByID("news")

	called := false
	doc.CreateListener(el, "click", func(types.Event) { panic("boom") })
	doc.CreateListener(el, "click", func(types.Event) { called = true })

	assert.Equal(t, 2, doc.Dispatch(el, "click", nil))
	assert.True(t, called)
}

func TestDestroyListener(t *testing.T) {
	doc := parse(t)
	el := doc.QueryByID("news")

	a := doc.CreateListener(el, "click", func(types.Event) {})
	b := doc.CreateListener(el, "click", func(types.Event) {})
	assert.Equal(t, 2, doc.ListenerCount())

	doc.DestroyListener(a)
	doc.DestroyListener(a)
	assert.Equal(t, 1, doc.ListenerCount())

	doc.DestroyListener(b)
	doc.DestroyListener(nil)
	assert.Equal(t, 0, doc.ListenerCount())
}

func TestDestroyElement(t *testing.T) {
	doc := parse(t)
	news := doc.QueryByID("news")
	doc.CreateListener(doc.QueryByID("headline"), "click", func(types.Event) {})
	doc.CreateListener(doc.QueryByID("other"), "click", func(types.Event) {})

	doc.DestroyElement(news)

	assert.Nil(t, doc.QueryByID("news"))
	assert.Nil(t, news.Parent)
	assert.Equal(t, 1, doc.ListenerCount())
}

func TestWindowEvents(t *testing.T) {
	doc := NewBlank(nil)

	var order []string
	doc.OnLoad(func() { order = append(order, "load-1") })
	doc.OnLoad(func() { panic("boom") })
	doc.OnLoad(func() { order = append(order, "load-2") })
	doc.OnUnload(func() { order = append(order, "unload") })

	doc.FireLoad()
	doc.FireUnload()
	assert.Equal(t, []string{"load-1", "load-2", "unload"}, order)
}

func TestContains(t *testing.T) {
	doc := parse(t)
	news := doc.QueryByID("news")

	tests := []struct {
		name string
		node *html.Node
		want bool
	}{
		{"self", news, true},
		{"child", doc.QueryByID("headline"), true},
		{"ancestor", doc.Body(), false},
		{"sibling", doc.QueryByID("other"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contains(news, tt.node))
		})
	}
}
