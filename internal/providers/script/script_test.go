package script

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalbox/swa/internal/domain/event"
	"github.com/legalbox/swa/internal/domain/module"
	"github.com/legalbox/swa/internal/domain/sandbox"
	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/providers/document"
	"github.com/legalbox/swa/internal/providers/i18n"
	"github.com/legalbox/swa/internal/providers/location"
	"github.com/legalbox/swa/internal/shared/types"
)

type fixture struct {
	doc     *document.Document
	bus     *event.Publisher
	loc     *location.Location
	builder *sandbox.DefaultBuilder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	doc, err := document.Parse(strings.NewReader(
		`<html><body><div id="weather"><span id="weather.city">?</span></div></body></html>`), nil)
	require.NoError(t, err)

	loc, err := location.New("http://example.test/#home", nil)
	require.NoError(t, err)

	catalog := i18n.NewCatalog("en", nil)
	catalog.Add("en", map[string]string{"title": "Weather"})
	catalog.Add("fr", map[string]string{"title": "Météo"})

	bus := event.NewPublisher(logging.NewNop())
	return &fixture{
		doc: doc,
		bus: bus,
		loc: loc,
		builder: sandbox.NewBuilder(sandbox.Services{
			Document: doc,
			Factory:  doc,
			Bus:      bus,
			Catalog:  catalog,
			Location: loc,
		}),
	}
}

func (f *fixture) module(t *testing.T, id, code string, config Config) *module.Module {
	t.Helper()
	return module.New(id, Creator(Source{ID: id, Name: id + ".js", Code: code}, config, nil), module.Env{
		DefaultBuilder: f.builder,
		DefaultFactory: f.doc,
	})
}

func TestScriptSubscribesAndRenders(t *testing.T) {
	f := newFixture(t)
	m := f.module(t, "weather", `
		function create(sandbox) {
			return {
				start: function () {
					sandbox.events.subscribe({topic: "weather"}, function (evt) {
						sandbox.dom.setText("city", evt.city + " " + evt.temp);
						sandbox.dom.addClass("city", "loaded");
					});
				},
				end: function () {
					sandbox.dom.setText("city", "bye");
				}
			};
		}`, DefaultConfig())

	m.Start()
	require.Equal(t, types.StateStarted, m.State())
	assert.Equal(t, 1, f.bus.Len())

	f.bus.Publish(types.Event{"topic": "weather", "city": "Paris", "temp": 21})
	city := f.doc.QueryByID("weather.city")
	assert.Equal(t, "Paris 21", document.TextContent(city))
	assert.Equal(t, []string{"loaded"}, document.Classes(city))

	f.bus.Publish(types.Event{"topic": "news", "city": "Rome"})
	assert.Equal(t, "Paris 21", document.TextContent(city))

	m.End()
	assert.Equal(t, types.StateEnded, m.State())
	assert.Equal(t, "bye", document.TextContent(city))
	assert.Equal(t, 0, f.bus.Len())
}

func TestScriptPublishesToGoSubscriber(t *testing.T) {
	f := newFixture(t)

	var got types.Event
	f.bus.AddSubscriber(event.NewSubscriber(types.Filter{"topic": "hello"}, func(evt types.Event) error {
		got = evt
		return nil
	}))

	m := f.module(t, "weather", `
		function create(sandbox) {
			return {
				start: function () {
					sandbox.events.publish({
						topic: "hello",
						from: sandbox.getId(),
						child: sandbox.getId("city"),
						title: sandbox.i18n.getString("title", "fr"),
						missing: sandbox.i18n.getString("nothing"),
						hash: sandbox.url.getHash()
					});
				}
			};
		}`, DefaultConfig())

	m.Start()
	require.NotNil(t, got)
	assert.Equal(t, "weather", got["from"])
	assert.Equal(t, "weather.city", got["child"])
	assert.Equal(t, "Météo", got["title"])
	assert.Nil(t, got["missing"])
	assert.Equal(t, "home", got["hash"])
}

func TestScriptDOMListener(t *testing.T) {
	f := newFixture(t)
	m := f.module(t, "weather", `
		function create(sandbox) {
			return {
				start: function () {
					sandbox.dom.on("city", "click", function (evt) {
						sandbox.url.setHash("clicked-" + evt.target);
					});
				}
			};
		}`, DefaultConfig())

	m.Start()
	f.doc.Dispatch(f.doc.QueryByID("weather.city"), "click", nil)
	assert.Equal(t, "clicked-weather.city", f.loc.Hash())

	m.End()
	assert.Equal(t, 0, f.doc.ListenerCount())
}

func TestScriptLifecycleReceivesWidget(t *testing.T) {
	f := newFixture(t)
	m := f.module(t, "weather", `
		function create(sandbox) {
			return {
				label: "ready",
				start: function () { sandbox.dom.setText("city", this.label); }
			};
		}`, DefaultConfig())

	m.Start()
	require.Equal(t, types.StateStarted, m.State())
	assert.Equal(t, "ready", document.TextContent(f.doc.QueryByID("weather.city")))
}

func TestScriptWithoutLifecycle(t *testing.T) {
	f := newFixture(t)
	m := f.module(t, "weather", `function create(sandbox) { return {}; }`, DefaultConfig())

	m.Start()
	assert.Equal(t, types.StateStarted, m.State())
	m.End()
	assert.Equal(t, types.StateEnded, m.State())
}

func TestScriptCreationFailures(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"syntax error", `function create(sandbox) {`},
		{"no create", `var x = 1;`},
		{"create throws", `function create(sandbox) { throw new Error("bad"); }`},
		{"host globals removed", `function create(sandbox) { return require("fs"); }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			m := f.module(t, "weather", tt.code, DefaultConfig())
			assert.Equal(t, types.StateFailed, m.State())
			assert.Error(t, m.Err())
		})
	}
}

func TestScriptTimeout(t *testing.T) {
	f := newFixture(t)
	config := DefaultConfig()
	config.Timeout = 50 * time.Millisecond

	m := f.module(t, "weather", `
		function create(sandbox) {
			return { start: function () { for (;;) {} } };
		}`, config)

	m.Start()
	assert.Equal(t, types.StateFailed, m.State())
	assert.ErrorIs(t, m.Err(), ErrTimeout)
}

func TestScriptSubscriberErrorIsIsolated(t *testing.T) {
	f := newFixture(t)
	m := f.module(t, "weather", `
		function create(sandbox) {
			return {
				start: function () {
					sandbox.events.subscribe({}, function () { throw new Error("bad subscriber"); });
				}
			};
		}`, DefaultConfig())
	m.Start()

	called := false
	f.bus.AddSubscriber(event.NewSubscriber(types.Filter{}, func(types.Event) error {
		called = true
		return nil
	}))

	assert.NotPanics(t, func() { f.bus.Publish(types.Event{"a": 1}) })
	assert.True(t, called)
}

func TestCreatorWithoutSandbox(t *testing.T) {
	widget, err := Creator(Source{Name: "x.js", Code: `
		function create(sandbox) { return { start: function () { return sandbox === null; } }; }`},
		DefaultConfig(), nil)(nil)

	require.NoError(t, err)
	_, ok := widget.(module.Starter)
	assert.True(t, ok)
	_, ok = widget.(module.Ender)
	assert.False(t, ok)
}

func TestDiscoverFS(t *testing.T) {
	fsys := fstest.MapFS{
		"weather.js":       {Data: []byte("// weather")},
		"widgets/news.js":  {Data: []byte("// news")},
		"widgets/notes.md": {Data: []byte("ignored")},
	}

	sources, err := DiscoverFS(fsys, "")
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, Source{ID: "weather", Name: "weather.js", Code: "// weather"}, sources[0])
	assert.Equal(t, "news", sources[1].ID)
	assert.Equal(t, "widgets/news.js", sources[1].Name)

	_, err = DiscoverFS(fsys, "[")
	assert.Error(t, err)
}
