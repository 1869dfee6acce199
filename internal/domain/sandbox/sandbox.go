package sandbox

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/infrastructure/monitoring"
	"github.com/legalbox/swa/internal/providers/document"
)

// Sandbox is the capability surface handed to one module
type Sandbox struct {
	id       string
	document DocumentService
	factory  ElementFactory
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	box       *html.Node // Protected by mu
	teardowns []func()   // Protected by mu

	CSS    CSSCapability
	DOM    DOMCapability
	Events EventsCapability
	I18n   I18nCapability
	Server ServerCapability
	URL    URLCapability
	Utils  UtilsCapability
}

// New creates a bare sandbox without capability groups
func New(moduleID string, doc DocumentService, factory ElementFactory, logger *logging.Logger, metrics *monitoring.Metrics) *Sandbox {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sandbox{
		id:       moduleID,
		document: doc,
		factory:  factory,
		logger:   logger.ForModule(moduleID),
		metrics:  metrics,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// GetID returns the module id, or the namespaced id of a child element
func (s *Sandbox) GetID(localID ...string) string {
	if len(localID) == 0 || localID[0] == "" {
		return s.id
	}
	return s.id + "." + localID[0]
}

// GetBox returns the root element of the module. When the element is not
// in the page and create is set, an empty div is appended to the body.
func (s *Sandbox) GetBox(create bool) *html.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.box != nil {
		return s.box
	}
	if s.document == nil {
		return nil
	}
	if box := s.document.QueryByID(s.id); box != nil {
		s.box = box
		return box
	}
	if !create {
		return nil
	}

	body := s.document.Body()
	if body == nil {
		s.logger.Warn("Cannot create box without a body")
		return nil
	}

	box := s.newBox()
	body.AppendChild(box)
	s.logger.Warn("Box not found, created at end of body", zap.String("box", s.id))
	s.box = box
	return box
}

func (s *Sandbox) newBox() *html.Node {
	attrs := map[string]string{"id": s.id}
	if s.factory != nil {
		return s.factory.CreateElement("div", attrs)
	}
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "id", Val: s.id}},
	}
}

// IsInBox reports whether el is the box or one of its descendants
func (s *Sandbox) IsInBox(el *html.Node) bool {
	if el == nil {
		return false
	}
	return document.Contains(s.GetBox(false), el)
}

// Logger returns the module logger
func (s *Sandbox) Logger() *logging.Logger {
	return s.logger
}

// Context is cancelled when the sandbox is torn down
func (s *Sandbox) Context() context.Context {
	return s.ctx
}

// allowed is the containment guard shared by capability groups
func (s *Sandbox) allowed(capability, operation string, el *html.Node) bool {
	if s.IsInBox(el) {
		return true
	}
	s.logger.Warn("Element outside of box",
		zap.String("capability", capability),
		zap.String("operation", operation),
	)
	s.metrics.RecordContainmentViolation(capability)
	return false
}

// OnTeardown registers cleanup run when the module ends
func (s *Sandbox) OnTeardown(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardowns = append(s.teardowns, fn)
}

// Teardown runs registered cleanup in reverse order. Later calls are no-ops.
func (s *Sandbox) Teardown() {
	s.cancel()

	s.mu.Lock()
	teardowns := s.teardowns
	s.teardowns = nil
	s.mu.Unlock()

	for i := len(teardowns) - 1; i >= 0; i-- {
		s.runTeardown(teardowns[i])
	}
}

func (s *Sandbox) runTeardown(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Teardown panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
