// Package testutil provides testing utilities and helpers shared by package tests.
package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/legalbox/swa/internal/infrastructure/eventloop"
	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/providers/document"
)

// MockWidget is a widget with both lifecycle phases
type MockWidget struct {
	mock.Mock
}

// Start mocks the start phase
func (m *MockWidget) Start() error {
	return m.Called().Error(0)
}

// End mocks the end phase
func (m *MockWidget) End() error {
	return m.Called().Error(0)
}

// NewMockWidget creates a widget whose phases succeed unless overridden
func NewMockWidget(t *testing.T) *MockWidget {
	t.Helper()
	m := new(MockWidget)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockTransport is a mock implementation of the server capability transport
type MockTransport struct {
	mock.Mock
}

// Post mocks the Post method.
func (m *MockTransport) Post(ctx context.Context, url string, data interface{}) (map[string]interface{}, error) {
	args := m.Called(ctx, url, data)
	response, _ := args.Get(0).(map[string]interface{})
	return response, args.Error(1)
}

// ObservedLogger returns a logger whose entries at level and above are captured
func ObservedLogger(level zapcore.Level) (*logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return logging.NewFromCore(core), logs
}

// ParsePage parses markup into a document, failing the test on error
func ParsePage(t *testing.T, markup string) *document.Document {
	t.Helper()
	doc, err := document.Parse(strings.NewReader(markup), nil)
	require.NoError(t, err)
	return doc
}

// RunLoop starts an event loop that is stopped when the test ends
func RunLoop(t *testing.T) *eventloop.Loop {
	t.Helper()
	loop := eventloop.New(nil)
	go func() { _ = loop.Run(context.Background()) }()
	t.Cleanup(loop.Stop)
	return loop
}

// Drain waits until every task posted to loop so far has run
func Drain(t *testing.T, loop *eventloop.Loop) {
	t.Helper()
	require.NoError(t, loop.Do(context.Background(), func() {}))
}
