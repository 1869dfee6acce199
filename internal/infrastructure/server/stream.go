package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/domain/event"
	"github.com/legalbox/swa/internal/shared/types"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// stream forwards bus events matching the filter query parameter to a
// websocket client. Clients may publish with {"type":"publish","event":{}}.
func (s *Server) stream(c *gin.Context) {
	filter := types.Filter{}
	if raw := c.Query("filter"); raw != "" {
		if err := sonic.UnmarshalString(raw, &filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter: " + err.Error()})
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.metrics.IncWSConnections()
	defer s.metrics.DecWSConnections()

	out := make(chan types.WSMessage, s.config.StreamBuffer)
	enqueue := func(msg types.WSMessage) {
		select {
		case out <- msg:
		default:
			s.logger.Debug("Dropping stream frame for slow client", zap.String("type", msg.Type))
		}
	}

	sub := event.NewSubscriber(filter, func(evt types.Event) error {
		enqueue(types.WSMessage{Type: "event", Event: evt})
		return nil
	})
	ctx := c.Request.Context()
	if err := s.loop.Do(ctx, func() { s.app.Bus().AddSubscriber(sub) }); err != nil {
		s.logger.Warn("Failed to subscribe stream", zap.Error(err))
		return
	}
	defer func() {
		cleanup, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		_ = s.loop.Do(cleanup, func() { s.app.Bus().RemoveSubscriber(sub) })
	}()

	closed := make(chan struct{})
	go s.readFrames(ctx, conn, enqueue, closed)

	enqueue(types.WSMessage{Type: "system"})
	for {
		select {
		case msg := <-out:
			payload, err := sonic.Marshal(msg)
			if err != nil {
				s.logger.Warn("Failed to encode stream frame", zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.logger.Debug("WebSocket write failed", zap.Error(err))
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

// readFrames handles client frames. Publishes continue the trace of the
// upgrade request.
func (s *Server) readFrames(ctx context.Context, conn *websocket.Conn, reply func(types.WSMessage), closed chan<- struct{}) {
	defer close(closed)
	ctx = context.WithoutCancel(ctx)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg types.WSMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			reply(types.WSMessage{Type: "error", Error: "invalid message"})
			continue
		}

		switch msg.Type {
		case "ping":
			reply(types.WSMessage{Type: "pong"})
		case "publish":
			if len(msg.Event) == 0 {
				reply(types.WSMessage{Type: "error", Error: "event is empty"})
				continue
			}
			evt := msg.Event
			if err := s.run(ctx, func() { s.app.Bus().Publish(evt) }); err != nil {
				reply(types.WSMessage{Type: "error", Error: err.Error()})
			}
		default:
			reply(types.WSMessage{Type: "error", Error: "unknown message type"})
		}
	}
}
