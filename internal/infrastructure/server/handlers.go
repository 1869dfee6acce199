package server

import (
	"errors"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/shared/types"
)

var errElementNotFound = errors.New("element not found")

func (s *Server) page(c *gin.Context) {
	var (
		markup string
		err    error
	)
	if doErr := s.loop.Do(c.Request.Context(), func() {
		markup, err = s.doc.HTML()
	}); doErr != nil {
		err = doErr
	}
	if err != nil {
		s.logger.Error("Failed to render page", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"stats":  s.app.Stats(),
	})
}

func (s *Server) modules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"modules": s.app.Info()})
}

func (s *Server) publish(c *gin.Context) {
	evt, err := readEvent(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(evt) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event is empty"})
		return
	}

	if err := s.run(c.Request.Context(), func() {
		s.app.Bus().Publish(evt)
	}); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "published"})
}

func (s *Server) dispatch(c *gin.Context) {
	elementID := c.Param("id")
	eventType := c.Param("type")

	payload, err := readEvent(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var delivered int
	if doErr := s.run(c.Request.Context(), func() {
		el := s.doc.QueryByID(elementID)
		if el == nil {
			err = errElementNotFound
			return
		}
		delivered = s.doc.Dispatch(el, eventType, payload)
	}); doErr != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": doErr.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "id": elementID})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listeners": delivered})
}

// readEvent decodes an optional JSON object body
func readEvent(c *gin.Context) (types.Event, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return types.Event{}, nil
	}

	var evt types.Event
	if err := sonic.Unmarshal(body, &evt); err != nil {
		return nil, err
	}
	if evt == nil {
		evt = types.Event{}
	}
	return evt, nil
}
