package server

import (
	"io"

	"github.com/gin-gonic/gin"
)

// handleEvents streams table change events to the client over SSE,
// filtered by the hub to the caller's email.
func (s *Server) handleEvents(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}

	sub := s.hub.Subscribe(email)
	defer s.hub.Unsubscribe(sub.ID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-sub.Events:
			if !open {
				return false
			}
			c.SSEvent("change", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
