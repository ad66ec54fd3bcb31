package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
)

func (s *Server) handleListDeleted(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}

	records, err := s.todos.ListDeleted(c.Request.Context(), email)
	if err != nil {
		serviceError(c, err)
		return
	}
	if records == nil {
		records = []models.RecentlyDeleted{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleRestore(c *gin.Context) {
	userID, email, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	todo, err := s.todos.Restore(c.Request.Context(), id, userID, email)
	if err != nil {
		serviceError(c, err)
		return
	}
	if todo == nil {
		c.JSON(http.StatusOK, gin.H{"status": "restored"})
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (s *Server) handlePermanentDelete(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.todos.PermanentDelete(c.Request.Context(), id, email); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "purged"})
}
