package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/todos"
)

type createTodoRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority"`
}

type updateTodoRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Completed   *bool      `json:"completed"`
	Category    *string    `json:"category"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    *string    `json:"priority"`
}

func (s *Server) handleListTodos(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}

	list, err := s.todos.ListForUser(c.Request.Context(), email)
	if err != nil {
		serviceError(c, err)
		return
	}
	if list == nil {
		list = []models.Todo{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleCreateTodo(c *gin.Context) {
	userID, email, ok := identity(c)
	if !ok {
		return
	}

	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if req.Priority != "" && !models.ValidPriority(req.Priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be low, medium or high"})
		return
	}

	todo, err := s.todos.Create(c.Request.Context(), userID, email, todos.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

func (s *Server) handleGetTodo(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	todo, err := s.todos.Get(c.Request.Context(), id, email)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (s *Server) handleUpdateTodo(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Priority != nil && !models.ValidPriority(*req.Priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be low, medium or high"})
		return
	}

	todo, err := s.todos.Update(c.Request.Context(), id, email, todos.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Category:    req.Category,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (s *Server) handleToggleTodo(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	todo, err := s.todos.Toggle(c.Request.Context(), id, email)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (s *Server) handleDeleteTodo(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.todos.Delete(c.Request.Context(), id, email); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// handleAssist generates assistant content for the todo and stores it
// on the row. The assistant client itself never fails; only the todo
// lookup or the store can.
func (s *Server) handleAssist(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	todo, err := s.todos.Get(c.Request.Context(), id, email)
	if err != nil {
		serviceError(c, err)
		return
	}

	content := s.assistant.Assist(c.Request.Context(), todo.Title, todo.Description)

	updated, err := s.todos.SetAIContent(c.Request.Context(), id, email, content)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
