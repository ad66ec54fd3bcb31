// Package server wires the HTTP surface: gin routes, request binding
// and the mapping from service errors to JSON error bodies.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/assistant"
	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/auth"
	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/realtime"
	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/sharing"
	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/todos"
)

// AuthService is the slice of the auth service the handlers use.
type AuthService interface {
	SignUp(ctx context.Context, p auth.SignUpParams) (*models.UserProfile, error)
	SignIn(ctx context.Context, email, password string) (*models.UserProfile, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
}

// TodoService is the slice of the todo service the handlers use.
type TodoService interface {
	Create(ctx context.Context, userID uuid.UUID, email string, p todos.CreateParams) (*models.Todo, error)
	ListForUser(ctx context.Context, email string) ([]models.Todo, error)
	Get(ctx context.Context, id uuid.UUID, actorEmail string) (*models.Todo, error)
	Update(ctx context.Context, id uuid.UUID, actorEmail string, p todos.UpdateParams) (*models.Todo, error)
	Toggle(ctx context.Context, id uuid.UUID, actorEmail string) (*models.Todo, error)
	Delete(ctx context.Context, id uuid.UUID, actorEmail string) error
	SetAIContent(ctx context.Context, id uuid.UUID, actorEmail string, content *models.AIContent) (*models.Todo, error)
	ListDeleted(ctx context.Context, email string) ([]models.RecentlyDeleted, error)
	Restore(ctx context.Context, recordID, userID uuid.UUID, actorEmail string) (*models.Todo, error)
	PermanentDelete(ctx context.Context, recordID uuid.UUID, actorEmail string) error
}

// ShareService is the slice of the sharing service the handlers use.
type ShareService interface {
	Invite(ctx context.Context, todoID uuid.UUID, actorEmail, recipientEmail, permission string) (*models.Invitation, error)
	PendingInvitations(ctx context.Context, email string) ([]models.Invitation, error)
	Respond(ctx context.Context, invitationID uuid.UUID, actorEmail string, accept bool) (*models.Invitation, error)
	Collaborators(ctx context.Context, todoID uuid.UUID, actorEmail string) ([]models.SharedTodo, error)
	SetPermission(ctx context.Context, shareID uuid.UUID, actorEmail, permission string) (*models.SharedTodo, error)
	Revoke(ctx context.Context, shareID uuid.UUID, actorEmail string) error
}

// Server holds the wired services behind the HTTP handlers.
type Server struct {
	auth      AuthService
	todos     TodoService
	shares    ShareService
	assistant assistant.Client
	hub       *realtime.Hub
}

func New(authSvc AuthService, todoSvc TodoService, shareSvc ShareService, assist assistant.Client, hub *realtime.Hub) *Server {
	return &Server{
		auth:      authSvc,
		todos:     todoSvc,
		shares:    shareSvc,
		assistant: assist,
		hub:       hub,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	if origin := viper.GetString("server.cors_origin"); origin != "" {
		corsConfig.AllowOrigins = []string{origin}
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173"}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", s.handleSignUp)
		authGroup.POST("/signin", s.handleSignIn)
		authGroup.POST("/signout", s.handleSignOut)
		authGroup.GET("/me", auth.Middleware(), s.handleMe)
	}

	protected := api.Group("", auth.Middleware())
	{
		protected.GET("/todos", s.handleListTodos)
		protected.POST("/todos", s.handleCreateTodo)
		protected.GET("/todos/:id", s.handleGetTodo)
		protected.PATCH("/todos/:id", s.handleUpdateTodo)
		protected.POST("/todos/:id/toggle", s.handleToggleTodo)
		protected.DELETE("/todos/:id", s.handleDeleteTodo)
		protected.POST("/todos/:id/assist", s.handleAssist)

		protected.POST("/todos/:id/share", s.handleInvite)
		protected.GET("/todos/:id/collaborators", s.handleCollaborators)
		protected.GET("/invitations", s.handleListInvitations)
		protected.POST("/invitations/:id/respond", s.handleRespond)
		protected.PATCH("/shares/:id", s.handleSetPermission)
		protected.DELETE("/shares/:id", s.handleRevoke)

		protected.GET("/deleted", s.handleListDeleted)
		protected.POST("/deleted/:id/restore", s.handleRestore)
		protected.DELETE("/deleted/:id", s.handlePermanentDelete)

		protected.GET("/events", s.handleEvents)
	}

	return r
}

// serviceError maps a service error to an HTTP status and JSON body.
func serviceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, todos.ErrNotFound),
		errors.Is(err, todos.ErrNotDeleted),
		errors.Is(err, sharing.ErrInvitationNotFound),
		errors.Is(err, sharing.ErrShareNotFound),
		errors.Is(err, auth.ErrProfileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, todos.ErrNoAccess),
		errors.Is(err, todos.ErrViewOnly),
		errors.Is(err, sharing.ErrNotOwner),
		errors.Is(err, sharing.ErrNotRecipient):
		status = http.StatusForbidden
	case errors.Is(err, sharing.ErrAlreadyShared),
		errors.Is(err, sharing.ErrAlreadyInvited),
		errors.Is(err, sharing.ErrAlreadyResponded),
		errors.Is(err, auth.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, todos.ErrTodoGone),
		errors.Is(err, todos.ErrExpired):
		status = http.StatusGone
	case errors.Is(err, sharing.ErrInvalidPermission),
		errors.Is(err, sharing.ErrSelfShare),
		errors.Is(err, sharing.ErrRecipientNotFound),
		errors.Is(err, todos.ErrTitleRequired):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func identity(c *gin.Context) (uuid.UUID, string, bool) {
	id, email, ok := auth.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
	}
	return id, email, ok
}
