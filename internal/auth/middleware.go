package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Gin context keys set by Middleware.
const (
	ContextUserID = "auth.user_id"
	ContextEmail  = "auth.email"
)

// CookieName is the session cookie checked when no bearer token is
// present.
const CookieName = "todo_session"

// Middleware authenticates the request from the Authorization bearer
// token or the session cookie and aborts with 401 otherwise.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c.GetHeader("Authorization"))
		if tokenStr == "" {
			if cookie, err := c.Cookie(CookieName); err == nil {
				tokenStr = cookie
			}
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no session"})
			return
		}

		claims, err := ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

// Identity returns the authenticated user id and email set by
// Middleware.
func Identity(c *gin.Context) (uuid.UUID, string, bool) {
	idVal, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, "", false
	}
	emailVal, ok := c.Get(ContextEmail)
	if !ok {
		return uuid.Nil, "", false
	}
	id, ok := idVal.(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	email, ok := emailVal.(string)
	if !ok {
		return uuid.Nil, "", false
	}
	return id, email, true
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
