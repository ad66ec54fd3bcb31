package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", Middleware(), func(c *gin.Context) {
		id, email, ok := Identity(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "identity missing"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.String(), "email": email})
	})
	return r
}

func TestMiddleware_NoToken(t *testing.T) {
	viper.Set("auth.jwt_secret", "test-secret")
	t.Cleanup(func() { viper.Set("auth.jwt_secret", "") })

	r := newAuthRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_BearerToken(t *testing.T) {
	viper.Set("auth.jwt_secret", "test-secret")
	t.Cleanup(func() { viper.Set("auth.jwt_secret", "") })

	userID := uuid.New()
	token, err := SignToken(userID, "owner@example.com", time.Hour)
	require.NoError(t, err)

	r := newAuthRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), "owner@example.com")
}

func TestMiddleware_SessionCookie(t *testing.T) {
	viper.Set("auth.jwt_secret", "test-secret")
	t.Cleanup(func() { viper.Set("auth.jwt_secret", "") })

	token, err := SignToken(uuid.New(), "owner@example.com", time.Hour)
	require.NoError(t, err)

	r := newAuthRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_BadToken(t *testing.T) {
	viper.Set("auth.jwt_secret", "test-secret")
	t.Cleanup(func() { viper.Set("auth.jwt_secret", "") })

	r := newAuthRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bearerToken(tt.header), "header %q", tt.header)
	}
}
