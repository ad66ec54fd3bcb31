package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/auth"
)

type authRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

func (s *Server) handleSignUp(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	profile, err := s.auth.SignUp(c.Request.Context(), auth.SignUpParams{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		serviceError(c, err)
		return
	}

	token, err := auth.SignToken(profile.ID, profile.Email, auth.DefaultTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"user": profile, "token": token})
}

func (s *Server) handleSignIn(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	profile, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		serviceError(c, err)
		return
	}

	token, err := auth.SignToken(profile.ID, profile.Email, auth.DefaultTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"user": profile, "token": token})
}

func (s *Server) handleSignOut(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", viper.GetBool("auth.cookie_secure"), true)
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

func (s *Server) handleMe(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	profile, err := s.auth.GetProfileByID(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func setSessionCookie(c *gin.Context, token string) {
	maxAge := int(auth.DefaultTokenTTL.Seconds())
	c.SetCookie(auth.CookieName, token, maxAge, "/", "", viper.GetBool("auth.cookie_secure"), true)
}
