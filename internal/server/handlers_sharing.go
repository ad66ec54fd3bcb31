package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
)

type inviteRequest struct {
	Email      string `json:"email" binding:"required"`
	Permission string `json:"permission" binding:"required"`
}

type respondRequest struct {
	Response string `json:"response" binding:"required"`
}

type permissionRequest struct {
	Permission string `json:"permission" binding:"required"`
}

func (s *Server) handleInvite(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and permission required"})
		return
	}

	inv, err := s.shares.Invite(c.Request.Context(), id, email, req.Email, req.Permission)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (s *Server) handleListInvitations(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}

	invs, err := s.shares.PendingInvitations(c.Request.Context(), email)
	if err != nil {
		serviceError(c, err)
		return
	}
	if invs == nil {
		invs = []models.Invitation{}
	}
	c.JSON(http.StatusOK, invs)
}

func (s *Server) handleRespond(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Response != "accept" && req.Response != "reject") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "response must be accept or reject"})
		return
	}

	inv, err := s.shares.Respond(c.Request.Context(), id, email, req.Response == "accept")
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) handleCollaborators(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	shares, err := s.shares.Collaborators(c.Request.Context(), id, email)
	if err != nil {
		serviceError(c, err)
		return
	}
	if shares == nil {
		shares = []models.SharedTodo{}
	}
	c.JSON(http.StatusOK, shares)
}

func (s *Server) handleSetPermission(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "permission required"})
		return
	}

	share, err := s.shares.SetPermission(c.Request.Context(), id, email, req.Permission)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, share)
}

func (s *Server) handleRevoke(c *gin.Context) {
	_, email, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.shares.Revoke(c.Request.Context(), id, email); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}
