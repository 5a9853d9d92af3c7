// Package handlers exposes the session engine to the app shell over
// HTTP. Every mutating endpoint drives one session operation and leans
// on the websocket gateway for the resulting state pushes.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ava19999/rtc/internal/auth"
	"github.com/ava19999/rtc/internal/session"
)

// AuthHandler manages login, registration and logout.
type AuthHandler struct {
	manager *session.Manager
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(manager *session.Manager) *AuthHandler {
	return &AuthHandler{manager: manager}
}

// Login accepts the shell's Google ID token. A registered user gets a
// session immediately; a first-time user gets 409 with the parsed
// profile and must call Register.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.manager.HandleLoginToken(c.Request.Context(), req.IDToken)
	if errors.Is(err, session.ErrProfilePending) {
		profile, _ := h.manager.PendingProfile()
		c.JSON(http.StatusConflict, gin.H{
			"registration_required": true,
			"profile":               profile,
		})
		return
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrMissingProfile) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, session.ErrAlreadySignedIn) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": s.User()})
}

// Register completes a first-time user's profile with their chosen
// username and starts the session.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.manager.CompleteProfile(c.Request.Context(), req.Username)
	switch {
	case errors.Is(err, session.ErrNoPendingLogin):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, auth.ErrBadUsername):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, auth.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": s.User()})
}

// Logout closes the active session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.manager.Logout(); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}

// Me returns the signed-in user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	s := CurrentSession(c)
	c.JSON(http.StatusOK, gin.H{"user": s.User()})
}
