package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ava19999/rtc/internal/session"
	"github.com/ava19999/rtc/internal/store"
)

// MessageHandler manages message and typing endpoints.
type MessageHandler struct{}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler() *MessageHandler {
	return &MessageHandler{}
}

// ListMessages returns the cached message list for a room.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	s := CurrentSession(c)
	c.JSON(http.StatusOK, gin.H{"messages": s.Messages(c.Param("room_id"))})
}

// SendMessage appends a message to the active room.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req struct {
		Text     string `json:"text"`
		FileURL  string `json:"file_url"`
		FileName string `json:"file_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := CurrentSession(c)
	msg, err := s.SendMessage(req.Text, req.FileURL, req.FileName)
	switch {
	case errors.Is(err, session.ErrNotInRoom):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, session.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, store.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "store rejected the write"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// React toggles the caller's reaction on a message.
func (h *MessageHandler) React(c *gin.Context) {
	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := CurrentSession(c)
	if err := s.React(c.Param("room_id"), c.Param("message_id"), req.Emoji); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update reaction"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DeleteMessage removes a message the caller authored (admins: any).
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	s := CurrentSession(c)
	err := s.DeleteMessage(c.Param("room_id"), c.Param("message_id"))
	switch {
	case errors.Is(err, session.ErrMsgNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, session.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// StartTyping publishes the caller's typing status in the active room.
func (h *MessageHandler) StartTyping(c *gin.Context) {
	s := CurrentSession(c)
	if err := s.StartTyping(); err != nil {
		if errors.Is(err, session.ErrNotInRoom) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not publish typing status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "typing"})
}

// StopTyping clears the caller's typing status.
func (h *MessageHandler) StopTyping(c *gin.Context) {
	s := CurrentSession(c)
	if err := s.StopTyping(); err != nil {
		if errors.Is(err, session.ErrNotInRoom) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear typing status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// TypingUsers returns the non-stale typing users in the active room.
func (h *MessageHandler) TypingUsers(c *gin.Context) {
	s := CurrentSession(c)
	c.JSON(http.StatusOK, gin.H{"typing_users": s.CurrentTypingUsers()})
}
