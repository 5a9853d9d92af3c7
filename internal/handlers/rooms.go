package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ava19999/rtc/internal/session"
)

// RoomHandler manages room listing, membership and lifecycle endpoints.
type RoomHandler struct{}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler() *RoomHandler {
	return &RoomHandler{}
}

// ListRooms returns the live room list with authoritative user counts.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	s := CurrentSession(c)
	c.JSON(http.StatusOK, gin.H{
		"rooms":       s.Rooms(),
		"total_users": s.TotalUsers(),
		"joined":      s.JoinedRoomIDs(),
	})
}

// CreateRoom creates a room and joins the creator as its first member.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := CurrentSession(c)
	room, err := s.CreateRoom(req.Name)
	switch {
	case errors.Is(err, session.ErrBadRoomName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, session.ErrRoomNameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"room": room})
}

// JoinRoom makes the room active, counting first-time membership.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	s := CurrentSession(c)
	room, err := s.JoinRoomByID(c.Param("room_id"))
	if errors.Is(err, session.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room":         room,
		"messages":     s.Messages(room.ID),
		"typing_users": s.CurrentTypingUsers(),
	})
}

// LeaveActiveRoom exits the open room without giving up membership.
func (h *RoomHandler) LeaveActiveRoom(c *gin.Context) {
	s := CurrentSession(c)
	s.LeaveActiveRoom()
	c.JSON(http.StatusOK, gin.H{"status": "left"})
}

// LeaveRoom gives up membership in the room entirely.
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	s := CurrentSession(c)
	err := s.LeaveRoomPermanently(c.Param("room_id"))
	if errors.Is(err, session.ErrDefaultRoom) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "left"})
}

// DeleteRoom removes a room and its history. Requires ?confirm=true.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	s := CurrentSession(c)
	err := s.DeleteRoom(c.Param("room_id"), c.Query("confirm") == "true")
	switch {
	case errors.Is(err, session.ErrDefaultRoom):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	case errors.Is(err, session.ErrNoConfirmation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, session.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, session.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ToggleNotification flips the per-room notification setting.
func (h *RoomHandler) ToggleNotification(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := CurrentSession(c)
	roomID := c.Param("room_id")
	s.ToggleNotification(roomID, *req.Enabled)
	c.JSON(http.StatusOK, gin.H{
		"room_id": roomID,
		"enabled": s.NotificationEnabled(roomID),
	})
}

// Unread returns the per-room unread counts and the badge total.
func (h *RoomHandler) Unread(c *gin.Context) {
	s := CurrentSession(c)
	c.JSON(http.StatusOK, gin.H{"total": s.TotalUnread()})
}

// ToggleSound flips the global notification-sound setting.
func (h *RoomHandler) ToggleSound(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := CurrentSession(c)
	s.SetSoundEnabled(*req.Enabled)
	c.JSON(http.StatusOK, gin.H{"enabled": s.SoundEnabled()})
}
