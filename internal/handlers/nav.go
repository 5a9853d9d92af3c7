package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ava19999/rtc/internal/session"
)

// NavHandler manages the navigation stack and home-page coin state.
type NavHandler struct{}

// NewNavHandler builds a NavHandler.
func NewNavHandler() *NavHandler {
	return &NavHandler{}
}

var validPages = map[session.Page]struct{}{
	session.PageHome:  {},
	session.PageRooms: {},
	session.PageForum: {},
	session.PageAbout: {},
}

// Navigate moves to a logical page.
func (h *NavHandler) Navigate(c *gin.Context) {
	var req struct {
		Page string `json:"page" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page := session.Page(req.Page)
	if _, ok := validPages[page]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown page"})
		return
	}

	s := CurrentSession(c)
	s.NavigateTo(page)
	c.JSON(http.StatusOK, gin.H{
		"active_page": s.ActivePage(),
		"history":     s.History(),
	})
}

// Back handles the shell's hardware back button. handled=false tells
// the shell to exit the app.
func (h *NavHandler) Back(c *gin.Context) {
	s := CurrentSession(c)
	handled := s.HandleBack()
	c.JSON(http.StatusOK, gin.H{
		"handled":     handled,
		"active_page": s.ActivePage(),
		"history":     s.History(),
	})
}

// SelectCoin pins a searched coin on the home page.
func (h *NavHandler) SelectCoin(c *gin.Context) {
	var req struct {
		CoinID string `json:"coin_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := CurrentSession(c)
	s.SelectCoin(req.CoinID)
	c.JSON(http.StatusOK, gin.H{"searched_coin": s.SearchedCoin()})
}

// State returns a full snapshot for shell restarts.
func (h *NavHandler) State(c *gin.Context) {
	s := CurrentSession(c)
	room, inRoom := s.CurrentRoom()
	resp := gin.H{
		"active_page":   s.ActivePage(),
		"history":       s.History(),
		"searched_coin": s.SearchedCoin(),
		"joined":        s.JoinedRoomIDs(),
		"total_unread":  s.TotalUnread(),
	}
	if inRoom {
		resp["current_room"] = room
	}
	c.JSON(http.StatusOK, resp)
}
