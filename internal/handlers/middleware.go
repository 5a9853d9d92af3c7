package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ava19999/rtc/internal/session"
)

const sessionKey = "session"

// RequireSession resolves the active session and aborts with 401 when
// nobody is signed in.
func RequireSession(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := manager.Current()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

// CurrentSession returns the session placed by RequireSession.
func CurrentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}
