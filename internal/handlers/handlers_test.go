package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"

	"github.com/ava19999/rtc/internal/auth"
	"github.com/ava19999/rtc/internal/models"
	"github.com/ava19999/rtc/internal/session"
	"github.com/ava19999/rtc/internal/state"
	"github.com/ava19999/rtc/internal/store"
)

type testEnv struct {
	router  *gin.Engine
	store   *store.MemoryStore
	manager *session.Manager
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rs := store.NewMemoryStore()
	manager := session.NewManager(auth.NewRegistry(rs), session.Config{
		Store: rs,
		State: state.NewMemoryStore(),
	})
	t.Cleanup(func() { _ = manager.Logout() })

	authHandler := NewAuthHandler(manager)
	roomHandler := NewRoomHandler()
	messageHandler := NewMessageHandler()
	navHandler := NewNavHandler()

	router := gin.New()
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/register", authHandler.Register)

	requireSession := RequireSession(manager)
	router.POST("/auth/logout", requireSession, authHandler.Logout)
	router.GET("/me", requireSession, authHandler.Me)
	router.GET("/rooms", requireSession, roomHandler.ListRooms)
	router.POST("/rooms", requireSession, roomHandler.CreateRoom)
	router.POST("/rooms/:room_id/join", requireSession, roomHandler.JoinRoom)
	router.POST("/rooms/:room_id/leave", requireSession, roomHandler.LeaveRoom)
	router.POST("/messages", requireSession, messageHandler.SendMessage)
	router.POST("/typing/start", requireSession, messageHandler.StartTyping)
	router.POST("/back", requireSession, navHandler.Back)
	router.POST("/navigate", requireSession, navHandler.Navigate)

	return &testEnv{router: router, store: rs, manager: manager}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func loginToken(t *testing.T, sub, email string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"name":  "Alice",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func signIn(t *testing.T, env *testEnv) {
	t.Helper()
	token := loginToken(t, "google-1", "alice@example.com")

	rec := env.do(t, http.MethodPost, "/auth/login", gin.H{"id_token": token})
	require.Equal(t, http.StatusConflict, rec.Code, "first login requires registration")

	rec = env.do(t, http.MethodPost, "/auth/register", gin.H{"username": "alice"})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestLoginFlowWithRegistration(t *testing.T) {
	env := setupEnv(t)
	signIn(t, env)

	rec := env.do(t, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "alice", resp.User.Username)
}

func TestSecondLoginSkipsRegistration(t *testing.T) {
	env := setupEnv(t)
	signIn(t, env)

	rec := env.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	token := loginToken(t, "google-1", "alice@example.com")
	rec = env.do(t, http.MethodPost, "/auth/login", gin.H{"id_token": token})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsGarbageToken(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/login", gin.H{"id_token": "garbage"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEndpointsRequireSession(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodGet, "/rooms", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateJoinLeaveRoomOverHTTP(t *testing.T) {
	env := setupEnv(t)
	signIn(t, env)

	rec := env.do(t, http.MethodPost, "/rooms", gin.H{"name": "Diskusi Umum"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Room models.Room `json:"room"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.Equal(t, 1, created.Room.UserCount)

	rec = env.do(t, http.MethodPost, "/rooms/"+created.Room.ID+"/leave", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int
	require.NoError(t, env.store.Get(context.Background(), "rooms/"+created.Room.ID+"/userCount", &count))
	require.Equal(t, 0, count)
}

func TestDuplicateRoomNameConflicts(t *testing.T) {
	env := setupEnv(t)
	signIn(t, env)

	rec := env.do(t, http.MethodPost, "/rooms", gin.H{"name": "Diskusi Umum"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The rooms listener must deliver the created room before the
	// duplicate check can see it.
	s, err := env.manager.Current()
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(s.Rooms()) > 2
	}, time.Second, 5*time.Millisecond)

	rec = env.do(t, http.MethodPost, "/rooms", gin.H{"name": "diskusi umum"})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLeaveDefaultRoomForbiddenOverHTTP(t *testing.T) {
	env := setupEnv(t)
	signIn(t, env)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/rooms/%s/leave", models.NewsRoomID), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSendMessageWithoutRoomConflicts(t *testing.T) {
	env := setupEnv(t)
	signIn(t, env)

	rec := env.do(t, http.MethodPost, "/messages", gin.H{"text": "halo"})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestTypingStartWithoutRoomConflicts(t *testing.T) {
	env := setupEnv(t)
	signIn(t, env)

	rec := env.do(t, http.MethodPost, "/typing/start", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestBackAtRootReportsUnhandled(t *testing.T) {
	env := setupEnv(t)
	signIn(t, env)

	rec := env.do(t, http.MethodPost, "/back", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Handled bool `json:"handled"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.False(t, resp.Handled, "back on the root page tells the shell to exit")
}

func TestNavigateThenBack(t *testing.T) {
	env := setupEnv(t)
	signIn(t, env)

	rec := env.do(t, http.MethodPost, "/navigate", gin.H{"page": "about"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/back", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Handled    bool   `json:"handled"`
		ActivePage string `json:"active_page"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Handled)
	require.Equal(t, "home", resp.ActivePage)
}

func TestNavigateRejectsUnknownPage(t *testing.T) {
	env := setupEnv(t)
	signIn(t, env)

	rec := env.do(t, http.MethodPost, "/navigate", gin.H{"page": "settings"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
