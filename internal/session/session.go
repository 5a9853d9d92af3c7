// Package session implements the per-user synchronization core: room
// membership counting, unread tracking, typing presence and navigation
// history, reconciled against the realtime store. A Session is built on
// login and torn down on logout; it owns all state the original kept in
// ambient module globals.
package session

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ava19999/rtc/internal/bridge"
	"github.com/ava19999/rtc/internal/models"
	"github.com/ava19999/rtc/internal/notify"
	"github.com/ava19999/rtc/internal/observability"
	"github.com/ava19999/rtc/internal/state"
	"github.com/ava19999/rtc/internal/store"
)

const (
	// TypingTimeout is the validity window of a typing-presence record.
	TypingTimeout = 5 * time.Second
	// SoundCooldown is the minimum wall-clock gap between notification
	// sounds.
	SoundCooldown = time.Second
)

var (
	ErrNotInRoom      = errors.New("no active room")
	ErrRoomNotFound   = errors.New("room not found")
	ErrMsgNotFound    = errors.New("message not found")
	ErrNotAllowed     = errors.New("not allowed")
	ErrRoomNameTaken  = errors.New("room name already exists")
	ErrBadRoomName    = errors.New("room name must be 3-25 characters")
	ErrEmptyMessage   = errors.New("message has no content")
	ErrDefaultRoom    = errors.New("operation not permitted on default rooms")
	ErrSessionClosed  = errors.New("session closed")
	ErrNoConfirmation = errors.New("room deletion requires confirmation")
)

// membership is the single owned value replacing the original's
// session-set plus persisted-flag double bookkeeping.
type membership int

const (
	notMember membership = iota
	// memberCounted: the increment was issued during this session.
	memberCounted
	// memberPersisted: counted in an earlier session; flag loaded from
	// durable state.
	memberPersisted
)

// Event is pushed to the UI gateway whenever session state changes.
type Event struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Config carries the session's collaborators. Zero-value fields get
// safe defaults.
type Config struct {
	Store   store.RealtimeStore
	State   state.Store
	Bridge  bridge.Native
	Emitter *notify.Emitter
	Logger  *log.Logger

	// AdminUsernames may delete any non-default room.
	AdminUsernames []string

	// OnEvent receives state-change events for the UI gateway.
	OnEvent func(Event)
	// PlaySound fires the local notification sound.
	PlaySound func()

	now           func() time.Time
	typingTimeout time.Duration
	soundCooldown time.Duration
}

// Session coordinates one signed-in user's live state. All methods are
// safe for concurrent use; store listener callbacks and HTTP handlers
// run on separate goroutines.
type Session struct {
	mu sync.Mutex

	uid  string
	user models.User

	store   store.RealtimeStore
	state   state.Store
	bridge  bridge.Native
	emitter *notify.Emitter
	log     *log.Logger
	admins  map[string]struct{}
	onEvent func(Event)
	sound   func()

	now           func() time.Time
	typingTimeout time.Duration
	soundCooldown time.Duration

	pageHistory  []Page
	currentRoom  *models.Room
	searchedCoin string

	rooms          []models.Room
	roomUserCounts map[string]int

	joinedRoomIDs map[string]struct{}
	membership    map[string]membership

	unreadCounts         map[string]int
	userLastVisit        map[string]int64
	notificationSettings map[string]bool

	messages    map[string][]models.ChatMessage
	typingUsers map[string]map[string]models.TypingStatus
	typingTimer *time.Timer

	roomsListener   store.Unsubscribe
	msgListeners    map[string]store.Unsubscribe
	typingListeners map[string]store.Unsubscribe

	prevTotalUnread int
	lastSoundAt     time.Time
	soundEnabled    bool

	closed bool
}

// New builds a session for the signed-in user, loads the persisted
// installation state and attaches the authoritative rooms listener.
func New(uid string, user models.User, cfg Config) (*Session, error) {
	if cfg.Store == nil {
		return nil, store.ErrNotInitialized
	}
	if cfg.State == nil {
		cfg.State = state.NewMemoryStore()
	}
	if cfg.Bridge == nil {
		cfg.Bridge = bridge.Noop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if cfg.typingTimeout == 0 {
		cfg.typingTimeout = TypingTimeout
	}
	if cfg.soundCooldown == 0 {
		cfg.soundCooldown = SoundCooldown
	}

	s := &Session{
		uid:           uid,
		user:          user,
		store:         cfg.Store,
		state:         cfg.State,
		bridge:        cfg.Bridge,
		emitter:       cfg.Emitter,
		log:           cfg.Logger,
		admins:        make(map[string]struct{}),
		onEvent:       cfg.OnEvent,
		sound:         cfg.PlaySound,
		now:           cfg.now,
		typingTimeout: cfg.typingTimeout,
		soundCooldown: cfg.soundCooldown,

		pageHistory:          []Page{PageHome},
		rooms:                models.DefaultRooms(),
		roomUserCounts:       make(map[string]int),
		joinedRoomIDs:        make(map[string]struct{}),
		membership:           make(map[string]membership),
		unreadCounts:         make(map[string]int),
		userLastVisit:        make(map[string]int64),
		notificationSettings: make(map[string]bool),
		messages:             make(map[string][]models.ChatMessage),
		typingUsers:          make(map[string]map[string]models.TypingStatus),
		msgListeners:         make(map[string]store.Unsubscribe),
		typingListeners:      make(map[string]store.Unsubscribe),
		soundEnabled:         true,
	}
	for _, name := range cfg.AdminUsernames {
		s.admins[strings.ToLower(name)] = struct{}{}
	}

	s.loadPersisted()

	s.bridge.SetCurrentUserID(uid)

	unsub, err := s.store.Subscribe("rooms", s.onRoomsSnapshot)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.roomsListener = unsub
	s.reconcileListenersLocked()
	s.mu.Unlock()

	observability.IncSessionsActive()
	return s, nil
}

// UID returns the auth subject id of the session's user.
func (s *Session) UID() string { return s.uid }

// User returns the session's application user profile.
func (s *Session) User() models.User { return s.user }

// Close tears down every listener and clears shell state. Counts are
// not touched: closing a session is not a permanent leave.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true

	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	if s.roomsListener != nil {
		s.roomsListener()
		s.roomsListener = nil
	}
	for id, unsub := range s.msgListeners {
		unsub()
		delete(s.msgListeners, id)
	}
	for id, unsub := range s.typingListeners {
		unsub()
		delete(s.typingListeners, id)
	}

	if s.currentRoom != nil && s.uid != "" {
		path := typingPath(s.currentRoom.ID, s.uid)
		if err := s.store.Delete(context.Background(), path); err != nil {
			s.log.Printf("remove typing status on close: %v", err)
		}
	}
	s.currentRoom = nil
	s.mu.Unlock()

	s.bridge.SetCurrentRoomID("")
	s.bridge.SetCurrentUserID("")
	observability.DecSessionsActive()
	observability.SetStoreListeners("messages", 0)
	observability.SetStoreListeners("typing", 0)
}

func typingPath(roomID, uid string) string {
	return "typing/" + roomID + "/" + uid
}

func (s *Session) emit(event Event) {
	if s.onEvent != nil {
		s.onEvent(event)
	}
}

func (s *Session) nowMillis() int64 {
	return s.now().UnixMilli()
}

// loadPersisted restores the durable installation snapshots. Absent keys
// fall back to defaults; the joined set always contains the default
// rooms.
func (s *Session) loadPersisted() {
	ctx := context.Background()

	var joined []string
	if _, err := s.state.Get(ctx, state.KeyJoinedRoomIDs, &joined); err != nil {
		s.log.Printf("load joined rooms: %v", err)
	}
	for _, room := range models.DefaultRooms() {
		s.joinedRoomIDs[room.ID] = struct{}{}
	}
	for _, id := range joined {
		s.joinedRoomIDs[id] = struct{}{}
	}

	hasJoined := map[string]bool{}
	if _, err := s.state.Get(ctx, state.KeyHasJoinedRoom, &hasJoined); err != nil {
		s.log.Printf("load hasJoinedRoom: %v", err)
	}
	for id, flag := range hasJoined {
		if flag {
			s.membership[id] = memberPersisted
		}
	}

	if _, err := s.state.Get(ctx, state.KeyUnreadCounts, &s.unreadCounts); err != nil {
		s.log.Printf("load unread counts: %v", err)
	}
	if _, err := s.state.Get(ctx, state.KeyUserLastVisit, &s.userLastVisit); err != nil {
		s.log.Printf("load last visits: %v", err)
	}
	if _, err := s.state.Get(ctx, state.KeyNotificationSettings, &s.notificationSettings); err != nil {
		s.log.Printf("load notification settings: %v", err)
	}
}

func (s *Session) persistJoinedLocked() {
	ids := make([]string, 0, len(s.joinedRoomIDs))
	for id := range s.joinedRoomIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if err := s.state.Set(context.Background(), state.KeyJoinedRoomIDs, ids); err != nil {
		s.log.Printf("persist joined rooms: %v", err)
	}
}

func (s *Session) persistMembershipLocked() {
	flags := make(map[string]bool, len(s.membership))
	for id, m := range s.membership {
		flags[id] = m != notMember
	}
	if err := s.state.Set(context.Background(), state.KeyHasJoinedRoom, flags); err != nil {
		s.log.Printf("persist hasJoinedRoom: %v", err)
	}
}

func (s *Session) persistUnreadLocked() {
	if err := s.state.Set(context.Background(), state.KeyUnreadCounts, s.unreadCounts); err != nil {
		s.log.Printf("persist unread counts: %v", err)
	}
}

func (s *Session) persistLastVisitLocked() {
	if err := s.state.Set(context.Background(), state.KeyUserLastVisit, s.userLastVisit); err != nil {
		s.log.Printf("persist last visits: %v", err)
	}
}

func (s *Session) persistNotificationSettingsLocked() {
	if err := s.state.Set(context.Background(), state.KeyNotificationSettings, s.notificationSettings); err != nil {
		s.log.Printf("persist notification settings: %v", err)
	}
}

// onRoomsSnapshot republishes the server-authoritative room list and
// user counts over any optimistic local values.
func (s *Session) onRoomsSnapshot(snap store.Snapshot) {
	records := map[string]models.Room{}
	if err := snap.Decode(&records); err != nil {
		s.log.Printf("rooms listener decode: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	counts := make(map[string]int, len(records))
	others := make([]models.Room, 0, len(records))
	for id, rec := range records {
		rec.ID = id
		counts[id] = rec.UserCount
		if !models.IsDefaultRoomID(id) {
			others = append(others, rec)
		}
	}
	sort.Slice(others, func(i, j int) bool {
		if others[i].CreatedAt != others[j].CreatedAt {
			return others[i].CreatedAt < others[j].CreatedAt
		}
		return others[i].ID < others[j].ID
	})

	s.roomUserCounts = counts
	s.rooms = append(models.DefaultRooms(), others...)
	s.emit(Event{Type: "rooms", Payload: s.roomsLocked()})
}

func (s *Session) roomsLocked() []models.Room {
	out := make([]models.Room, len(s.rooms))
	for i, room := range s.rooms {
		if count, ok := s.roomUserCounts[room.ID]; ok {
			room.UserCount = count
		}
		out[i] = room
	}
	return out
}

// Rooms returns the room list with authoritative user counts overlaid.
func (s *Session) Rooms() []models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomsLocked()
}

// TotalUsers sums the user counts across all rooms.
func (s *Session) TotalUsers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, room := range s.roomsLocked() {
		total += room.UserCount
	}
	return total
}

// CurrentRoom returns the active room, if any.
func (s *Session) CurrentRoom() (models.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentRoom == nil {
		return models.Room{}, false
	}
	return *s.currentRoom, true
}

// JoinedRoomIDs returns the rooms whose streams the session follows.
func (s *Session) JoinedRoomIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.joinedRoomIDs))
	for id := range s.joinedRoomIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Session) findRoomLocked(roomID string) (models.Room, bool) {
	for _, room := range s.rooms {
		if room.ID == roomID {
			if count, ok := s.roomUserCounts[roomID]; ok {
				room.UserCount = count
			}
			return room, true
		}
	}
	return models.Room{}, false
}
