package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ava19999/rtc/internal/models"
	"github.com/ava19999/rtc/internal/state"
	"github.com/ava19999/rtc/internal/store"
)

func pushMessage(t *testing.T, rs *store.MemoryStore, roomID, sender string, ts int64) {
	t.Helper()
	_, err := rs.Push(context.Background(), "messages/"+roomID, models.ChatMessage{
		Type:      models.MessageTypeUser,
		Sender:    sender,
		Text:      "halo",
		Timestamp: ts,
	})
	require.NoError(t, err)
}

func TestActiveRoomUnreadStaysZero(t *testing.T) {
	rs := store.NewMemoryStore()
	seedRoom(t, rs, "room-umum", "Umum", 4)
	clock := newFakeClock()
	s := newTestSession(t, rs, state.NewMemoryStore(), func(cfg *Config) { cfg.now = clock.Now })
	waitForRoom(t, s, "room-umum")

	_, err := s.JoinRoomByID("room-umum")
	require.NoError(t, err)

	clock.Advance(time.Second)
	pushMessage(t, rs, "room-umum", "bob", clock.Now().UnixMilli())

	require.Eventually(t, func() bool {
		return len(s.Messages("room-umum")) == 1
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, 0, s.UnreadCount("room-umum"))
	require.Equal(t, 0, s.TotalUnread())
}

func TestUnreadCountsOnlyOtherSendersMessages(t *testing.T) {
	rs := store.NewMemoryStore()
	seedRoom(t, rs, "room-umum", "Umum", 4)
	clock := newFakeClock()
	s := newTestSession(t, rs, state.NewMemoryStore(), func(cfg *Config) { cfg.now = clock.Now })
	waitForRoom(t, s, "room-umum")

	_, err := s.JoinRoomByID("room-umum")
	require.NoError(t, err)
	s.LeaveActiveRoom()

	clock.Advance(time.Second)
	ts := clock.Now().UnixMilli()
	pushMessage(t, rs, "room-umum", "bob", ts)
	pushMessage(t, rs, "room-umum", "bob", ts+1)
	pushMessage(t, rs, "room-umum", "alice", ts+2)

	require.Eventually(t, func() bool {
		return s.UnreadCount("room-umum") == 2
	}, time.Second, 5*time.Millisecond, "own messages must not count as unread")
	require.Equal(t, 2, s.TotalUnread())
}

func TestMessagesBeforeLastVisitAreRead(t *testing.T) {
	rs := store.NewMemoryStore()
	seedRoom(t, rs, "room-umum", "Umum", 4)
	clock := newFakeClock()
	s := newTestSession(t, rs, state.NewMemoryStore(), func(cfg *Config) { cfg.now = clock.Now })
	waitForRoom(t, s, "room-umum")

	_, err := s.JoinRoomByID("room-umum")
	require.NoError(t, err)

	// Messages already in the room when it was visited stay read after
	// leaving.
	old := clock.Now().UnixMilli() - 60_000
	pushMessage(t, rs, "room-umum", "bob", old)

	clock.Advance(time.Second)
	s.LeaveActiveRoom()

	require.Eventually(t, func() bool {
		return len(s.Messages("room-umum")) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 0, s.UnreadCount("room-umum"))
}

func TestSoundFiresOnlyOnStrictIncreaseOutsideCooldown(t *testing.T) {
	rs := store.NewMemoryStore()
	seedRoom(t, rs, "room-umum", "Umum", 4)
	clock := newFakeClock()
	var sounds atomic.Int32

	s := newTestSession(t, rs, state.NewMemoryStore(), func(cfg *Config) {
		cfg.now = clock.Now
		cfg.PlaySound = func() { sounds.Add(1) }
	})
	waitForRoom(t, s, "room-umum")

	_, err := s.JoinRoomByID("room-umum")
	require.NoError(t, err)
	s.LeaveActiveRoom()

	// First unread total goes 0 -> 1: no sound, previous total was zero.
	clock.Advance(time.Second)
	pushMessage(t, rs, "room-umum", "bob", clock.Now().UnixMilli())
	require.Eventually(t, func() bool {
		return s.TotalUnread() == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(0), sounds.Load())

	// 1 -> 2 outside the cooldown window: sound fires.
	clock.Advance(2 * time.Second)
	pushMessage(t, rs, "room-umum", "bob", clock.Now().UnixMilli())
	require.Eventually(t, func() bool {
		return s.TotalUnread() == 2
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(1), sounds.Load())

	// 2 -> 3 inside the cooldown window: suppressed.
	pushMessage(t, rs, "room-umum", "bob", clock.Now().UnixMilli()+1)
	require.Eventually(t, func() bool {
		return s.TotalUnread() == 3
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(1), sounds.Load())
}

func TestDisablingSoundSuppressesIt(t *testing.T) {
	rs := store.NewMemoryStore()
	seedRoom(t, rs, "room-umum", "Umum", 4)
	clock := newFakeClock()
	var sounds atomic.Int32

	s := newTestSession(t, rs, state.NewMemoryStore(), func(cfg *Config) {
		cfg.now = clock.Now
		cfg.PlaySound = func() { sounds.Add(1) }
	})
	waitForRoom(t, s, "room-umum")

	_, err := s.JoinRoomByID("room-umum")
	require.NoError(t, err)
	s.LeaveActiveRoom()
	s.SetSoundEnabled(false)

	clock.Advance(time.Second)
	pushMessage(t, rs, "room-umum", "bob", clock.Now().UnixMilli())
	require.Eventually(t, func() bool {
		return s.TotalUnread() == 1
	}, time.Second, 5*time.Millisecond)

	clock.Advance(2 * time.Second)
	pushMessage(t, rs, "room-umum", "bob", clock.Now().UnixMilli())
	require.Eventually(t, func() bool {
		return s.TotalUnread() == 2
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, int32(0), sounds.Load())
}

func TestMutedRoomExcludedFromBadgeTotal(t *testing.T) {
	rs := store.NewMemoryStore()
	seedRoom(t, rs, "room-umum", "Umum", 4)
	clock := newFakeClock()
	s := newTestSession(t, rs, state.NewMemoryStore(), func(cfg *Config) { cfg.now = clock.Now })
	waitForRoom(t, s, "room-umum")

	_, err := s.JoinRoomByID("room-umum")
	require.NoError(t, err)
	s.LeaveActiveRoom()

	clock.Advance(time.Second)
	pushMessage(t, rs, "room-umum", "bob", clock.Now().UnixMilli())
	require.Eventually(t, func() bool {
		return s.UnreadCount("room-umum") == 1
	}, time.Second, 5*time.Millisecond)

	s.ToggleNotification("room-umum", false)
	require.False(t, s.NotificationEnabled("room-umum"))
	require.Equal(t, 0, s.TotalUnread())
	require.Equal(t, 1, s.UnreadCount("room-umum"), "per-room count survives muting")

	s.ToggleNotification("room-umum", true)
	require.Equal(t, 1, s.TotalUnread())
}

func TestNewsRoomGetsNoMessageListener(t *testing.T) {
	rs := store.NewMemoryStore()
	s := newTestSession(t, rs, state.NewMemoryStore(), nil)

	pushMessage(t, rs, models.NewsRoomID, "bob", time.Now().UnixMilli())

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, s.Messages(models.NewsRoomID))
	require.Equal(t, 0, s.UnreadCount(models.NewsRoomID))
}
