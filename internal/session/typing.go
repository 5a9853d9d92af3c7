package session

import (
	"context"
	"sort"
	"time"

	"github.com/ava19999/rtc/internal/models"
	"github.com/ava19999/rtc/internal/observability"
	"github.com/ava19999/rtc/internal/store"
)

// StartTyping publishes this user's typing status in the active room and
// arms the expiry timer. Repeated calls while typing refresh the
// timestamp and reset the timer.
func (s *Session) StartTyping() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentRoom == nil {
		return ErrNotInRoom
	}
	roomID := s.currentRoom.ID
	path := typingPath(roomID, s.uid)

	status := models.TypingStatus{
		Username:         s.user.Username,
		UserCreationDate: s.user.CreatedAt,
		Timestamp:        s.nowMillis(),
	}
	if err := s.store.Set(context.Background(), path, status); err != nil {
		return err
	}
	if err := s.store.OnDisconnectRemove(path); err != nil {
		s.log.Printf("arm typing disconnect cleanup: %v", err)
	}

	// Local timer is the primary expiry; the read-time staleness filter
	// backstops records whose timer never fired.
	s.cancelTypingTimerLocked()
	uid := s.uid
	s.typingTimer = s.scheduleTypingExpiry(roomID, uid)

	observability.IncTypingEvent("start")
	return nil
}

// StopTyping removes this user's typing status immediately, e.g. when a
// message is sent or the input is cleared.
func (s *Session) StopTyping() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentRoom == nil {
		return ErrNotInRoom
	}
	roomID := s.currentRoom.ID
	s.cancelTypingTimerLocked()

	if err := s.store.Delete(context.Background(), typingPath(roomID, s.uid)); err != nil {
		return err
	}
	observability.IncTypingEvent("stop")
	return nil
}

func (s *Session) scheduleTypingExpiry(roomID, uid string) *time.Timer {
	return time.AfterFunc(s.typingTimeout, func() {
		s.expireTyping(roomID, uid)
	})
}

func (s *Session) cancelTypingTimerLocked() {
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
}

func (s *Session) expireTyping(roomID, uid string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.typingTimer = nil
	s.mu.Unlock()

	if err := s.store.Delete(context.Background(), typingPath(roomID, uid)); err != nil {
		s.log.Printf("expire typing status for %s: %v", roomID, err)
		return
	}
	observability.IncTypingEvent("expire")
}

// onTypingSnapshot replaces the room's typing map from the snapshot.
// Staleness and self-filtering happen at read time so a stuck remote
// record cannot linger past the timeout.
func (s *Session) onTypingSnapshot(roomID string, snap store.Snapshot) {
	records := map[string]models.TypingStatus{}
	if err := snap.Decode(&records); err != nil {
		s.log.Printf("typing listener decode for %s: %v", roomID, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, joined := s.joinedRoomIDs[roomID]; !joined {
		return
	}

	s.typingUsers[roomID] = records
	if s.currentRoom != nil && s.currentRoom.ID == roomID {
		s.emit(Event{Type: "typing", RoomID: roomID, Payload: s.typingUsersLocked(roomID)})
	}
}

func (s *Session) typingUsersLocked(roomID string) []models.TypingStatus {
	cutoff := s.nowMillis() - s.typingTimeout.Milliseconds()
	out := make([]models.TypingStatus, 0, len(s.typingUsers[roomID]))
	for uid, status := range s.typingUsers[roomID] {
		if uid == s.uid {
			continue
		}
		if status.Timestamp <= cutoff {
			continue
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Username < out[j].Username
	})
	return out
}

// CurrentTypingUsers returns the other users currently typing in the
// active room, filtered for staleness.
func (s *Session) CurrentTypingUsers() []models.TypingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentRoom == nil {
		return nil
	}
	return s.typingUsersLocked(s.currentRoom.ID)
}
