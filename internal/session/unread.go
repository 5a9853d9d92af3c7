package session

import (
	"sort"

	"github.com/ava19999/rtc/internal/models"
	"github.com/ava19999/rtc/internal/observability"
	"github.com/ava19999/rtc/internal/store"
)

// reconcileListenersLocked diffs the desired subscription set against
// the live listeners and attaches or detaches only the difference.
// Message listeners cover every joined room except the zero-traffic
// news room; typing listeners likewise. Called whenever the joined set
// or the active room changes.
func (s *Session) reconcileListenersLocked() {
	desired := make(map[string]struct{}, len(s.joinedRoomIDs))
	for id := range s.joinedRoomIDs {
		if id == models.NewsRoomID {
			continue
		}
		desired[id] = struct{}{}
	}

	for id, unsub := range s.msgListeners {
		if _, ok := desired[id]; !ok {
			unsub()
			delete(s.msgListeners, id)
		}
	}
	for id := range desired {
		if _, ok := s.msgListeners[id]; ok {
			continue
		}
		roomID := id
		unsub, err := s.store.Subscribe("messages/"+roomID, func(snap store.Snapshot) {
			s.onMessagesSnapshot(roomID, snap)
		})
		if err != nil {
			s.log.Printf("attach message listener for %s: %v", roomID, err)
			continue
		}
		s.msgListeners[roomID] = unsub
	}

	for id, unsub := range s.typingListeners {
		if _, ok := desired[id]; !ok {
			unsub()
			delete(s.typingListeners, id)
		}
	}
	for id := range desired {
		if _, ok := s.typingListeners[id]; ok {
			continue
		}
		roomID := id
		unsub, err := s.store.Subscribe("typing/"+roomID, func(snap store.Snapshot) {
			s.onTypingSnapshot(roomID, snap)
		})
		if err != nil {
			s.log.Printf("attach typing listener for %s: %v", roomID, err)
			continue
		}
		s.typingListeners[roomID] = unsub
	}

	observability.SetStoreListeners("messages", len(s.msgListeners))
	observability.SetStoreListeners("typing", len(s.typingListeners))
}

// onMessagesSnapshot refreshes the room's message cache and recomputes
// its unread count from the full snapshot.
func (s *Session) onMessagesSnapshot(roomID string, snap store.Snapshot) {
	records := map[string]models.ChatMessage{}
	if err := snap.Decode(&records); err != nil {
		s.log.Printf("messages listener decode for %s: %v", roomID, err)
		return
	}

	msgs := make([]models.ChatMessage, 0, len(records))
	for id, msg := range records {
		msg.ID = id
		if msg.Type == "" {
			msg.Type = msg.Kind()
		}
		if msg.EffectiveTimestamp() == 0 {
			continue
		}
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool {
		ti, tj := msgs[i].EffectiveTimestamp(), msgs[j].EffectiveTimestamp()
		if ti != tj {
			return ti < tj
		}
		return msgs[i].ID < msgs[j].ID
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, joined := s.joinedRoomIDs[roomID]; !joined {
		return
	}

	s.messages[roomID] = msgs
	s.recomputeUnreadLocked(roomID)
	s.updateBadgeLocked()
	s.emit(Event{Type: "messages", RoomID: roomID, Payload: msgs})
}

// recomputeUnreadLocked counts messages newer than the last visit that
// were authored by someone else. The active room always reads zero.
func (s *Session) recomputeUnreadLocked(roomID string) {
	if s.currentRoom != nil && s.currentRoom.ID == roomID {
		s.unreadCounts[roomID] = 0
		return
	}

	lastVisit := s.userLastVisit[roomID]
	count := 0
	for _, msg := range s.messages[roomID] {
		if msg.EffectiveTimestamp() > lastVisit && msg.Sender != s.user.Username {
			count++
		}
	}
	s.unreadCounts[roomID] = count
	s.persistUnreadLocked()
}

// totalUnreadLocked sums unread counts, skipping the active room and
// rooms whose notifications are explicitly disabled.
func (s *Session) totalUnreadLocked() int {
	total := 0
	for roomID, count := range s.unreadCounts {
		if s.currentRoom != nil && s.currentRoom.ID == roomID {
			continue
		}
		if s.notificationDisabledLocked(roomID) {
			continue
		}
		total += count
	}
	return total
}

// updateBadgeLocked recomputes the total badge and fires the local
// sound on a strict increase, at most once per cooldown window, and
// never on the very first population.
func (s *Session) updateBadgeLocked() {
	total := s.totalUnreadLocked()
	previous := s.prevTotalUnread
	now := s.now()

	if s.soundEnabled && total > previous && previous > 0 && now.Sub(s.lastSoundAt) > s.soundCooldown {
		if s.sound != nil {
			s.sound()
		}
		s.lastSoundAt = now
		observability.IncSoundNotification()
	}
	s.prevTotalUnread = total

	observability.SetUnreadBadge(total)
	s.emit(Event{Type: "unread", Payload: map[string]any{
		"counts": s.unreadCounts,
		"total":  total,
	}})
}

// UnreadCount returns the unread counter for one room.
func (s *Session) UnreadCount(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadCounts[roomID]
}

// TotalUnread returns the badge value shown by the shell.
func (s *Session) TotalUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalUnreadLocked()
}

// Messages returns the cached message list for a room, oldest first.
func (s *Session) Messages(roomID string) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]models.ChatMessage, len(s.messages[roomID]))
	copy(msgs, s.messages[roomID])
	return msgs
}

// ToggleNotification flips a room's notification setting and keeps the
// shell's push-topic subscription in line with it.
func (s *Session) ToggleNotification(roomID string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSettings[roomID] = enabled
	s.persistNotificationSettingsLocked()

	if !models.IsDefaultRoomID(roomID) {
		if enabled {
			s.bridge.SubscribeToRoom(roomID)
		} else {
			s.bridge.UnsubscribeFromRoom(roomID)
		}
	}
	if s.currentRoom != nil && s.currentRoom.ID == roomID {
		s.bridge.SetCurrentRoomID(roomID)
	}

	s.updateBadgeLocked()
}

// SetSoundEnabled toggles the local notification sound and mirrors the
// setting to the shell.
func (s *Session) SetSoundEnabled(enabled bool) {
	s.mu.Lock()
	s.soundEnabled = enabled
	s.mu.Unlock()
	s.bridge.SetNotificationSoundEnabled(enabled)
}

// SoundEnabled reports whether the local notification sound is on.
func (s *Session) SoundEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.soundEnabled
}

// NotificationEnabled reports the effective toggle for a room.
func (s *Session) NotificationEnabled(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.notificationDisabledLocked(roomID)
}
