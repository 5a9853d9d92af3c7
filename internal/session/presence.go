package session

import (
	"context"

	"github.com/ava19999/rtc/internal/models"
	"github.com/ava19999/rtc/internal/observability"
)

// JoinRoom makes room the active room and, on the first join of a
// non-default room, counts this installation in the room's user counter.
// Re-joining a room whose membership is already counted only performs
// the navigation and bookkeeping effects.
func (s *Session) JoinRoom(room models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinRoomLocked(room)
}

// JoinRoomByID resolves the room from the live list and joins it.
func (s *Session) JoinRoomByID(roomID string) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.findRoomLocked(roomID)
	if !ok {
		return models.Room{}, ErrRoomNotFound
	}
	s.joinRoomLocked(room)
	return room, nil
}

func (s *Session) joinRoomLocked(room models.Room) {
	s.currentRoom = &room
	s.bridge.SetCurrentRoomID(room.ID)

	// Push topics default to enabled; only an explicit toggle-off skips
	// the subscription.
	if !room.IsDefaultRoom && !s.notificationDisabledLocked(room.ID) {
		s.bridge.SubscribeToRoom(room.ID)
	}

	s.joinedRoomIDs[room.ID] = struct{}{}
	s.persistJoinedLocked()
	if s.activePageLocked() != PageForum {
		s.pushPageLocked(PageForum)
	}

	if !room.IsDefaultRoom && s.membership[room.ID] == notMember {
		s.adjustUserCountLocked(room.ID, +1)
		s.membership[room.ID] = memberCounted
		s.persistMembershipLocked()
	}

	s.unreadCounts[room.ID] = 0
	s.userLastVisit[room.ID] = s.nowMillis()
	s.persistUnreadLocked()
	s.persistLastVisitLocked()

	if err := s.store.OnDisconnectRemove(typingPath(room.ID, s.uid)); err != nil {
		s.log.Printf("arm typing disconnect cleanup for %s: %v", room.ID, err)
	}

	s.reconcileListenersLocked()
	s.updateBadgeLocked()
	s.emit(Event{Type: "room_joined", RoomID: room.ID})
}

func (s *Session) notificationDisabledLocked(roomID string) bool {
	enabled, ok := s.notificationSettings[roomID]
	return ok && !enabled
}

// LeaveRoomPermanently removes this installation's membership in the
// room: the counter decrement, the durable flag, the stream
// subscriptions and all per-room bookkeeping. Default rooms cannot be
// left.
func (s *Session) LeaveRoomPermanently(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if models.IsDefaultRoomID(roomID) {
		return ErrDefaultRoom
	}

	s.bridge.UnsubscribeFromRoom(roomID)

	if s.membership[roomID] != notMember {
		s.adjustUserCountLocked(roomID, -1)
		// Purging the membership also frees a re-join in this same
		// session to count again.
		s.membership[roomID] = notMember
		s.persistMembershipLocked()
	}

	if s.currentRoom != nil && s.currentRoom.ID == roomID {
		s.leaveActiveRoomLocked()
		s.popPageLocked()
	}

	delete(s.joinedRoomIDs, roomID)
	delete(s.unreadCounts, roomID)
	delete(s.userLastVisit, roomID)
	delete(s.notificationSettings, roomID)
	delete(s.messages, roomID)
	delete(s.typingUsers, roomID)
	s.persistJoinedLocked()
	s.persistUnreadLocked()
	s.persistLastVisitLocked()
	s.persistNotificationSettingsLocked()

	s.reconcileListenersLocked()
	s.updateBadgeLocked()

	if err := s.store.Delete(context.Background(), typingPath(roomID, s.uid)); err != nil {
		s.log.Printf("remove typing status on permanent leave: %v", err)
	}

	s.emit(Event{Type: "room_left", RoomID: roomID})
	return nil
}

// LeaveActiveRoom exits the active room for navigation purposes only.
func (s *Session) LeaveActiveRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveActiveRoomLocked()
}

// leaveActiveRoomLocked stamps the last visit, zeroes the unread count
// and clears typing and shell state. It must never mutate userCount;
// only LeaveRoomPermanently does.
func (s *Session) leaveActiveRoomLocked() {
	if s.currentRoom == nil {
		return
	}
	roomID := s.currentRoom.ID

	s.userLastVisit[roomID] = s.nowMillis()
	s.unreadCounts[roomID] = 0
	s.persistLastVisitLocked()
	s.persistUnreadLocked()

	s.cancelTypingTimerLocked()
	if err := s.store.Delete(context.Background(), typingPath(roomID, s.uid)); err != nil {
		s.log.Printf("remove typing status on leave: %v", err)
	}

	s.currentRoom = nil
	s.bridge.SetCurrentRoomID("")

	s.reconcileListenersLocked()
	s.updateBadgeLocked()
	s.emit(Event{Type: "room_left_active", RoomID: roomID})
}

// adjustUserCountLocked moves the remote per-room counter by delta,
// floored at zero, and mirrors the result locally. This is a plain
// read-then-write: concurrent writers can lose updates, and the
// authoritative rooms listener repairs the local mirror afterwards.
func (s *Session) adjustUserCountLocked(roomID string, delta int) {
	ctx := context.Background()
	path := "rooms/" + roomID + "/userCount"

	var current int
	if err := s.store.Get(ctx, path, &current); err != nil {
		s.log.Printf("read user count for %s: %v", roomID, err)
		return
	}

	next := current + delta
	if next < 0 {
		next = 0
	}
	if err := s.store.Set(ctx, path, next); err != nil {
		s.log.Printf("write user count for %s: %v", roomID, err)
		return
	}

	s.roomUserCounts[roomID] = next
	if delta > 0 {
		observability.IncPresenceOp("increment")
	} else {
		observability.IncPresenceOp("decrement")
	}
}
