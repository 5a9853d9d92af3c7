package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/teris-io/shortid"

	"github.com/ava19999/rtc/internal/models"
)

// CreateRoom writes a new room record and joins it. The creator counts
// as the first member, so the record starts with userCount 1 and the
// join path must not increment again.
func (s *Session) CreateRoom(name string) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 3 || len(trimmed) > 25 {
		return models.Room{}, ErrBadRoomName
	}
	for _, existing := range s.rooms {
		if strings.EqualFold(existing.Name, trimmed) {
			return models.Room{}, ErrRoomNameTaken
		}
	}

	room := models.Room{
		ID:          fmt.Sprintf("room-%d-%s", s.nowMillis(), shortid.MustGenerate()),
		Name:        trimmed,
		UserCount:   1,
		CreatedBy:   s.user.Username,
		CreatedByID: s.uid,
		CreatedAt:   s.nowMillis(),
	}
	if err := s.store.Set(context.Background(), "rooms/"+room.ID, room); err != nil {
		return models.Room{}, err
	}

	// The creator is already counted in the record written above.
	s.membership[room.ID] = memberCounted
	s.persistMembershipLocked()
	s.roomUserCounts[room.ID] = room.UserCount
	s.rooms = append(s.rooms, room)

	s.joinRoomLocked(room)
	return room, nil
}

// DeleteRoom removes a room and its message history. Only the creator
// or an admin may delete, and default rooms never can be.
func (s *Session) DeleteRoom(roomID string, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if models.IsDefaultRoomID(roomID) {
		return ErrDefaultRoom
	}
	if !confirmed {
		return ErrNoConfirmation
	}
	room, ok := s.findRoomLocked(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if room.CreatedByID != s.uid && !s.isAdminLocked() {
		return ErrNotAllowed
	}

	ctx := context.Background()
	if err := s.store.Delete(ctx, "rooms/"+roomID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, "messages/"+roomID); err != nil {
		s.log.Printf("delete message history for %s: %v", roomID, err)
	}
	if err := s.store.Delete(ctx, "typing/"+roomID); err != nil {
		s.log.Printf("delete typing records for %s: %v", roomID, err)
	}

	if s.currentRoom != nil && s.currentRoom.ID == roomID {
		s.leaveActiveRoomLocked()
		s.resetHistoryLocked()
	}

	delete(s.joinedRoomIDs, roomID)
	delete(s.membership, roomID)
	delete(s.unreadCounts, roomID)
	delete(s.userLastVisit, roomID)
	delete(s.notificationSettings, roomID)
	delete(s.messages, roomID)
	delete(s.typingUsers, roomID)
	delete(s.roomUserCounts, roomID)
	for i, r := range s.rooms {
		if r.ID == roomID {
			s.rooms = append(s.rooms[:i], s.rooms[i+1:]...)
			break
		}
	}
	s.persistJoinedLocked()
	s.persistMembershipLocked()
	s.persistUnreadLocked()
	s.persistLastVisitLocked()
	s.persistNotificationSettingsLocked()

	s.bridge.UnsubscribeFromRoom(roomID)
	s.reconcileListenersLocked()
	s.updateBadgeLocked()
	s.emit(Event{Type: "room_deleted", RoomID: roomID})
	return nil
}

func (s *Session) isAdminLocked() bool {
	_, ok := s.admins[strings.ToLower(s.user.Username)]
	return ok
}

// SendMessage appends a user message to the active room and announces
// it on the push exchange. Typing status is cleared as a side effect.
func (s *Session) SendMessage(text, fileURL, fileName string) (models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentRoom == nil {
		return models.ChatMessage{}, ErrNotInRoom
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && fileURL == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	room := *s.currentRoom

	msg := models.ChatMessage{
		Type:             models.MessageTypeUser,
		UID:              s.uid,
		Sender:           s.user.Username,
		Text:             trimmed,
		FileURL:          fileURL,
		FileName:         fileName,
		Timestamp:        s.nowMillis(),
		UserCreationDate: s.user.CreatedAt,
	}

	ctx := context.Background()
	id, err := s.store.Push(ctx, "messages/"+room.ID, msg)
	if err != nil {
		return models.ChatMessage{}, err
	}
	msg.ID = id

	s.cancelTypingTimerLocked()
	if err := s.store.Delete(ctx, typingPath(room.ID, s.uid)); err != nil {
		s.log.Printf("clear typing status on send: %v", err)
	}

	if !room.IsDefaultRoom {
		if err := s.emitter.MessageSent(ctx, room.ID, room.Name, msg.Sender, msg.Text); err != nil {
			s.log.Printf("publish chat notification: %v", err)
		}
	}
	return msg, nil
}

// React toggles the user's name on a message's emoji reaction list.
// This is a read-then-write on the list; concurrent reactors can race,
// which the original accepted too.
func (s *Session) React(roomID, messageID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if emoji == "" || messageID == "" {
		return ErrEmptyMessage
	}
	username := s.user.Username
	path := "messages/" + roomID + "/" + messageID + "/reactions/" + emoji

	ctx := context.Background()
	var names []string
	if err := s.store.Get(ctx, path, &names); err != nil {
		return err
	}

	next := make([]string, 0, len(names)+1)
	found := false
	for _, name := range names {
		if name == username {
			found = true
			continue
		}
		next = append(next, name)
	}
	if !found {
		next = append(next, username)
	}

	if len(next) == 0 {
		return s.store.Delete(ctx, path)
	}
	return s.store.Set(ctx, path, next)
}

// DeleteMessage removes a message the user authored; admins may remove
// any message.
func (s *Session) DeleteMessage(roomID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := "messages/" + roomID + "/" + messageID
	ctx := context.Background()

	var msg models.ChatMessage
	if err := s.store.Get(ctx, path, &msg); err != nil {
		return err
	}
	if msg.UID == "" && msg.Sender == "" {
		return ErrMsgNotFound
	}
	if msg.UID != s.uid && !s.isAdminLocked() {
		return ErrNotAllowed
	}
	return s.store.Delete(ctx, path)
}
