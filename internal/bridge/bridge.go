// Package bridge models the wrapping native shell. Every call is
// best-effort: implementations must never return errors or panic, and
// callers never branch on whether a real shell is attached.
package bridge

import "log"

// Native is the capability surface exposed by the wrapping shell.
type Native interface {
	// SetCurrentRoomID tells the shell which room is active so it can
	// suppress push notifications for it. Empty string means none.
	SetCurrentRoomID(id string)
	// SetCurrentUserID mirrors the signed-in user to the shell.
	SetCurrentUserID(id string)
	// SetNotificationSoundEnabled toggles the shell's local sound.
	SetNotificationSoundEnabled(enabled bool)
	// SubscribeToRoom subscribes the device to the room's push topic.
	SubscribeToRoom(id string)
	// UnsubscribeFromRoom removes the device from the room's push topic.
	UnsubscribeFromRoom(id string)
}

// Noop is the default implementation used when no shell is attached.
type Noop struct{}

func (Noop) SetCurrentRoomID(string)          {}
func (Noop) SetCurrentUserID(string)          {}
func (Noop) SetNotificationSoundEnabled(bool) {}
func (Noop) SubscribeToRoom(string)           {}
func (Noop) UnsubscribeFromRoom(string)       {}

// Logging wraps another bridge and logs every call. Used in local runs
// to observe shell traffic without a device.
type Logging struct {
	Next Native
}

func (l Logging) next() Native {
	if l.Next != nil {
		return l.Next
	}
	return Noop{}
}

func (l Logging) SetCurrentRoomID(id string) {
	log.Printf("bridge: current room id %q", id)
	l.next().SetCurrentRoomID(id)
}

func (l Logging) SetCurrentUserID(id string) {
	log.Printf("bridge: current user id %q", id)
	l.next().SetCurrentUserID(id)
}

func (l Logging) SetNotificationSoundEnabled(enabled bool) {
	log.Printf("bridge: notification sound enabled=%t", enabled)
	l.next().SetNotificationSoundEnabled(enabled)
}

func (l Logging) SubscribeToRoom(id string) {
	log.Printf("bridge: subscribe to room topic %q", id)
	l.next().SubscribeToRoom(id)
}

func (l Logging) UnsubscribeFromRoom(id string) {
	log.Printf("bridge: unsubscribe from room topic %q", id)
	l.next().UnsubscribeFromRoom(id)
}

var _ Native = Noop{}
var _ Native = Logging{}
