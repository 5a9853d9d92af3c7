// Package state holds the durable per-installation keys: joined room
// ids, has-joined-room flags, unread counts, last-visit times and
// per-room notification toggles. Values are JSON snapshots of the
// in-memory maps, reloaded at startup and rewritten on every change.
package state

import "context"

// Keys mirroring the original installation's persisted storage.
const (
	KeyJoinedRoomIDs        = "joinedRoomIds"
	KeyHasJoinedRoom        = "hasJoinedRoom"
	KeyUnreadCounts         = "unreadCounts"
	KeyUserLastVisit        = "userLastVisit"
	KeyNotificationSettings = "roomNotificationSettings"
)

// Store is string-keyed durable storage for JSON-serialized values.
type Store interface {
	// Get unmarshals the value at key into dest and reports whether the
	// key existed.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key string, value any) error
	// Delete removes key.
	Delete(ctx context.Context, key string) error
}
