package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotInitialized is returned by any path operation against a store
	// that has no backing connection.
	ErrNotInitialized = errors.New("realtime store not initialized")
	// ErrPermissionDenied mirrors the store's permission rule rejections.
	ErrPermissionDenied = errors.New("permission denied")
)

// Unsubscribe detaches a live listener. Failing to call it on dependency
// change or teardown leaks the listener.
type Unsubscribe func()

// Snapshot is the value at a path at some point in time. Data is the JSON
// encoding of the subtree, or nil when the path is empty.
type Snapshot struct {
	Path string
	Data json.RawMessage
}

// Exists reports whether the path held a value.
func (s Snapshot) Exists() bool {
	return len(s.Data) > 0 && string(s.Data) != "null"
}

// Decode unmarshals the snapshot into dest. An empty snapshot leaves dest
// untouched.
func (s Snapshot) Decode(dest any) error {
	if !s.Exists() {
		return nil
	}
	return json.Unmarshal(s.Data, dest)
}

// RealtimeStore is a key-path addressed realtime database: the external
// collaborator holding rooms/, messages/, typing/, users/ and usernames/.
// Paths are slash separated. Listeners receive the current value on
// attach and again after every change under the path.
type RealtimeStore interface {
	// Get reads the subtree at path into dest. A missing path leaves dest
	// at its zero value and returns nil.
	Get(ctx context.Context, path string, dest any) error
	// Set replaces the subtree at path. A nil value deletes it.
	Set(ctx context.Context, path string, value any) error
	// Update applies child writes at path in one operation. A nil field
	// value deletes that child.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Delete removes the subtree at path.
	Delete(ctx context.Context, path string) error
	// Push stores value under a new generated child id and returns it.
	Push(ctx context.Context, path string, value any) (string, error)
	// Subscribe attaches a listener to path. Delivery is asynchronous and
	// in order per listener.
	Subscribe(path string, fn func(Snapshot)) (Unsubscribe, error)
	// OnDisconnectRemove arms a server-side deferred deletion of path,
	// executed when this client's connection drops.
	OnDisconnectRemove(path string) error
}
