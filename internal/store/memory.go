package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/teris-io/shortid"
)

// MemoryStore is an in-process RealtimeStore used by tests and local
// runs. Values live in a JSON-shaped tree; listeners are fanned out on a
// goroutine per subscription so store calls made from listener callbacks
// cannot deadlock.
type MemoryStore struct {
	mu          sync.Mutex
	root        map[string]any
	subs        map[int]*subscriber
	nextSubID   int
	pushSeq     int64
	deferred    map[string]struct{}
	initialized bool
}

type subscriber struct {
	path    string
	fn      func(Snapshot)
	queue   []Snapshot
	signal  chan struct{}
	closed  bool
	queueMu sync.Mutex
}

// NewMemoryStore creates an empty initialized store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		root:        make(map[string]any),
		subs:        make(map[int]*subscriber),
		deferred:    make(map[string]struct{}),
		initialized: true,
	}
}

func splitPath(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("empty path")
	}
	return strings.Split(trimmed, "/"), nil
}

func (m *MemoryStore) check() error {
	if m == nil || !m.initialized {
		return ErrNotInitialized
	}
	return nil
}

// Get reads the subtree at path into dest.
func (m *MemoryStore) Get(ctx context.Context, path string, dest any) error {
	if err := m.check(); err != nil {
		return err
	}
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	val, ok := lookup(m.root, segs)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Set replaces the subtree at path and notifies affected listeners.
func (m *MemoryStore) Set(ctx context.Context, path string, value any) error {
	if err := m.check(); err != nil {
		return err
	}
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	var node any
	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &node); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if node == nil {
		remove(m.root, segs)
	} else {
		insert(m.root, segs, node)
	}
	m.notifyLocked(segs)
	m.mu.Unlock()
	return nil
}

// Update applies child writes at path in one notification pass.
func (m *MemoryStore) Update(ctx context.Context, path string, fields map[string]any) error {
	if err := m.check(); err != nil {
		return err
	}
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range fields {
		child := append(append([]string{}, segs...), key)
		if value == nil {
			remove(m.root, child)
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		var node any
		if err := json.Unmarshal(raw, &node); err != nil {
			return err
		}
		insert(m.root, child, node)
	}
	m.notifyLocked(segs)
	return nil
}

// Delete removes the subtree at path.
func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	return m.Set(ctx, path, nil)
}

// Push stores value under a generated child id and returns the id.
// Generated ids sort roughly by insertion order within a process.
func (m *MemoryStore) Push(ctx context.Context, path string, value any) (string, error) {
	if err := m.check(); err != nil {
		return "", err
	}
	id, err := shortid.Generate()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.pushSeq++
	key := fmt.Sprintf("m%06d-%s", m.pushSeq, id)
	m.mu.Unlock()
	if err := m.Set(ctx, strings.Trim(path, "/")+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

// Subscribe attaches a listener and immediately delivers the current
// snapshot, matching the collaborator store's on-value semantics.
func (m *MemoryStore) Subscribe(path string, fn func(Snapshot)) (Unsubscribe, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	sub := &subscriber{
		path:   strings.Join(segs, "/"),
		fn:     fn,
		signal: make(chan struct{}, 1),
	}
	go sub.run()

	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = sub
	sub.enqueue(m.snapshotLocked(segs))
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		if s, ok := m.subs[id]; ok {
			delete(m.subs, id)
			s.close()
		}
		m.mu.Unlock()
	}, nil
}

// OnDisconnectRemove registers path for deletion on connection loss.
func (m *MemoryStore) OnDisconnectRemove(path string) error {
	if err := m.check(); err != nil {
		return err
	}
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.deferred[strings.Join(segs, "/")] = struct{}{}
	m.mu.Unlock()
	return nil
}

// SimulateDisconnect runs every armed deferred deletion, the way the
// collaborator store would after this client drops.
func (m *MemoryStore) SimulateDisconnect() {
	m.mu.Lock()
	paths := make([]string, 0, len(m.deferred))
	for p := range m.deferred {
		paths = append(paths, p)
	}
	m.deferred = make(map[string]struct{})
	m.mu.Unlock()

	for _, p := range paths {
		_ = m.Delete(context.Background(), p)
	}
}

func (m *MemoryStore) snapshotLocked(segs []string) Snapshot {
	path := strings.Join(segs, "/")
	val, ok := lookup(m.root, segs)
	if !ok {
		return Snapshot{Path: path}
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return Snapshot{Path: path}
	}
	return Snapshot{Path: path, Data: raw}
}

// notifyLocked fires every subscriber whose path is the mutated path, an
// ancestor of it, or a descendant of it.
func (m *MemoryStore) notifyLocked(changed []string) {
	changedPath := strings.Join(changed, "/")
	for _, sub := range m.subs {
		if !pathsOverlap(sub.path, changedPath) {
			continue
		}
		subSegs := strings.Split(sub.path, "/")
		sub.enqueue(m.snapshotLocked(subSegs))
	}
}

func pathsOverlap(a, b string) bool {
	return a == b || strings.HasPrefix(b, a+"/") || strings.HasPrefix(a, b+"/")
}

func (s *subscriber) enqueue(snap Snapshot) {
	s.queueMu.Lock()
	if s.closed {
		s.queueMu.Unlock()
		return
	}
	s.queue = append(s.queue, snap)
	select {
	case s.signal <- struct{}{}:
	default:
	}
	s.queueMu.Unlock()
}

func (s *subscriber) run() {
	for range s.signal {
		for {
			s.queueMu.Lock()
			if len(s.queue) == 0 {
				s.queueMu.Unlock()
				break
			}
			snap := s.queue[0]
			s.queue = s.queue[1:]
			s.queueMu.Unlock()
			s.fn(snap)
		}
	}
}

func (s *subscriber) close() {
	s.queueMu.Lock()
	s.closed = true
	s.queue = nil
	s.queueMu.Unlock()
	close(s.signal)
}

func lookup(root map[string]any, segs []string) (any, bool) {
	var cur any = root
	for _, seg := range segs {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func insert(root map[string]any, segs []string, value any) {
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

func remove(root map[string]any, segs []string) {
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, segs[len(segs)-1])
}
