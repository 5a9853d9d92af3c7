package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ava19999/rtc/internal/auth"
	"github.com/ava19999/rtc/internal/models"
)

var (
	ErrNoSession       = errors.New("not signed in")
	ErrAlreadySignedIn = errors.New("already signed in")
	ErrProfilePending  = errors.New("profile registration pending")
	ErrNoPendingLogin  = errors.New("no login awaiting registration")
)

// Manager owns the lifecycle of the single active session: login from an
// ID token, optional first-time registration, and logout.
type Manager struct {
	mu sync.Mutex

	registry *auth.Registry
	cfg      Config

	current *Session
	pending *models.GoogleProfile
}

// NewManager builds a Manager; cfg is cloned into each new session.
func NewManager(registry *auth.Registry, cfg Config) *Manager {
	return &Manager{registry: registry, cfg: cfg}
}

// HandleLoginToken parses the Google ID token and starts a session if
// the subject is already registered. For a first-time user it parks the
// profile and returns ErrProfilePending; CompleteProfile finishes the
// flow.
func (m *Manager) HandleLoginToken(ctx context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return nil, ErrAlreadySignedIn
	}

	profile, err := auth.ParseIDToken(token)
	if err != nil {
		return nil, err
	}

	user, err := m.registry.Lookup(ctx, profile.Subject)
	if errors.Is(err, auth.ErrUserNotFound) {
		m.pending = &profile
		return nil, ErrProfilePending
	}
	if err != nil {
		return nil, err
	}

	return m.startLocked(profile.Subject, user)
}

// PendingProfile returns the parsed profile of a login awaiting
// registration, if any.
func (m *Manager) PendingProfile() (models.GoogleProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return models.GoogleProfile{}, false
	}
	return *m.pending, true
}

// CompleteProfile registers the pending user under the chosen username
// and starts their session.
func (m *Manager) CompleteProfile(ctx context.Context, username string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return nil, ErrNoPendingLogin
	}
	profile := *m.pending

	now := m.cfg.now
	if now == nil {
		now = time.Now
	}
	user, err := m.registry.Register(ctx, profile.Subject, username, profile, now().UnixMilli())
	if err != nil {
		return nil, err
	}
	m.pending = nil

	return m.startLocked(profile.Subject, user)
}

func (m *Manager) startLocked(uid string, user models.User) (*Session, error) {
	s, err := New(uid, user, m.cfg)
	if err != nil {
		return nil, err
	}
	m.current = s
	return s, nil
}

// Current returns the active session.
func (m *Manager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSession
	}
	return m.current, nil
}

// Logout closes the active session and discards any pending login.
func (m *Manager) Logout() error {
	m.mu.Lock()
	s := m.current
	m.current = nil
	m.pending = nil
	m.mu.Unlock()

	if s == nil {
		return ErrNoSession
	}
	s.Close()
	return nil
}
