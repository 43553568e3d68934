package auth

import (
	"errors"
	"sync"

	"controlroom/pkg/models"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrMalformedToken  = errors.New("malformed access token")
)

// Session is the credential snapshot produced by a login or token refresh.
type Session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// Store holds the current access token and cached user profile. It is the
// only cross-cutting mutable resource of the core: read-many, write-rare,
// and every write replaces the whole value rather than mutating fields.
type Store interface {
	// Token returns the current bearer token, or "" when logged out.
	Token() string
	// RefreshToken returns the current refresh token, or "".
	RefreshToken() string
	// MachineKey returns the machine-scoped key for agent-originated
	// sessions, or "" for interactive users.
	MachineKey() string
	// Profile returns the cached profile, or nil when none is loaded.
	Profile() *models.UserProfile

	SetSession(Session)
	SetProfile(*models.UserProfile)
	SetMachineKey(key string)

	// Clear drops the session, profile and machine key. Used at logout.
	Clear()
}

// MemoryStore is the volatile Store used for the lifetime of one session
// process. Writes swap whole values under the mutex.
type MemoryStore struct {
	mu         sync.RWMutex
	session    Session
	machineKey string
	profile    *models.UserProfile
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

func (s *MemoryStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.RefreshToken
}

func (s *MemoryStore) MachineKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.machineKey
}

func (s *MemoryStore) Profile() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *MemoryStore) SetSession(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
}

func (s *MemoryStore) SetProfile(p *models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

func (s *MemoryStore) SetMachineKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machineKey = key
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	s.machineKey = ""
	s.profile = nil
}
