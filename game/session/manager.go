package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/scheduler"
	"github.com/wricardo/mcp-training/snakegame/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// maxIDAttempts bounds the search for an unused generated ID
const maxIDAttempts = 32

// Option customizes a Manager
type Option func(*Manager)

// WithRenderer sets the renderer every new session reports to
func WithRenderer(r service.Renderer) Option {
	return func(m *Manager) {
		m.renderer = r
	}
}

// WithClock sets the time source for every new session's scheduler
func WithClock(c scheduler.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithEngineOptions passes options to every new session's engine
func WithEngineOptions(opts ...engine.Option) Option {
	return func(m *Manager) {
		m.engineOpts = append(m.engineOpts, opts...)
	}
}

// Manager handles game session lifecycle
type Manager struct {
	sessions   map[string]*service.Session
	renderer   service.Renderer
	clock      scheduler.Clock
	engineOpts []engine.Option
	mu         sync.RWMutex
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		clock:    scheduler.SystemClock,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerWithRenderer creates a session manager whose sessions render to r
func NewManagerWithRenderer(r service.Renderer) *Manager {
	return NewManager(WithRenderer(r))
}

// Create creates a session with the given ID and configuration and starts its
// first run. An empty ID is replaced by a generated one.
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if strings.TrimSpace(id) != id || strings.ContainsAny(id, "/?#") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	m.mu.Lock()
	if id == "" {
		generated, err := m.unusedSessionID()
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		id = generated
	}

	// Check if session already exists (case-insensitive)
	if m.sessionExists(id) {
		m.mu.Unlock()
		return nil, ErrSessionAlreadyExists
	}

	sess, err := service.NewSession(id, config,
		service.WithRenderer(m.renderer),
		service.WithClock(m.clock),
		service.WithEngineOptions(m.engineOpts...),
	)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.sessions[strings.ToLower(id)] = sess
	m.mu.Unlock()

	// Started outside the manager lock; the first tick may already be running
	// by the time Create returns.
	if _, err := sess.Start(); err != nil {
		m.remove(id)
		return nil, err
	}

	log.Printf("[SESSION] Created session %s (%s, %dx%d, %dms)",
		id, config.Name, config.Width, config.Height, sess.TickPeriodMs())
	return sess, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		session, err = m.Create(id, config)
		if errors.Is(err, ErrSessionAlreadyExists) {
			// Lost a race with another creator.
			return m.Get(id)
		}
		return session, err
	}

	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete stops and removes a session
func (m *Manager) Delete(id string) error {
	sess := m.remove(id)
	if sess == nil {
		return ErrSessionNotFound
	}

	sess.Stop()
	log.Printf("[SESSION] Deleted session %s", sess.ID)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}

	session.Touch(time.Now())
	return nil
}

// CleanupExpiredSessions stops and removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*service.Session
	for key, session := range m.sessions {
		if session.LastAccessed().Before(cutoff) {
			delete(m.sessions, key)
			expired = append(expired, session)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		session.Stop()
	}

	return len(expired)
}

// StopAll halts every session's scheduler. Sessions stay listed.
func (m *Manager) StopAll() {
	for _, session := range m.List() {
		session.Stop()
	}
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// remove deletes a session from the map and returns it, or nil if absent
func (m *Manager) remove(id string) *service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	sess, exists := m.sessions[key]
	if !exists {
		return nil
	}
	delete(m.sessions, key)
	return sess
}

// generateSessionID generates a random 4-character session ID
func (m *Manager) generateSessionID() (string, error) {
	// Generate 2 random bytes (4 hex characters)
	bytes := make([]byte, 2)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// unusedSessionID generates IDs until one is free. Caller holds mu.
func (m *Manager) unusedSessionID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := m.generateSessionID()
		if err != nil {
			return "", err
		}
		if !m.sessionExists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no free ID after %d attempts", ErrSessionAlreadyExists, maxIDAttempts)
}

// sessionExists checks if a session exists (case-insensitive). Caller holds mu.
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}
