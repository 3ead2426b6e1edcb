// Package session keeps server-side session state and its anti-forgery token.
// A session is created at login and replaced by a fresh anonymous one at
// logout so an identifier seen before logout is never honored again.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by Store.Load for unknown or expired sessions.
	ErrNotFound = errors.New("session not found")
	// ErrCSRFMismatch is returned when a request's anti-forgery token is
	// missing or differs from its session's.
	ErrCSRFMismatch = errors.New("csrf token mismatch")
)

// Session is the server-side state referenced by the session cookie.
type Session struct {
	ID        string `json:"-"`
	UserID    string `json:"user_id"`
	CSRFToken string `json:"csrf_token"`
}

// Store persists sessions with an expiry.
type Store interface {
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// Manager issues, loads and rotates sessions.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
}

// NewManager constructs a Manager.
func NewManager(store Store, cookieName string, ttl time.Duration) *Manager {
	return &Manager{store: store, cookieName: cookieName, ttl: ttl}
}

// CookieName returns the cookie identifier used for sessions.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// TTL exposes the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Start creates a session bound to userID. Any session named by previousID is
// discarded first.
func (m *Manager) Start(ctx context.Context, previousID, userID string) (*Session, error) {
	if previousID != "" {
		if err := m.store.Delete(ctx, previousID); err != nil {
			return nil, fmt.Errorf("failed to discard previous session: %w", err)
		}
	}
	return m.issue(ctx, userID)
}

// Load fetches the session with the given id.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return m.store.Load(ctx, id)
}

// VerifyCSRF checks token against the anti-forgery token of the session
// named by id.
func (m *Manager) VerifyCSRF(ctx context.Context, id, token string) error {
	sess, err := m.Load(ctx, id)
	if err != nil {
		return err
	}
	if token == "" || !hmac.Equal([]byte(sess.CSRFToken), []byte(token)) {
		return ErrCSRFMismatch
	}
	return nil
}

// Rotate invalidates the session named by id (if any) and returns a new
// anonymous session with a new identifier and anti-forgery token.
func (m *Manager) Rotate(ctx context.Context, id string) (*Session, error) {
	if id != "" {
		if err := m.store.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to invalidate session: %w", err)
		}
	}
	return m.issue(ctx, "")
}

func (m *Manager) issue(ctx context.Context, userID string) (*Session, error) {
	csrf, err := newCSRFToken()
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CSRFToken: csrf,
	}
	if err := m.store.Save(ctx, sess, m.ttl); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

func newCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
