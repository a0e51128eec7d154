// Package session issues opaque session ids stored in Redis and carried in a
// cookie. A session is created at login and identifies both the user and the
// cart that belongs to that login.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var ErrNoSession = errors.New("session not found")

type Session struct {
	ID       string `json:"-"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Manager struct {
	client *redis.Client
	ttl    time.Duration
}

func NewManager(client *redis.Client, ttl time.Duration) *Manager {
	return &Manager{client: client, ttl: ttl}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) Create(ctx context.Context, user domain.User) (*Session, error) {
	s := &Session{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := m.client.Set(ctx, sessionKey(s.ID), data, m.ttl).Err(); err != nil {
		return nil, fmt.Errorf("redis set failed: %w", err)
	}
	return s, nil
}

// Lookup loads a session and slides its expiry forward.
func (m *Manager) Lookup(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}

	data, err := m.client.GetEx(ctx, sessionKey(id), m.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	s.ID = id
	return &s, nil
}

func (m *Manager) Destroy(ctx context.Context, id string) error {
	if err := m.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
