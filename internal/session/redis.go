// Package session provides session-keyed storage for conversation state.
//
// This file implements a Redis-backed manager so session state survives
// process restarts and expires idle conversations automatically.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BTreeMap/FinAssist/internal/models"
)

// Redis session storage constants.
const (
	// DefaultSessionTTL expires idle sessions; each save refreshes it.
	DefaultSessionTTL = 30 * time.Minute
	// sessionKeyPrefix namespaces session keys in a shared Redis instance.
	sessionKeyPrefix = "finassist:session:"
)

// RedisOpts holds configuration options for the Redis session manager.
type RedisOpts struct {
	URL string
	TTL time.Duration
}

// RedisOption configures Redis manager construction.
type RedisOption func(*RedisOpts)

// WithRedisURL sets the Redis connection URL.
func WithRedisURL(url string) RedisOption {
	return func(o *RedisOpts) { o.URL = url }
}

// WithSessionTTL overrides the idle-session expiry.
func WithSessionTTL(ttl time.Duration) RedisOption {
	return func(o *RedisOpts) { o.TTL = ttl }
}

// RedisManager stores session state as JSON values in Redis with a TTL.
// Per-session locks remain process-local; the manager assumes a single
// FinAssist instance owns any given session at a time.
type RedisManager struct {
	client *redis.Client
	ttl    time.Duration
	locks  *keyedLocks
}

// NewRedisManager creates a Redis-backed session manager and verifies
// connectivity with a ping.
func NewRedisManager(opts ...RedisOption) (*RedisManager, error) {
	var cfg RedisOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.URL == "" {
		slog.Error("session.NewRedisManager: Redis URL not set")
		return nil, fmt.Errorf("redis URL not set")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}

	redisOpts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		slog.Error("session.NewRedisManager: invalid Redis URL", "error", err)
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(redisOpts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		slog.Error("session.NewRedisManager: ping failed", "error", err)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Debug("session.NewRedisManager: connected", "ttl", cfg.TTL)
	return &RedisManager{client: client, ttl: cfg.TTL, locks: newKeyedLocks()}, nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Get retrieves the session state, creating a fresh record if none exists.
func (m *RedisManager) Get(ctx context.Context, sessionID string) (*models.SessionState, error) {
	data, err := m.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		slog.Debug("session.RedisManager.Get: creating new session", "sessionID", sessionID)
		return models.NewSessionState(sessionID), nil
	}
	if err != nil {
		slog.Error("session.RedisManager.Get failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var state models.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Error("session.RedisManager.Get: corrupt session payload", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &state, nil
}

// Save persists the session state and refreshes its TTL.
func (m *RedisManager) Save(ctx context.Context, state *models.SessionState) error {
	if state.SessionID == "" {
		return models.ErrEmptySessionID
	}
	data, err := json.Marshal(state)
	if err != nil {
		slog.Error("session.RedisManager.Save: encode failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to encode session %s: %w", state.SessionID, err)
	}
	if err := m.client.Set(ctx, sessionKey(state.SessionID), data, m.ttl).Err(); err != nil {
		slog.Error("session.RedisManager.Save failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to save session %s: %w", state.SessionID, err)
	}
	return nil
}

// Delete removes the session state entirely.
func (m *RedisManager) Delete(ctx context.Context, sessionID string) error {
	if err := m.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		slog.Error("session.RedisManager.Delete failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// Lock acquires the per-session mutex and returns its release function.
func (m *RedisManager) Lock(sessionID string) func() {
	return m.locks.acquire(sessionID)
}

// Close releases the Redis connection.
func (m *RedisManager) Close() error {
	return m.client.Close()
}
