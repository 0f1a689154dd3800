package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"tinysteps/internal/suggestion"
)

// SessionStore keeps one suggestion session per user
type SessionStore interface {
	Get(ctx context.Context, userID int64) (suggestion.Session, bool, error)
	Put(ctx context.Context, userID int64, s suggestion.Session) error
	Delete(ctx context.Context, userID int64) error
}

// RedisClient is the subset of the go-redis client the session store uses
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ RedisClient = (*redis.Client)(nil)

// RedisSessionStore stores sessions as JSON with a sliding TTL
type RedisSessionStore struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedisSessionStore creates a Redis-backed session store
func NewRedisSessionStore(client RedisClient, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("tinysteps:suggestions:%d", userID)
}

// Get loads a user's session. The boolean is false when none is stored.
func (s *RedisSessionStore) Get(ctx context.Context, userID int64) (suggestion.Session, bool, error) {
	raw, err := s.client.Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return suggestion.Session{}, false, nil
	}
	if err != nil {
		return suggestion.Session{}, false, fmt.Errorf("failed to load suggestion session: %w", err)
	}

	var session suggestion.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return suggestion.Session{}, false, fmt.Errorf("failed to decode suggestion session: %w", err)
	}
	return session, true, nil
}

// Put replaces a user's session and refreshes its TTL
func (s *RedisSessionStore) Put(ctx context.Context, userID int64, session suggestion.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode suggestion session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(userID), string(raw), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store suggestion session: %w", err)
	}
	return nil
}

// Delete drops a user's session
func (s *RedisSessionStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete suggestion session: %w", err)
	}
	return nil
}

// MemorySessionStore keeps sessions in process memory. Used when no Redis
// address is configured; sessions do not survive a restart.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[int64]memorySession
	ttl      time.Duration
	now      func() time.Time
}

type memorySession struct {
	session   suggestion.Session
	expiresAt time.Time
}

// NewMemorySessionStore creates an in-memory session store
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[int64]memorySession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get loads a user's session
func (s *MemorySessionStore) Get(_ context.Context, userID int64) (suggestion.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[userID]
	if !ok {
		return suggestion.Session{}, false, nil
	}
	if s.ttl > 0 && s.now().After(entry.expiresAt) {
		delete(s.sessions, userID)
		return suggestion.Session{}, false, nil
	}
	return entry.session, true, nil
}

// Put replaces a user's session
func (s *MemorySessionStore) Put(_ context.Context, userID int64, session suggestion.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = memorySession{session: session, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Delete drops a user's session
func (s *MemorySessionStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

// Prune removes expired sessions and reports how many were dropped
func (s *MemorySessionStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	removed := 0
	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
