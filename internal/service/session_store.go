package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"account-service/internal/domain"
)

const defaultSessionTTL = 24 * time.Hour

// SessionStore guarda la identidad de cada sesion activa del lado servidor.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, identity domain.SessionIdentity, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (domain.SessionIdentity, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

type memorySessionEntry struct {
	identity  domain.SessionIdentity
	expiresAt time.Time
}

type memorySessionStore struct {
	mu    sync.Mutex
	items map[string]memorySessionEntry
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		items: make(map[string]memorySessionEntry),
	}
}

func (s *memorySessionStore) Save(_ context.Context, sessionID string, identity domain.SessionIdentity, ttl time.Duration) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sessionID] = memorySessionEntry{
		identity:  identity,
		expiresAt: time.Now().UTC().Add(ttl),
	}
	return nil
}

func (s *memorySessionStore) Load(_ context.Context, sessionID string) (domain.SessionIdentity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[sessionID]
	if !ok {
		return domain.SessionIdentity{}, false, nil
	}
	if time.Now().UTC().After(entry.expiresAt) {
		delete(s.items, sessionID)
		return domain.SessionIdentity{}, false, nil
	}
	return entry.identity, true, nil
}

func (s *memorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionID)
	return nil
}

type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionStore struct {
	client redisKVClient
	prefix string
}

func NewRedisSessionStore(client *redis.Client) SessionStore {
	if client == nil {
		return nil
	}
	return &redisSessionStore{
		client: client,
		prefix: "auth:session:",
	}
}

func (s *redisSessionStore) Save(ctx context.Context, sessionID string, identity domain.SessionIdentity, ttl time.Duration) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	payload, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+sessionID, payload, ttl).Err()
}

func (s *redisSessionStore) Load(ctx context.Context, sessionID string) (domain.SessionIdentity, bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.SessionIdentity{}, false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	raw, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SessionIdentity{}, false, nil
		}
		return domain.SessionIdentity{}, false, err
	}
	var identity domain.SessionIdentity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return domain.SessionIdentity{}, false, err
	}
	return identity, true, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.prefix+sessionID).Err()
}
