package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Token cache keys and lifetime. QuickBooks bearer tokens are valid for an
// hour; the cache expires slightly earlier to avoid handing out a token
// that dies mid-request.
const (
	tokenKeyFmt = "uac:token:%s"
	TokenTTL    = 55 * time.Minute
)

// TokenStore caches short-lived platform access tokens per organization.
type TokenStore interface {
	GetToken(ctx context.Context, organizationID string) (string, bool)
	SetToken(ctx context.Context, organizationID, token string)
	InvalidateToken(ctx context.Context, organizationID string)
}

// Connect opens and pings a Redis client. Callers fall back to the
// in-memory stores when it returns an error.
func Connect(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func tokenKey(organizationID string) string {
	return fmt.Sprintf(tokenKeyFmt, organizationID)
}

// RedisTokenStore keeps tokens in Redis so they survive restarts and are
// shared across instances.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) GetToken(ctx context.Context, organizationID string) (string, bool) {
	token, err := s.client.Get(ctx, tokenKey(organizationID)).Result()
	if err == nil {
		return token, true
	}
	if err != redis.Nil {
		log.Printf("[Redis] token lookup failed for %s: %v", organizationID, err)
	}
	return "", false
}

func (s *RedisTokenStore) SetToken(ctx context.Context, organizationID, token string) {
	if err := s.client.Set(ctx, tokenKey(organizationID), token, TokenTTL).Err(); err != nil {
		log.Printf("[Redis] token cache write failed for %s: %v", organizationID, err)
	}
}

func (s *RedisTokenStore) InvalidateToken(ctx context.Context, organizationID string) {
	s.client.Del(ctx, tokenKey(organizationID))
}

type memoryToken struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenStore is the fallback used when Redis is unreachable, so a
// cache outage degrades to per-process token caching instead of failures.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]memoryToken
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: map[string]memoryToken{}}
}

func (s *MemoryTokenStore) GetToken(_ context.Context, organizationID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.tokens[tokenKey(organizationID)]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.value, true
}

func (s *MemoryTokenStore) SetToken(_ context.Context, organizationID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenKey(organizationID)] = memoryToken{value: token, expiresAt: time.Now().Add(TokenTTL)}
}

func (s *MemoryTokenStore) InvalidateToken(_ context.Context, organizationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenKey(organizationID))
}
