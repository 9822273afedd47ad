package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultProcessedTTL outlives every processor's redelivery window.
const DefaultProcessedTTL = 7 * 24 * time.Hour

// ProcessedStore records webhook events that were already handled.
type ProcessedStore interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	// MarkProcessed returns false if the event was already marked.
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

func processedKey(provider, eventID string) string {
	return "webhook:processed:" + provider + ":" + eventID
}

// ======================================================
// REDIS
// ======================================================

type RedisProcessedStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProcessedStore(client *redis.Client, ttl time.Duration) *RedisProcessedStore {
	if ttl <= 0 {
		ttl = DefaultProcessedTTL
	}
	return &RedisProcessedStore{client: client, ttl: ttl}
}

// NewRedisClient connects and pings within two seconds.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisProcessedStore) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, processedKey(provider, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("cache: check processed: %w", err)
	}
	return n > 0, nil
}

func (s *RedisProcessedStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, processedKey(provider, eventID), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache: mark processed: %w", err)
	}
	return ok, nil
}

// ======================================================
// IN-PROCESS
// ======================================================

// MemoryProcessedStore serves single-instance deployments without redis.
type MemoryProcessedStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryProcessedStore(ttl time.Duration) *MemoryProcessedStore {
	if ttl <= 0 {
		ttl = DefaultProcessedTTL
	}
	return &MemoryProcessedStore{
		seen: map[string]time.Time{},
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *MemoryProcessedStore) AlreadyProcessed(_ context.Context, provider, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.seen[processedKey(provider, eventID)]
	return ok && s.now().Before(exp), nil
}

func (s *MemoryProcessedStore) MarkProcessed(_ context.Context, provider, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.seen {
		if !now.Before(exp) {
			delete(s.seen, k)
		}
	}

	key := processedKey(provider, eventID)
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = now.Add(s.ttl)
	return true, nil
}
