package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// CachedResponse is a successful response recorded under an idempotency key.
type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
}

// inFlightTTL bounds a reservation whose holder died before releasing it.
const inFlightTTL = time.Minute

// Store persists cached responses for a bounded time.
type Store interface {
	Get(ctx context.Context, key string) (*CachedResponse, bool, error)
	Set(ctx context.Context, key string, resp *CachedResponse) error
	// Reserve atomically marks key as in flight. It reports false when
	// another request already holds the key.
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisStore keeps responses in Redis so replays work across instances.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "idempotency:", ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*CachedResponse, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var resp CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("decode cached response failed: %w", err)
	}
	return &resp, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, resp *CachedResponse) error {
	resp.CreatedAt = time.Now()
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode cached response failed: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+"inflight:"+key, 1, inFlightTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+"inflight:"+key).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// MemoryStore is a process-local Store used when Redis is not configured.
type MemoryStore struct {
	mu       sync.RWMutex
	store    map[string]*CachedResponse
	inflight map[string]time.Time // key -> reservation expiry
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		store:    make(map[string]*CachedResponse),
		inflight: make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go s.cleanup()
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (*CachedResponse, bool, error) {
	s.mu.RLock()
	resp, ok := s.store[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if s.now().Sub(resp.CreatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.store, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return resp, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, resp *CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp.CreatedAt = s.now()
	s.store[key] = resp
	return nil
}

func (s *MemoryStore) Reserve(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, ok := s.inflight[key]; ok && now.Before(expiry) {
		return false, nil
	}
	s.inflight[key] = now.Add(inFlightTTL)
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inflight, key)
	return nil
}

// Stop ends the background eviction loop.
func (s *MemoryStore) Stop() {
	close(s.stopCh)
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, resp := range s.store {
				if now.Sub(resp.CreatedAt) > s.ttl {
					delete(s.store, key)
				}
			}
			for key, expiry := range s.inflight {
				if !now.Before(expiry) {
					delete(s.inflight, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}
