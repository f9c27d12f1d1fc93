// Package cache keeps the last extracted resume text per interview session.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the session has no cached text.
var ErrMiss = errors.New("cache miss")

type TextCache interface {
	Get(ctx context.Context, sessionID string) (string, error)
	Set(ctx context.Context, sessionID, text string) error
	Delete(ctx context.Context, sessionID string) error
}

// Key is the storage key for a session's resume text.
func Key(sessionID string) string {
	if sessionID == "" {
		return "resumeText"
	}
	return fmt.Sprintf("resumeText:%s", sessionID)
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache stores entries without expiry when ttl is zero.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, sessionID string) (string, error) {
	text, err := c.client.Get(ctx, Key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to read cached text: %w", err)
	}
	return text, nil
}

func (c *RedisCache) Set(ctx context.Context, sessionID, text string) error {
	if err := c.client.Set(ctx, Key(sessionID), text, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache text: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached text: %w", err)
	}
	return nil
}

// MemoryCache is a process-local TextCache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, sessionID string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	text, ok := c.items[Key(sessionID)]
	if !ok {
		return "", ErrMiss
	}
	return text, nil
}

func (c *MemoryCache) Set(_ context.Context, sessionID, text string) error {
	c.mu.Lock()
	c.items[Key(sessionID)] = text
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, sessionID string) error {
	c.mu.Lock()
	delete(c.items, Key(sessionID))
	c.mu.Unlock()
	return nil
}
