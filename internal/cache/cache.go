// Package cache provides a Redis-backed cache for derived read models and
// revoked tokens. Every operation degrades gracefully when Redis is down:
// readers fall through to the source of truth and writers log and move on.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/webatelier/platform/internal/domain/event"
	"github.com/webatelier/platform/internal/logging"
)

// ErrMiss is returned when a key is absent.
var ErrMiss = errors.New("cache miss")

const (
	availabilityTTL = 30 * time.Second
	revocationTTL   = 24 * time.Hour
)

// Cache wraps a Redis client.
type Cache struct {
	client *redis.Client
	logger *logging.Logger
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int, logger *logging.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Cache{client: client, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Ping reports whether Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("cache disabled")
	}
	return c.client.Ping(ctx).Err()
}

func availabilityKey(eventID string) string {
	return "event:availability:" + eventID
}

// GetAvailability returns the cached seat state for an event.
func (c *Cache) GetAvailability(ctx context.Context, eventID string) (event.Availability, error) {
	if c == nil {
		return event.Availability{}, ErrMiss
	}
	raw, err := c.client.Get(ctx, availabilityKey(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return event.Availability{}, ErrMiss
	}
	if err != nil {
		return event.Availability{}, err
	}
	var a event.Availability
	if err := json.Unmarshal(raw, &a); err != nil {
		return event.Availability{}, err
	}
	return a, nil
}

// SetAvailability caches the seat state for an event.
func (c *Cache) SetAvailability(ctx context.Context, a event.Availability) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, availabilityKey(a.EventID), raw, availabilityTTL).Err(); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("cache availability write failed")
	}
}

// InvalidateAvailability drops the cached seat state after a registration
// change.
func (c *Cache) InvalidateAvailability(ctx context.Context, eventID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, availabilityKey(eventID)).Err(); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("cache availability invalidate failed")
	}
}

func revocationKey(tokenID string) string {
	return "auth:revoked:" + tokenID
}

// RevokeToken marks a token ID as revoked until it would have expired anyway.
func (c *Cache) RevokeToken(ctx context.Context, tokenID string) error {
	if c == nil {
		return nil
	}
	return c.client.Set(ctx, revocationKey(tokenID), "1", revocationTTL).Err()
}

// IsTokenRevoked reports whether a token ID has been revoked. Errors are
// treated as not revoked so an unreachable Redis does not lock everyone out.
func (c *Cache) IsTokenRevoked(ctx context.Context, tokenID string) bool {
	if c == nil {
		return false
	}
	n, err := c.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("revocation check failed")
		return false
	}
	return n > 0
}
