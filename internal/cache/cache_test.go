package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/webatelier/platform/internal/domain/event"
)

// A nil cache stands in for a disabled Redis; every operation must be a
// safe no-op so callers never branch on configuration.
func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	_, err := c.GetAvailability(ctx, "e-1")
	assert.ErrorIs(t, err, ErrMiss)

	// Writers and invalidation must not panic.
	c.SetAvailability(ctx, event.Availability{EventID: "e-1", Capacity: 10})
	c.InvalidateAvailability(ctx, "e-1")

	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(ctx))

	assert.NoError(t, c.RevokeToken(ctx, "tok-1"))
	assert.False(t, c.IsTokenRevoked(ctx, "tok-1"))
}

func TestAvailabilityKey(t *testing.T) {
	assert.Equal(t, "event:availability:e-42", availabilityKey("e-42"))
}
