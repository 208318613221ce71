package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}), time.Minute), srv
}

func TestRedisCache_Flights(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	miss, err := c.GetFlights(ctx)
	require.NoError(t, err)
	assert.Nil(t, miss)

	flights := []domain.Flight{{FlightReference: "FL123", AvailableSeats: 100}}
	require.NoError(t, c.SetFlights(ctx, flights))
	assert.Equal(t, time.Minute, srv.TTL("cache:flights"))

	hit, err := c.GetFlights(ctx)
	require.NoError(t, err)
	assert.Equal(t, flights, hit)

	require.NoError(t, c.InvalidateFlights(ctx))
	miss, err = c.GetFlights(ctx)
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestRedisCache_IdempotencyKey(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	ok, err := c.ClaimIdempotencyKey(ctx, "booking-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ClaimIdempotencyKey(ctx, "booking-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, srv.Exists("idempotency:decrement:booking-1"))

	require.NoError(t, c.ReleaseIdempotencyKey(ctx, "booking-1"))
	ok, err = c.ClaimIdempotencyKey(ctx, "booking-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}
