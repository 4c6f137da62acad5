package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingHandler(calls *int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"call":%d}`, n)
	})
}

func post(h http.Handler, path, key, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(DefaultIdempotencyHeader, key)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func runIdempotencySuite(t *testing.T, newStore func(t *testing.T) IdempotencyStore) {
	t.Run("replays successful response", func(t *testing.T) {
		var calls int32
		h := Idempotency(newStore(t), "", testLogger())(countingHandler(&calls, http.StatusCreated))

		first := post(h, "/api/v1/bookings", "k1", "Bearer a")
		second := post(h, "/api/v1/bookings", "k1", "Bearer a")

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	})

	t.Run("does not cache failures", func(t *testing.T) {
		var calls int32
		h := Idempotency(newStore(t), "", testLogger())(countingHandler(&calls, http.StatusBadRequest))

		post(h, "/api/v1/bookings", "k2", "Bearer a")
		post(h, "/api/v1/bookings", "k2", "Bearer a")
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("keys are scoped per credential and path", func(t *testing.T) {
		var calls int32
		h := Idempotency(newStore(t), "", testLogger())(countingHandler(&calls, http.StatusOK))

		post(h, "/api/v1/bookings", "k3", "Bearer a")
		post(h, "/api/v1/bookings", "k3", "Bearer b")
		post(h, "/api/v1/services", "k3", "Bearer a")
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("requests without key always run", func(t *testing.T) {
		var calls int32
		h := Idempotency(newStore(t), "", testLogger())(countingHandler(&calls, http.StatusOK))

		post(h, "/api/v1/bookings", "", "Bearer a")
		post(h, "/api/v1/bookings", "", "Bearer a")
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})
}

func TestIdempotency_InMemoryStore(t *testing.T) {
	runIdempotencySuite(t, func(t *testing.T) IdempotencyStore {
		store := NewInMemoryIdempotencyStore(time.Hour)
		t.Cleanup(store.Stop)
		return store
	})
}

func TestIdempotency_RedisStore(t *testing.T) {
	runIdempotencySuite(t, func(t *testing.T) IdempotencyStore {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return NewRedisIdempotencyStore(client, time.Hour)
	})
}

func TestInMemoryIdempotencyStore_Expires(t *testing.T) {
	store := NewInMemoryIdempotencyStore(10 * time.Millisecond)
	defer store.Stop()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", &CachedResponse{StatusCode: http.StatusOK}))
	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(20 * time.Millisecond)
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisIdempotencyStore_TTLAndFirstWriteWins(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisIdempotencyStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", &CachedResponse{StatusCode: http.StatusCreated, Body: []byte("first")}))
	require.NoError(t, store.Set(ctx, "k", &CachedResponse{StatusCode: http.StatusOK, Body: []byte("second")}))

	cached, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, http.StatusCreated, cached.StatusCode)
	assert.Equal(t, []byte("first"), cached.Body)

	mr.FastForward(2 * time.Minute)
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisIdempotencyStore_ErrorsWhenUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewRedisIdempotencyStore(client, time.Minute)
	mr.Close()

	_, found, err := store.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, found)

	var calls int32
	h := Idempotency(store, "", testLogger())(countingHandler(&calls, http.StatusOK))
	rec := post(h, "/api/v1/bookings", "k", "Bearer a")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
