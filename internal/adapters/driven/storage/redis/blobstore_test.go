package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore connects to PDFQA_TEST_REDIS_ADDR, skipping when it is unset.
func testStore(t *testing.T) *BlobStore {
	t.Helper()
	addr := os.Getenv("PDFQA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PDFQA_TEST_REDIS_ADDR not set")
	}
	s := NewBlobStore(Options{Address: addr, TTL: time.Minute})
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Ping(ctx))
	return s
}

func TestDefaultOptions(t *testing.T) {
	assert.Equal(t, "localhost:6379", DefaultOptions().Address)
}

func TestBlobStore_Unreachable(t *testing.T) {
	s := NewBlobStore(Options{Address: "127.0.0.1:1"})
	defer s.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, s.Ping(ctx))
	assert.Error(t, s.Put(ctx, "k", []byte("x")))
	_, ok, err := s.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestBlobStore_PutGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	key := uuid.NewString()

	_, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, key, []byte{0, 1, 2, 255}))

	data, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0, 1, 2, 255}, data)

	ttl, err := s.client.TTL(ctx, KeyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
