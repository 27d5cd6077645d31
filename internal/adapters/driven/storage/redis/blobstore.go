// Package redis provides a BlobStore backed by a Redis server, so several
// processes can share built indices.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// KeyPrefix namespaces index blobs in a shared Redis database.
const KeyPrefix = "pdfqa:index:"

// Options holds configuration for connecting to a Redis server.
type Options struct {
	// Address is the host:port of the Redis server.
	Address string
	// Password is the password used to authenticate.
	Password string
	// DB is the database index to select.
	DB int
	// TTL expires entries after the given duration. Zero keeps them forever.
	TTL time.Duration
}

// DefaultOptions returns Options with localhost defaults (no password, DB 0).
func DefaultOptions() Options {
	return Options{
		Address: "localhost:6379",
	}
}

// BlobStore stores index blobs as Redis strings.
type BlobStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewBlobStore opens a client. No connection is made until first use; call
// Ping to check reachability up front.
func NewBlobStore(options Options) *BlobStore {
	if options.Address == "" {
		options.Address = DefaultOptions().Address
	}
	slog.Debug("opening redis blob store", "address", options.Address, "db", options.DB)
	return &BlobStore{
		client: goredis.NewClient(&goredis.Options{
			Addr:     options.Address,
			Password: options.Password,
			DB:       options.DB,
		}),
		ttl: options.TTL,
	}
}

// Ping tests connectivity to Redis.
func (s *BlobStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}
	return nil
}

// Put stores data under key, replacing any previous value.
func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, KeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Get returns the data stored under key.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return data, true, nil
}

// Close closes the client connection pool.
func (s *BlobStore) Close() error {
	return s.client.Close()
}
