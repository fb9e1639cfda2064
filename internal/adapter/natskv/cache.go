// Package natskv implements the cache port using NATS JetStream KV as the
// shared L2 cache between resolver processes.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/ideai-platform/sitetree/internal/port/cache"
)

// Cache wraps a NATS JetStream KeyValue store as an L2 cache.
type Cache struct {
	kv jetstream.KeyValue
}

var _ cache.Cache = (*Cache)(nil)

// New creates a NATS KV-backed cache.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv}
}

// NewBucket ensures the named KV bucket exists and returns a Cache over it.
// TTL applies bucket-wide and per-entry TTLs passed to Set are ignored, so
// the bucket adopts the shortest of the given entry classes. Entries from a
// longer-lived class expire early rather than outliving their class.
func NewBucket(ctx context.Context, js jetstream.JetStream, bucket string, ttls ...time.Duration) (*Cache, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    bucketTTL(ttls),
	})
	if err != nil {
		return nil, fmt.Errorf("create kv bucket %s: %w", bucket, err)
	}
	return &Cache{kv: kv}, nil
}

// bucketTTL picks the shortest positive TTL. Zero means no expiry in
// JetStream, so zero classes never win over a bounded one.
func bucketTTL(ttls []time.Duration) time.Duration {
	var min time.Duration
	for _, ttl := range ttls {
		if ttl <= 0 {
			continue
		}
		if min == 0 || ttl < min {
			min = ttl
		}
	}
	return min
}

// Get retrieves a value from the NATS KV store.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	entry, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry.Value(), true, nil
}

// Set stores a value in the NATS KV store. TTL is managed at bucket level.
func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	_, err := c.kv.Put(ctx, key, value)
	return err
}

// Delete removes a value from the NATS KV store.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}
