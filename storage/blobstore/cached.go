package blobstore

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
)

// Cached is a read-through, write-through TTL cache in front of another BlobStore.
// It assumes it is the only writer of the underlying store.
type Cached struct {
	next  core.BlobStore
	cache *cache.Cache
}

var _ core.BlobStore = (*Cached)(nil)

func NewCached(next core.BlobStore, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (c *Cached) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.cache.Get(key); ok {
		return append([]byte(nil), v.([]byte)...), nil
	}
	data, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, append([]byte(nil), data...), cache.DefaultExpiration)
	return data, nil
}

func (c *Cached) Put(ctx context.Context, key string, data []byte) error {
	if err := c.next.Put(ctx, key, data); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, append([]byte(nil), data...), cache.DefaultExpiration)
	return nil
}

func (c *Cached) Delete(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return c.next.Delete(ctx, key)
}

func (c *Cached) Keys(ctx context.Context) ([]string, error) {
	keys, err := c.next.Keys(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing cached store")
	}
	return keys, nil
}

// Flush drops every cached blob.
func (c *Cached) Flush() {
	c.cache.Flush()
}
