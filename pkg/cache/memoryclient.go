package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryClient is an in-process Client backed by ttlcache. Values are kept as JSON
// bytes, so every Get decodes a fresh copy. Reads do not extend an entry's lifetime;
// when the capacity is reached the least recently used entry is evicted.
type MemoryClient struct {
	items *ttlcache.Cache[string, []byte]
}

func NewMemoryClient(capacity int) *MemoryClient {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryClient{
		items: ttlcache.New[string, []byte](
			ttlcache.WithCapacity[string, []byte](uint64(capacity)),
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

func (c *MemoryClient) Get(_ context.Context, key string, dest interface{}) error {
	item := c.items.Get(key)
	if item == nil || item.IsExpired() {
		return ErrMiss
	}
	return json.Unmarshal(item.Value(), dest)
}

// Set stores value for ttl. A non-positive ttl removes the key instead.
func (c *MemoryClient) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		c.items.Delete(key)
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items.Set(key, b, ttl)
	return nil
}

func (c *MemoryClient) Del(_ context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

// Len reports the number of live entries.
func (c *MemoryClient) Len() int {
	c.items.DeleteExpired()
	return c.items.Len()
}
