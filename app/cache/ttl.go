package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TTLCache is a size-bounded cache whose entries expire after a fixed TTL.
type TTLCache[V any] struct {
	lru *expirable.LRU[string, V]
}

func NewTTLCache[V any](size int, ttl time.Duration) *TTLCache[V] {
	if size <= 0 {
		size = 256
	}
	return &TTLCache[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

func (c *TTLCache[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}

func (c *TTLCache[V]) Delete(key string) {
	c.lru.Remove(key)
}

func (c *TTLCache[V]) Len() int {
	return c.lru.Len()
}

// Reset drops every entry.
func (c *TTLCache[V]) Reset() {
	c.lru.Purge()
}
