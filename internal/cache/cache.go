// Package cache keeps list snapshots between fetches. Snapshots are keyed by
// the query that produced them and invalidated per list type after a save.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Key identifies one snapshot query.
type Key struct {
	ListType string
	StatusIn string
	Sort     string
}

// NewKey builds a key from the query options.
func NewKey[S ~string](listType string, statusIn []S, sort []string) Key {
	statuses := make([]string, len(statusIn))
	for i, s := range statusIn {
		statuses[i] = string(s)
	}
	return Key{
		ListType: listType,
		StatusIn: strings.Join(statuses, ","),
		Sort:     strings.Join(sort, ","),
	}
}

// String formats the key as "list_{type}_{statuses}_{sort}".
func (k Key) String() string {
	return fmt.Sprintf("list_%s_%s_%s", k.ListType, k.StatusIn, k.Sort)
}

// Store caches values by Key.
type Store[V any] interface {
	Get(key Key) (V, bool)
	Set(key Key, value V)
	// Invalidate drops every key of a list type.
	Invalidate(listType string)
}

type entry[V any] struct {
	value    V
	cachedAt time.Time
}

// Memory is an in-process Store. Entries older than ttl are treated as
// missing; a zero ttl keeps them until invalidated.
type Memory[V any] struct {
	entries map[Key]entry[V]
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory[V any](ttl time.Duration) *Memory[V] {
	return &Memory[V]{
		entries: make(map[Key]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a cached value.
func (c *Memory[V]) Get(key Key) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || (c.ttl > 0 && c.now().Sub(e.cachedAt) > c.ttl) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value.
func (c *Memory[V]) Set(key Key, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, cachedAt: c.now()}
}

// Invalidate drops every key of a list type.
func (c *Memory[V]) Invalidate(listType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if k.ListType == listType {
			delete(c.entries, k)
		}
	}
}

// Size returns the number of cached entries, expired ones included.
func (c *Memory[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
