package condition

import (
	"container/list"
	"encoding/json"
	"sync"
)

// Cache is a thread-safe LRU cache of parsed Expression trees, keyed by the
// node's raw payload. conditional_split nodes are evaluated on every tick a
// matching execution is due, so parsing the same payload repeatedly would be
// wasted work; this mirrors the teacher's ConditionCache in shape (an
// container/list-backed LRU guarded by a mutex) but caches parsed
// Expression trees instead of compiled expr-lang programs, since tree
// conditions are this package's primary mechanism.
type Cache struct {
	capacity int
	mu       sync.RWMutex
	entries  map[string]*list.Element
	order    *list.List
}

type cacheEntry struct {
	key  string
	expr *Expression
}

// NewCache creates an LRU cache with the given capacity. A non-positive
// capacity falls back to a default of 100 entries.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 100
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached Expression for raw, if present.
func (c *Cache) Get(raw map[string]any) (*Expression, bool) {
	key, err := cacheKey(raw)
	if err != nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).expr, true
}

func (c *Cache) put(key string, expr *Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).expr = expr
		return
	}

	el := c.order.PushFront(&cacheEntry{key: key, expr: expr})
	c.entries[key] = el

	if c.order.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *Cache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.order.Remove(oldest)
	delete(c.entries, oldest.Value.(*cacheEntry).key)
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order = list.New()
}

// ParseAndCache parses raw into an Expression, consulting and then
// populating the cache so repeated payloads skip re-parsing.
func (c *Cache) ParseAndCache(raw map[string]any) (*Expression, error) {
	if expr, ok := c.Get(raw); ok {
		return expr, nil
	}

	expr, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	key, err := cacheKey(raw)
	if err == nil {
		c.put(key, expr)
	}
	return expr, nil
}

// cacheKey canonicalizes raw into a stable string key via its JSON encoding.
// encoding/json sorts map keys alphabetically, so equal payloads always
// produce the same key.
func cacheKey(raw map[string]any) (string, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
