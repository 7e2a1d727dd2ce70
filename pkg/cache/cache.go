package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// QueryCache memoizes expensive read results in memory. Keys are built from
// an operation name plus its parameters, so entries are independent of any
// particular database connection.
type QueryCache struct {
	data    map[string]*entry
	ttl     time.Duration
	mu      sync.RWMutex
	cleanup *time.Ticker
	done    chan struct{}
}

type entry struct {
	value      any
	expiration time.Time
}

// New creates a cache with the given default TTL and starts the
// background sweep.
func New(ttl time.Duration) *QueryCache {
	c := &QueryCache{
		data:    make(map[string]*entry),
		ttl:     ttl,
		cleanup: time.NewTicker(time.Minute),
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Key builds a cache key from an operation name and its parameters.
// Example: Key("portfolio_summary", fundSet, "EUR", "base").
func Key(op string, params ...any) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, op)
	for _, p := range params {
		parts = append(parts, fmt.Sprintf("%v", p))
	}
	return strings.Join(parts, "|")
}

// Get retrieves a value if present and not expired.
func (c *QueryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiration) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value with the default TTL.
func (c *QueryCache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *QueryCache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &entry{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
}

// GetOrSet returns the cached value for key, or computes, stores and
// returns it.
func (c *QueryCache) GetOrSet(key string, compute func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.Set(key, v)
	return v, nil
}

// Delete removes a single entry.
func (c *QueryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
}

// DeleteByPrefix removes every entry whose key starts with prefix. Write
// paths use this to invalidate all cached reads for a fund.
func (c *QueryCache) DeleteByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
}

// Clear removes all entries.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]*entry)
}

// Size returns the number of live entries, expired ones included until the
// next sweep.
func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// Stop halts the background sweep.
func (c *QueryCache) Stop() {
	c.cleanup.Stop()
	close(c.done)
}

func (c *QueryCache) sweepLoop() {
	for {
		select {
		case <-c.cleanup.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *QueryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.data {
		if now.After(e.expiration) {
			delete(c.data, key)
		}
	}
}
