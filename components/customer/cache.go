package customer

import (
	"context"
	"sync"
	"time"
)

// RenderCache memoizes rendered fragments per key and variant (locale) so repeated
// refreshes of the same record are cheap.
type RenderCache interface {
	GetOrRender(ctx context.Context, key, variant string, render func() (string, error)) (string, error)
	// Invalidate drops every variant stored under key.
	Invalidate(ctx context.Context, key string) error
}

// FragmentCache is an in-memory TTL cache for rendered fragments.
type FragmentCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]map[string]cachedFragment
}

type cachedFragment struct {
	html    string
	expires time.Time
}

// NewFragmentCache builds a cache with the provided TTL. A non-positive TTL disables caching.
func NewFragmentCache(ttl time.Duration) *FragmentCache {
	return &FragmentCache{
		ttl:     ttl,
		entries: make(map[string]map[string]cachedFragment),
	}
}

// GetOrRender returns a cached entry or renders/stores a new one. Empty
// fragments and render errors are never cached.
func (c *FragmentCache) GetOrRender(_ context.Context, key, variant string, render func() (string, error)) (string, error) {
	if html, ok := c.get(key, variant); ok {
		return html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	if html != "" {
		c.set(key, variant, html)
	}
	return html, nil
}

// Invalidate removes all variants for key.
func (c *FragmentCache) Invalidate(_ context.Context, key string) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *FragmentCache) get(key, variant string) (string, bool) {
	if c == nil || c.ttl <= 0 {
		return "", false
	}
	c.mu.RLock()
	entry, ok := c.entries[key][variant]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		if ok {
			c.mu.Lock()
			delete(c.entries[key], variant)
			c.mu.Unlock()
		}
		return "", false
	}
	return entry.html, true
}

func (c *FragmentCache) set(key, variant, html string) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	variants, ok := c.entries[key]
	if !ok {
		variants = make(map[string]cachedFragment)
		c.entries[key] = variants
	}
	variants[variant] = cachedFragment{
		html:    html,
		expires: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}
