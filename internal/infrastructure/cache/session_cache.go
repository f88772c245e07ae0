package cache

import (
	"sync"
	"time"

	"audit-hub/internal/domain"
)

// cacheEntry represents a cached validated session.
type cacheEntry struct {
	session   domain.CachedSession
	expiresAt time.Time
}

// SessionCache provides thread-safe in-memory session caching with TTL.
// Implements domain.SessionCache.
type SessionCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	stop    chan struct{}
}

// NewSessionCache creates a new session cache with the specified TTL.
func NewSessionCache(ttl time.Duration) *SessionCache {
	c := &SessionCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get retrieves a cached session by its session token.
func (c *SessionCache) Get(token string) (*domain.CachedSession, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[token]
	if !found || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return &entry.session, true
}

// Set stores session data in the cache.
func (c *SessionCache) Set(token string, session domain.CachedSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[token] = &cacheEntry{
		session:   session,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate removes a session entry; used on sign-out so stale validated
// state cannot outlive the provider session.
func (c *SessionCache) Invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, token)
}

// Close stops the background cleanup loop.
func (c *SessionCache) Close() {
	close(c.stop)
}

// cleanup removes expired entries.
func (c *SessionCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
		}
	}
}

// cleanupLoop runs periodic cleanup of expired entries.
func (c *SessionCache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}
