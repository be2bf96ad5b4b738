package gateway

import (
	"sync"
	"time"
)

type cachedProfile struct {
	profile   Profile
	fetchedAt time.Time
}

// ProfileCache memoizes profiles per user id for one display session.
// Reset starts a new session. A zero ttl keeps entries until Reset.
type ProfileCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedProfile
}

// NewProfileCache creates an empty cache.
func NewProfileCache(ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedProfile),
	}
}

// Get returns the cached profile for userID if present and not expired.
func (c *ProfileCache) Get(userID string) (Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[userID]
	if !ok {
		return Profile{}, false
	}
	if c.ttl > 0 && c.now().Sub(entry.fetchedAt) > c.ttl {
		delete(c.entries, userID)
		return Profile{}, false
	}
	return entry.profile, true
}

// Put stores a profile for userID.
func (c *ProfileCache) Put(userID string, p Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = cachedProfile{profile: p, fetchedAt: c.now()}
}

// Reset drops every entry and returns how many were removed.
func (c *ProfileCache) Reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]cachedProfile)
	return n
}

// Len returns the number of cached entries.
func (c *ProfileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
