package session

import "sync"

// Cache maps session id to *Session, keyed behind a single reader/writer
// lock as described in spec §5 ("contention is keyed per map, not per
// session"). There is no automatic eviction; callers remove entries
// explicitly.
type Cache struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewCache creates an empty session cache.
func NewCache() *Cache {
	return &Cache{sessions: make(map[string]*Session)}
}

// Get returns the session for id, if present.
func (c *Cache) Get(sid string) (*Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[sid]
	return s, ok
}

// GetOrCreate returns the existing session for sid, or creates and stores
// a new one with that id (or a fresh minted id if sid is empty).
func (c *Cache) GetOrCreate(sid string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sid != "" {
		if s, ok := c.sessions[sid]; ok {
			return s
		}
	}
	s := New(sid)
	c.sessions[s.ID] = s
	return s
}

// Delete removes a session from the cache.
func (c *Cache) Delete(sid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sid)
}

// Len returns the number of cached sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
