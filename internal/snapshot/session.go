package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one operator's working copy of the inputs. It is hydrated from
// the store on first use; keys already set in the session win over saved ones.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu         sync.RWMutex
	state      Snapshot
	hydrated   bool
	dirty      bool
	version    uint64 // bumped on every write
	lastAccess time.Time
}

func newSession() *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.New(),
		CreatedAt:  now,
		state:      Snapshot{},
		lastAccess: now,
	}
}

// Hydrate loads saved values into keys the session does not have yet. It
// runs once until Clear is called.
func (s *Session) Hydrate(ctx context.Context, store Store, logger *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hydrated {
		return
	}
	for k, v := range LoadOrEmpty(ctx, store, logger) {
		if _, ok := s.state[k]; !ok {
			s.state[k] = v
		}
	}
	s.hydrated = true
}

// Hydrated reports whether saved values were already loaded.
func (s *Session) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Get returns a single value.
func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state[key]
	return v, ok
}

// Set stores a single value.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = parseDateLike(value)
	s.dirty = true
	s.version++
}

// Merge stores several values at once.
func (s *Session) Merge(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.state[k] = parseDateLike(v)
	}
	if len(values) > 0 {
		s.dirty = true
		s.version++
	}
}

// State returns a copy of the session values.
func (s *Session) State() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Dirty reports whether there are changes not yet persisted.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Persist saves every key carrying one of the prefixes. Failures are logged
// and leave the session dirty for the next attempt, as do writes that land
// while the save is in flight.
func (s *Session) Persist(ctx context.Context, store Store, prefixes []string, logger *zap.Logger) bool {
	s.mu.RLock()
	out := s.state.WithPrefixes(prefixes...)
	version := s.version
	s.mu.RUnlock()

	if !SaveBestEffort(ctx, store, out, logger) {
		return false
	}

	s.mu.Lock()
	if s.version == version {
		s.dirty = false
	}
	s.mu.Unlock()
	return true
}

// Reset restores a crop's defaults and persists.
func (s *Session) Reset(ctx context.Context, store Store, crop Crop, prefixes []string, logger *zap.Logger) bool {
	s.Merge(crop.Defaults)
	return s.Persist(ctx, store, prefixes, logger)
}

// Clear drops every key with one of the prefixes, so the next Hydrate reads
// the saved values again.
func (s *Session) Clear(prefixes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.state {
		if hasAnyPrefix(k, prefixes) {
			delete(s.state, k)
		}
	}
	s.hydrated = false
	s.dirty = false
	s.version++
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}

// SessionCache keeps live sessions in memory and expires idle ones.
type SessionCache struct {
	data    map[uuid.UUID]*Session
	ttl     time.Duration
	mu      sync.RWMutex
	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once
}

// NewSessionCache creates a cache whose sessions expire after ttl of inactivity.
func NewSessionCache(ttl time.Duration) *SessionCache {
	cache := &SessionCache{
		data:    make(map[uuid.UUID]*Session),
		ttl:     ttl,
		cleanup: time.NewTicker(time.Minute),
		done:    make(chan struct{}),
	}

	go cache.cleanupLoop()

	return cache
}

// Create opens a new empty session.
func (c *SessionCache) Create() *Session {
	s := newSession()

	c.mu.Lock()
	c.data[s.ID] = s
	c.mu.Unlock()

	return s
}

// Get returns a live session and refreshes its expiry.
func (c *SessionCache) Get(id uuid.UUID) (*Session, bool) {
	c.mu.RLock()
	s, ok := c.data[id]
	c.mu.RUnlock()
	if !ok || c.expired(s, time.Now()) {
		return nil, false
	}
	s.touch()
	return s, true
}

// Delete removes a session.
func (c *SessionCache) Delete(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
}

// Size returns the number of sessions held.
func (c *SessionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Sessions returns the live sessions.
func (c *SessionCache) Sessions() []*Session {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Session, 0, len(c.data))
	for _, s := range c.data {
		out = append(out, s)
	}
	return out
}

func (c *SessionCache) expired(s *Session, now time.Time) bool {
	return c.ttl > 0 && now.Sub(s.idleSince()) > c.ttl
}

func (c *SessionCache) cleanupLoop() {
	for {
		select {
		case <-c.cleanup.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *SessionCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, s := range c.data {
		if c.expired(s, now) {
			delete(c.data, id)
		}
	}
}

// Stop stops the cleanup goroutine.
func (c *SessionCache) Stop() {
	c.once.Do(func() {
		c.cleanup.Stop()
		close(c.done)
	})
}
