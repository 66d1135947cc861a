package session

import (
	"sync"
	"time"

	"ai-trip-planner/internal/trip"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// entry wraps a session with its serialization lock. All work for one session
// id runs under this lock, so turns for the same session never interleave.
type entry struct {
	mu      sync.Mutex
	session *Session
}

// Store keeps one Session per active conversation, expiring idle sessions
// after the TTL. Safe for concurrent use across sessions.
type Store struct {
	cache *gocache.Cache
	now   func() time.Time
}

// NewStore creates a Store with the given idle TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		cache: gocache.New(ttl, ttl/2+time.Second),
		now:   time.Now,
	}
}

// Create registers a new empty session and returns its id.
func (st *Store) Create() string {
	id := uuid.NewString()
	now := st.now()
	st.cache.SetDefault(id, &entry{
		session: &Session{
			ID:        id,
			State:     StateAwaitingPreferences,
			CreatedAt: now,
			UpdatedAt: now,
		},
	})
	return id
}

// Get returns a snapshot of the session, or SessionNotFound.
func (st *Store) Get(id string) (*Session, error) {
	v, ok := st.cache.Get(id)
	if !ok {
		return nil, trip.NewSessionNotFound(id)
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.clone(), nil
}

// Apply atomically reads, mutates, and writes back the session. The mutator
// receives a private copy; the write happens only when it returns nil, so a
// failed mutation leaves the stored session untouched and retries are safe.
// Touching the session also refreshes its idle TTL.
func (st *Store) Apply(id string, mutate func(*Session) error) error {
	v, ok := st.cache.Get(id)
	if !ok {
		return trip.NewSessionNotFound(id)
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.session.clone()
	if err := mutate(work); err != nil {
		return err
	}
	work.UpdatedAt = st.now()
	e.session = work
	st.cache.SetDefault(id, e)
	return nil
}

// ExpireIdle drops sessions idle past the TTL. go-cache already sweeps on its
// own; this forces an immediate pass (used by tests and the cleanup command).
func (st *Store) ExpireIdle() {
	st.cache.DeleteExpired()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	return st.cache.ItemCount()
}
