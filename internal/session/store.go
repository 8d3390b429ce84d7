package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Backend is a secondary, persistent session store. The in-memory registry is
// authoritative; the backend only exists so sessions survive a restart, the way
// the portal's durable store outlives a single browser tab.
type Backend interface {
	Save(s Session) error
	Lookup(id string) (Session, bool, error)
	Delete(id string) error
	DeleteExpired(cutoff time.Time) (int64, error)
}

// Store is the primary session registry. Every live session owns exactly one
// expiry timer, canceled on logout so a stale callback can never fire after a
// fresh login reuses the slot.
type Store struct {
	ttl     time.Duration
	backend Backend
	log     logrus.FieldLogger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
	timers   map[string]*time.Timer
}

// NewStore creates a session store with the given fixed TTL. backend may be
// nil, in which case sessions are memory-only.
func NewStore(ttl time.Duration, backend Backend, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		ttl:      ttl,
		backend:  backend,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]Session),
		timers:   make(map[string]*time.Timer),
	}
}

// Create registers a new session for the given user. The TTL is fixed from this
// moment. A backend write failure is logged and swallowed: persistence degrades,
// the login does not fail.
func (st *Store) Create(username, role string) Session {
	now := st.now()
	s := Session{
		ID:        uuid.NewString(),
		Username:  username,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(st.ttl),
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.scheduleLocked(s.ID, st.ttl)
	st.mu.Unlock()

	if st.backend != nil {
		if err := st.backend.Save(s); err != nil {
			st.log.WithFields(logrus.Fields{
				"session_id": s.ID,
				"username":   username,
			}).WithError(err).Warn("Session not persisted; continuing memory-only")
		}
	}
	return s
}

// Get returns the session for id if it is still valid. The registry is checked
// first; on a miss the backend is consulted and, when it still holds a valid
// session, the registry is rehydrated from it (including a fresh expiry timer
// for the remaining lifetime).
func (st *Store) Get(id string) (Session, bool) {
	if id == "" {
		return Session{}, false
	}
	now := st.now()

	st.mu.Lock()
	if s, ok := st.sessions[id]; ok {
		if s.Valid(now) {
			st.mu.Unlock()
			return s, true
		}
		st.dropLocked(id)
		st.mu.Unlock()
		st.backendDelete(id)
		return Session{}, false
	}
	st.mu.Unlock()

	if st.backend == nil {
		return Session{}, false
	}

	s, ok, err := st.backend.Lookup(id)
	if err != nil {
		st.log.WithField("session_id", id).WithError(err).Warn("Session backend lookup failed")
		return Session{}, false
	}
	if !ok {
		return Session{}, false
	}
	if !s.Valid(now) {
		st.backendDelete(id)
		return Session{}, false
	}

	st.mu.Lock()
	st.sessions[id] = s
	st.scheduleLocked(id, s.Remaining(now))
	st.mu.Unlock()
	return s, true
}

// Destroy ends a session: the expiry timer is canceled and the session is
// removed from both stores.
func (st *Store) Destroy(id string) {
	st.mu.Lock()
	st.dropLocked(id)
	st.mu.Unlock()
	st.backendDelete(id)
}

// Sweep purges expired sessions from both stores. It is meant to run
// periodically; the per-session timers already handle the common case.
func (st *Store) Sweep() int64 {
	now := st.now()

	st.mu.Lock()
	for id, s := range st.sessions {
		if !s.Valid(now) {
			st.dropLocked(id)
		}
	}
	st.mu.Unlock()

	if st.backend == nil {
		return 0
	}
	n, err := st.backend.DeleteExpired(now)
	if err != nil {
		st.log.WithError(err).Warn("Session sweep failed")
		return 0
	}
	return n
}

// Count returns the number of sessions currently held in the registry.
func (st *Store) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Close cancels all outstanding expiry timers.
func (st *Store) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, t := range st.timers {
		t.Stop()
		delete(st.timers, id)
	}
}

func (st *Store) scheduleLocked(id string, d time.Duration) {
	if t, ok := st.timers[id]; ok {
		t.Stop()
	}
	st.timers[id] = time.AfterFunc(d, func() { st.expire(id) })
}

func (st *Store) expire(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok && s.Valid(st.now()) {
		// Rehydration rescheduled the timer; leave the session alone.
		st.mu.Unlock()
		return
	}
	st.dropLocked(id)
	st.mu.Unlock()

	if ok {
		st.backendDelete(id)
		st.log.WithFields(logrus.Fields{
			"session_id": id,
			"username":   s.Username,
		}).Info("Session expired")
	}
}

func (st *Store) dropLocked(id string) {
	if t, ok := st.timers[id]; ok {
		t.Stop()
		delete(st.timers, id)
	}
	delete(st.sessions, id)
}

func (st *Store) backendDelete(id string) {
	if st.backend == nil {
		return
	}
	if err := st.backend.Delete(id); err != nil {
		st.log.WithField("session_id", id).WithError(err).Warn("Session backend delete failed")
	}
}
