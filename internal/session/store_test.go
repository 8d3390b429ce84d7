package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	rows      map[string]Session
	saveErr   error
	lookupErr error
	deleteErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{rows: make(map[string]Session)}
}

func (b *fakeBackend) Save(s Session) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	b.rows[s.ID] = s
	return nil
}

func (b *fakeBackend) Lookup(id string) (Session, bool, error) {
	if b.lookupErr != nil {
		return Session{}, false, b.lookupErr
	}
	s, ok := b.rows[id]
	return s, ok, nil
}

func (b *fakeBackend) Delete(id string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.rows, id)
	return nil
}

func (b *fakeBackend) DeleteExpired(cutoff time.Time) (int64, error) {
	var n int64
	for id, s := range b.rows {
		if !s.Valid(cutoff) {
			delete(b.rows, id)
			n++
		}
	}
	return n, nil
}

func TestSessionValidBoundaries(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ttl := 30 * time.Minute
	s := Session{
		ID:        "s1",
		Username:  "admin",
		Role:      RoleAdmin,
		CreatedAt: created,
		ExpiresAt: created.Add(ttl),
	}

	assert.True(t, s.Valid(created))
	assert.True(t, s.Valid(created.Add(ttl-time.Second)))
	assert.False(t, s.Valid(created.Add(ttl)), "session must be invalid exactly at expiry")
	assert.False(t, s.Valid(created.Add(ttl+time.Hour)))

	assert.False(t, Session{ExpiresAt: created.Add(time.Hour)}.Valid(created), "empty role is never valid")
	assert.False(t, Session{Role: RoleUser}.Valid(created), "unset expiry is never valid")
}

func TestStoreCreateAndGet(t *testing.T) {
	backend := newFakeBackend()
	st := NewStore(time.Hour, backend, nil)
	defer st.Close()

	s := st.Create("admin", RoleAdmin)
	require.NotEmpty(t, s.ID)
	assert.Equal(t, "admin", s.Username)
	assert.Equal(t, time.Hour, s.ExpiresAt.Sub(s.CreatedAt))

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, s, got)

	// Creation wrote through to the backend as well.
	_, ok, err := backend.Lookup(s.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok = st.Get("no-such-session")
	assert.False(t, ok)
	_, ok = st.Get("")
	assert.False(t, ok)
}

func TestStoreExpiryWithFrozenClock(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	st := NewStore(time.Hour, nil, nil)
	defer st.Close()
	st.now = func() time.Time { return now }

	s := st.Create("staff", RoleUser)

	now = s.ExpiresAt.Add(-time.Second)
	_, ok := st.Get(s.ID)
	assert.True(t, ok, "valid one second before expiry")

	now = s.ExpiresAt
	_, ok = st.Get(s.ID)
	assert.False(t, ok, "invalid exactly at expiry")

	// The expired session is gone for good, not just hidden.
	now = s.CreatedAt
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
}

func TestStoreRehydratesFromBackend(t *testing.T) {
	backend := newFakeBackend()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	// A previous process wrote this session; the registry starts empty.
	backend.rows["restored"] = Session{
		ID:        "restored",
		Username:  "hr",
		Role:      RoleUser,
		CreatedAt: now.Add(-10 * time.Minute),
		ExpiresAt: now.Add(50 * time.Minute),
	}

	st := NewStore(time.Hour, backend, nil)
	defer st.Close()
	st.now = func() time.Time { return now }

	got, ok := st.Get("restored")
	require.True(t, ok)
	assert.Equal(t, "hr", got.Username)
	assert.Equal(t, 1, st.Count(), "backend hit rehydrates the registry")

	// Expired rows in the backend do not resurrect.
	backend.rows["stale"] = Session{
		ID:        "stale",
		Username:  "old",
		Role:      RoleUser,
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	_, ok = st.Get("stale")
	assert.False(t, ok)
	_, present, err := backend.Lookup("stale")
	require.NoError(t, err)
	assert.False(t, present, "expired backend row is purged on lookup")
}

func TestStoreBackendFailuresAreNonFatal(t *testing.T) {
	backend := newFakeBackend()
	backend.saveErr = errors.New("disk full")
	backend.lookupErr = errors.New("disk full")
	backend.deleteErr = errors.New("disk full")

	st := NewStore(time.Hour, backend, nil)
	defer st.Close()

	s := st.Create("admin", RoleAdmin)
	got, ok := st.Get(s.ID)
	require.True(t, ok, "login works even when persistence is unavailable")
	assert.Equal(t, s.ID, got.ID)

	st.Destroy(s.ID)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
}

func TestStoreDestroy(t *testing.T) {
	backend := newFakeBackend()
	st := NewStore(time.Hour, backend, nil)
	defer st.Close()

	s := st.Create("admin", RoleAdmin)
	st.Destroy(s.ID)

	_, ok := st.Get(s.ID)
	assert.False(t, ok)
	_, present, err := backend.Lookup(s.ID)
	require.NoError(t, err)
	assert.False(t, present, "logout removes the persisted copy too")
	assert.Equal(t, 0, st.Count())
}

func TestStoreSweep(t *testing.T) {
	backend := newFakeBackend()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	st := NewStore(time.Hour, backend, nil)
	defer st.Close()
	st.now = func() time.Time { return now }

	live := st.Create("admin", RoleAdmin)
	dead := st.Create("staff", RoleUser)

	now = now.Add(30 * time.Minute)
	// Force one of them past its expiry.
	st.mu.Lock()
	d := st.sessions[dead.ID]
	d.ExpiresAt = now.Add(-time.Minute)
	st.sessions[dead.ID] = d
	st.mu.Unlock()
	backend.rows[dead.ID] = d

	swept := st.Sweep()
	assert.Equal(t, int64(1), swept)
	assert.Equal(t, 1, st.Count())

	_, ok := st.Get(live.ID)
	assert.True(t, ok)
}
