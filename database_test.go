package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffLookupPortal/internal/session"
)

func TestSQLSessionBackendRoundTrip(t *testing.T) {
	db, err := openDatabase(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	defer db.Close()

	backend := newSQLSessionBackend(db)
	now := time.Now().UTC().Truncate(time.Second)
	s := session.Session{
		ID:        "sess-1",
		Username:  "admin",
		Role:      session.RoleAdmin,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, backend.Save(s))

	got, ok, err := backend.Lookup("sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s.Username, got.Username)
	assert.Equal(t, s.Role, got.Role)
	assert.True(t, got.ExpiresAt.Equal(s.ExpiresAt))

	// Saving the same ID again replaces the row.
	s.ExpiresAt = now.Add(2 * time.Hour)
	require.NoError(t, backend.Save(s))
	got, ok, err = backend.Lookup("sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.ExpiresAt.Equal(s.ExpiresAt))

	_, ok, err = backend.Lookup("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Delete("sess-1"))
	_, ok, err = backend.Lookup("sess-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLSessionBackendDeleteExpired(t *testing.T) {
	db, err := openDatabase(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	defer db.Close()

	backend := newSQLSessionBackend(db)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, backend.Save(session.Session{
		ID: "live", Username: "a", Role: session.RoleUser,
		CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, backend.Save(session.Session{
		ID: "dead", Username: "b", Role: session.RoleUser,
		CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}))

	n, err := backend.DeleteExpired(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err := backend.Lookup("dead")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = backend.Lookup("live")
	require.NoError(t, err)
	assert.True(t, ok)
}
