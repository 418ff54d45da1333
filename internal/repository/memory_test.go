package repository

import (
	"context"
	"testing"

	"pathfinder/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.LoadSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	s := domain.Session{Token: "tok", User: domain.User{ID: 1, Username: "alice"}}
	require.NoError(t, m.SaveSession(ctx, s))

	rec, err := m.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, rec.Session)
	assert.False(t, rec.SavedAt.IsZero())

	// returned record is a copy
	rec.Session.Token = "changed"
	again, err := m.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", again.Session.Token)

	require.NoError(t, m.ClearSession(ctx))
	_, err = m.LoadSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, m.Close())
}

func TestMemorySaveReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SaveSession(ctx, domain.Session{Token: "one"}))
	require.NoError(t, m.SaveSession(ctx, domain.Session{Token: "two"}))

	rec, err := m.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", rec.Session.Token)
}
