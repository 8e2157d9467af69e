package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlaserp/portal-gateway/internal/errors"
	"github.com/atlaserp/portal-gateway/sessions"
)

func newSession(userID, rawRefresh string, ttl time.Duration) *sessions.Session {
	return &sessions.Session{
		UserID:           userID,
		Email:            userID + "@example.com",
		RefreshTokenHash: sessions.HashToken(rawRefresh),
		CreatedAt:        time.Now(),
		ExpiresAt:        time.Now().Add(ttl),
	}
}

func TestInMemoryRepo_CreateAndLookup(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	ctx := context.Background()

	session := newSession("user-1", "refresh-abc", time.Hour)
	require.NoError(t, repo.Create(ctx, session))
	require.NotEmpty(t, session.ID)

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.Get(ctx, session.ID)
		require.NoError(t, err)
		require.Equal(t, "user-1", got.UserID)
	})

	t.Run("get by refresh hash", func(t *testing.T) {
		got, err := repo.GetByRefreshHash(ctx, sessions.HashToken("refresh-abc"))
		require.NoError(t, err)
		require.Equal(t, session.ID, got.ID)
	})

	t.Run("unknown hash", func(t *testing.T) {
		_, err := repo.GetByRefreshHash(ctx, sessions.HashToken("nope"))
		require.ErrorIs(t, err, errors.ErrSessionNotFound)
	})
}

func TestInMemoryRepo_Rotate(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	ctx := context.Background()

	old := newSession("user-1", "refresh-old", time.Hour)
	require.NoError(t, repo.Create(ctx, old))

	replacement := newSession("user-1", "refresh-new", time.Hour)
	require.NoError(t, repo.Rotate(ctx, old.ID, replacement))

	rotated, err := repo.Get(ctx, old.ID)
	require.NoError(t, err)
	require.True(t, rotated.Revoked)

	fresh, err := repo.GetByRefreshHash(ctx, sessions.HashToken("refresh-new"))
	require.NoError(t, err)
	require.False(t, fresh.Revoked)
	require.True(t, fresh.Active(time.Now()))
}

func TestInMemoryRepo_RevokeAllForUser(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession("user-1", "r1", time.Hour)))
	require.NoError(t, repo.Create(ctx, newSession("user-1", "r2", time.Hour)))
	require.NoError(t, repo.Create(ctx, newSession("user-2", "r3", time.Hour)))

	require.NoError(t, repo.RevokeAllForUser(ctx, "user-1"))

	active1, err := repo.ListActiveByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, active1)

	active2, err := repo.ListActiveByUser(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, active2, 1)
}

func TestInMemoryRepo_DeleteExpired(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession("user-1", "expired", -time.Minute)))
	require.NoError(t, repo.Create(ctx, newSession("user-1", "live", time.Hour)))

	deleted, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	_, err = repo.GetByRefreshHash(ctx, sessions.HashToken("expired"))
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}
