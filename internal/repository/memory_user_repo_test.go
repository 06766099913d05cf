package repository

import (
	"context"
	"testing"
	"time"

	"catalance/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	current time.Time
}

func (c *stepClock) now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}

func TestMemoryUserRepository_UniqueEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.User{Email: "a@b.com", PasswordHash: "h"}))
	err := repo.Create(ctx, &entity.User{Email: "a@b.com", PasswordHash: "h2"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemoryUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	user := &entity.User{Email: "a@b.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, user))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	found.PasswordHash = "mutated"

	again, err := repo.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "h", again.PasswordHash)
	assert.Equal(t, entity.UserRoleFreelancer, again.Role)
}

func TestMemoryUserRepository_ResetTokenLifecycle(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	user := &entity.User{Email: "a@b.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, user))

	expires := time.Now().Add(time.Hour)
	require.NoError(t, repo.SetResetToken(ctx, user.ID, "digest", expires))

	found, err := repo.FindByResetToken(ctx, "digest")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	ok, err := repo.ConsumeResetToken(ctx, user.ID, "digest", "new")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ConsumeResetToken(ctx, user.ID, "digest", "other")
	require.NoError(t, err)
	assert.False(t, ok)

	found, err = repo.FindByResetToken(ctx, "digest")
	require.NoError(t, err)
	assert.Nil(t, found)

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.PasswordHash)
	assert.Nil(t, stored.ResetPasswordExpires)
}

func TestMemoryUserRepository_ListOrdersNewestFirst(t *testing.T) {
	clock := &stepClock{current: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	repo := NewMemoryUserRepositoryWithClock(clock.now)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.User{Email: "first@b.com", Role: entity.UserRoleClient}))
	require.NoError(t, repo.Create(ctx, &entity.User{Email: "second@b.com", Role: entity.UserRoleFreelancer}))
	require.NoError(t, repo.Create(ctx, &entity.User{Email: "third@b.com", Role: entity.UserRoleClient}))

	all, err := repo.List(ctx, UserFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third@b.com", all[0].Email)
	assert.Equal(t, "first@b.com", all[2].Email)

	role := entity.UserRoleClient
	clients, err := repo.List(ctx, UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "third@b.com", clients[0].Email)
}

func TestMemoryUserRepository_ClearExpiredResetTokens(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	now := time.Now()

	expired := &entity.User{Email: "old@b.com"}
	active := &entity.User{Email: "new@b.com"}
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.SetResetToken(ctx, expired.ID, "d1", now.Add(-time.Minute)))
	require.NoError(t, repo.SetResetToken(ctx, active.ID, "d2", now.Add(time.Minute)))

	cleared, err := repo.ClearExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cleared)

	found, err := repo.FindByResetToken(ctx, "d2")
	require.NoError(t, err)
	assert.NotNil(t, found)
	found, err = repo.FindByResetToken(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, found)
}
