package memory_test

import (
	"context"
	"testing"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/repo/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	ana := user.User{UserID: "b", Name: "Ana", Email: "ana@example.com"}
	bia := user.User{UserID: "a", Name: "Bia", Email: "bia@example.com"}

	require.NoError(t, repo.Put(ctx, ana))
	require.NoError(t, repo.Put(ctx, bia))

	got, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, ana, got)

	all, err := repo.Scan(ctx, user.ScanFilter{})
	require.NoError(t, err)
	assert.Equal(t, []user.User{bia, ana}, all)

	byEmail, err := repo.Scan(ctx, user.ByEmail("ana@example.com"))
	require.NoError(t, err)
	assert.Equal(t, []user.User{ana}, byEmail)

	name := "Ana Clara"
	updated, err := repo.Update(ctx, "b", user.Changes{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana Clara", updated.Name)
	assert.Equal(t, "ana@example.com", updated.Email)

	require.NoError(t, repo.Delete(ctx, "b"))

	_, err = repo.Get(ctx, "b")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_ConditionalOpsOnMissingKey(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	name := "Nobody"
	_, err := repo.Update(ctx, "missing", user.Changes{Name: &name})
	assert.ErrorIs(t, err, user.ErrConditionFailed)

	err = repo.Delete(ctx, "missing")
	assert.ErrorIs(t, err, user.ErrConditionFailed)

	all, err := repo.Scan(ctx, user.ScanFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "a failed conditional update must not create the item")
}

func TestUsersRepo_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := memory.NewUsersRepo()
	err := repo.Put(ctx, user.User{UserID: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
