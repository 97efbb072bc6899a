package redisrepo_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/repo/redisrepo"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*redisrepo.UsersRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return redisrepo.NewUsersRepo(rdb, "users", nil), mr
}

func TestUsersRepo_PutGet(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	u := user.User{UserID: "u-1", Name: "Ana Souza", Email: "ana@example.com"}
	require.NoError(t, repo.Put(ctx, u))

	got, err := repo.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	assert.True(t, mr.Exists("users:u-1"))
	members, err := mr.Members("users:ids")
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1"}, members)
}

func TestUsersRepo_GetMissing(t *testing.T) {
	repo, _ := newRepo(t)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_ScanFiltersByEmail(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, user.User{UserID: "b", Name: "Bruno", Email: "bruno@example.com"}))
	require.NoError(t, repo.Put(ctx, user.User{UserID: "a", Name: "Ana", Email: "ana@example.com"}))

	all, err := repo.Scan(ctx, user.ScanFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].UserID)

	matches, err := repo.Scan(ctx, user.ByEmail("bruno@example.com"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].UserID)
}

func TestUsersRepo_ScanEmpty(t *testing.T) {
	repo, _ := newRepo(t)

	all, err := repo.Scan(context.Background(), user.ScanFilter{})
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestUsersRepo_UpdateOnlySuppliedFields(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, user.User{UserID: "u-1", Name: "Ana Souza", Email: "ana@example.com"}))

	email := "ana.souza@example.com"
	got, err := repo.Update(ctx, "u-1", user.Changes{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, user.User{UserID: "u-1", Name: "Ana Souza", Email: email}, got)
}

func TestUsersRepo_MissingKeyIsConditionFailed(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	name := "Ghost"
	_, err := repo.Update(ctx, "ghost", user.Changes{Name: &name})
	assert.ErrorIs(t, err, user.ErrConditionFailed)
	assert.False(t, mr.Exists("users:ghost"))

	assert.ErrorIs(t, repo.Delete(ctx, "ghost"), user.ErrConditionFailed)
}

func TestUsersRepo_Delete(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, user.User{UserID: "u-1", Name: "Ana", Email: "ana@example.com"}))
	require.NoError(t, repo.Delete(ctx, "u-1"))

	assert.False(t, mr.Exists("users:u-1"))
	_, err := repo.Get(ctx, "u-1")
	assert.ErrorIs(t, err, user.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "u-1"), user.ErrConditionFailed)
}
