package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/geocoder89/userhub/internal/db"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/repo/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func setupRepo(t *testing.T) *postgres.UsersRepo {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	table := "users_test"
	if err := db.EnsureUsersTable(ctx, pool, table); err != nil {
		t.Fatalf("ensure table: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE TABLE users_test`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	return postgres.NewUsersRepo(pool, table, nil)
}

func TestUsersRepo_RoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	u := user.User{UserID: uuid.NewString(), Name: "Ana Souza", Email: "ana@example.com"}
	if err := repo.Put(ctx, u); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.Get(ctx, u.UserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != u {
		t.Fatalf("expected %+v, got %+v", u, got)
	}

	byEmail, err := repo.Scan(ctx, user.ByEmail("ana@example.com"))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(byEmail) != 1 {
		t.Fatalf("expected 1 match, got %d", len(byEmail))
	}

	name := "Ana Lima"
	updated, err := repo.Update(ctx, u.UserID, user.Changes{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name || updated.Email != u.Email {
		t.Fatalf("unexpected update result %+v", updated)
	}

	if err := repo.Delete(ctx, u.UserID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, u.UserID); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUsersRepo_MissingRowIsConditionFailed(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	name := "Nobody"
	if _, err := repo.Update(ctx, "missing", user.Changes{Name: &name}); !errors.Is(err, user.ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed on update, got %v", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, user.ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed on delete, got %v", err)
	}
}
