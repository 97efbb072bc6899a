package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsersRepo stores users as rows keyed by user_id. The table is created by
// db.EnsureUsersTable.
type UsersRepo struct {
	pool  *pgxpool.Pool
	table string
	prom  *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, table string, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool:  pool,
		table: pgx.Identifier{table}.Sanitize(),
		prom:  prom,
	}
}

func (repo *UsersRepo) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if repo.prom != nil {
		return repo.prom.ObserveStore(ctx, op, fn)
	}
	return fn(ctx)
}

// Put inserts or replaces the row for u.UserID.
func (repo *UsersRepo) Put(ctx context.Context, u user.User) error {
	return repo.observe(ctx, "users.put", func(ctx context.Context) error {
		_, err := repo.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (user_id, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email`, repo.table),
			u.UserID, u.Name, u.Email,
		)
		return err
	})
}

func (repo *UsersRepo) Get(ctx context.Context, userID string) (user.User, error) {
	var u user.User

	err := repo.observe(ctx, "users.get", func(ctx context.Context) error {
		err := repo.pool.QueryRow(ctx,
			fmt.Sprintf(`SELECT user_id, name, email FROM %s WHERE user_id = $1`, repo.table),
			userID,
		).Scan(&u.UserID, &u.Name, &u.Email)

		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrNotFound
		}
		return err
	})
	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

// Scan returns every row, or only rows with the filtered email.
func (repo *UsersRepo) Scan(ctx context.Context, filter user.ScanFilter) ([]user.User, error) {
	query := fmt.Sprintf(`SELECT user_id, name, email FROM %s`, repo.table)
	var args []any

	if filter.Email != nil {
		query += ` WHERE email = $1`
		args = append(args, *filter.Email)
	}
	query += ` ORDER BY created_at, user_id`

	out := make([]user.User, 0)

	err := repo.observe(ctx, "users.scan", func(ctx context.Context) error {
		rows, err := repo.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}

		users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (user.User, error) {
			var u user.User
			err := row.Scan(&u.UserID, &u.Name, &u.Email)
			return u, err
		})
		if err != nil {
			return err
		}

		out = append(out, users...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Update sets only the supplied columns. A missing row is
// user.ErrConditionFailed.
func (repo *UsersRepo) Update(ctx context.Context, userID string, changes user.Changes) (user.User, error) {
	var u user.User

	err := repo.observe(ctx, "users.update", func(ctx context.Context) error {
		err := repo.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE %s
		SET name = COALESCE($2, name),
		    email = COALESCE($3, email)
		WHERE user_id = $1
		RETURNING user_id, name, email`, repo.table),
			userID, changes.Name, changes.Email,
		).Scan(&u.UserID, &u.Name, &u.Email)

		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrConditionFailed
		}
		return err
	})
	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

func (repo *UsersRepo) Delete(ctx context.Context, userID string) error {
	return repo.observe(ctx, "users.delete", func(ctx context.Context) error {
		tag, err := repo.pool.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, repo.table),
			userID,
		)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrConditionFailed
		}
		return nil
	})
}

func (repo *UsersRepo) Ping(ctx context.Context) error {
	return repo.pool.Ping(ctx)
}
