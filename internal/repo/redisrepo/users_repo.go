package redisrepo

import (
	"context"
	"errors"
	"sort"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 3

// UsersRepo keeps each user in a hash at "<prefix>:<userId>" and the set of
// known ids at "<prefix>:ids".
type UsersRepo struct {
	rdb    *redis.Client
	prefix string
	prom   *observability.Prom
}

func NewUsersRepo(rdb *redis.Client, prefix string, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{rdb: rdb, prefix: prefix, prom: prom}
}

func (r *UsersRepo) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if r.prom != nil {
		return r.prom.ObserveStore(ctx, op, fn)
	}
	return fn(ctx)
}

func (r *UsersRepo) key(userID string) string {
	return r.prefix + ":" + userID
}

func (r *UsersRepo) idsKey() string {
	return r.prefix + ":ids"
}

func (r *UsersRepo) Put(ctx context.Context, u user.User) error {
	return r.observe(ctx, "users.put", func(ctx context.Context) error {
		_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.key(u.UserID), "userId", u.UserID, "name", u.Name, "email", u.Email)
			pipe.SAdd(ctx, r.idsKey(), u.UserID)
			return nil
		})
		return err
	})
}

func (r *UsersRepo) Get(ctx context.Context, userID string) (user.User, error) {
	var u user.User

	err := r.observe(ctx, "users.get", func(ctx context.Context) error {
		m, err := r.rdb.HGetAll(ctx, r.key(userID)).Result()
		if err != nil {
			return err
		}
		if len(m) == 0 {
			return user.ErrNotFound
		}

		u = fromHash(m)
		return nil
	})
	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

// Scan reads every hash listed in the id set. The filter is applied client
// side; ids whose hash is gone are skipped.
func (r *UsersRepo) Scan(ctx context.Context, filter user.ScanFilter) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.observe(ctx, "users.scan", func(ctx context.Context) error {
		ids, err := r.rdb.SMembers(ctx, r.idsKey()).Result()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		sort.Strings(ids)

		cmds := make([]*redis.MapStringStringCmd, len(ids))
		_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, id := range ids {
				cmds[i] = pipe.HGetAll(ctx, r.key(id))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, cmd := range cmds {
			m := cmd.Val()
			if len(m) == 0 {
				continue
			}

			u := fromHash(m)
			if filter.Matches(u) {
				out = append(out, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Update writes only the supplied fields, guarded by WATCH on the user key.
func (r *UsersRepo) Update(ctx context.Context, userID string, changes user.Changes) (user.User, error) {
	var u user.User
	k := r.key(userID)

	err := r.observe(ctx, "users.update", func(ctx context.Context) error {
		return r.watch(ctx, k, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, k).Result()
			if err != nil {
				return err
			}
			if n == 0 {
				return user.ErrConditionFailed
			}

			var fields []any
			if changes.Name != nil {
				fields = append(fields, "name", *changes.Name)
			}
			if changes.Email != nil {
				fields = append(fields, "email", *changes.Email)
			}

			var all *redis.MapStringStringCmd
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if len(fields) > 0 {
					pipe.HSet(ctx, k, fields...)
				}
				all = pipe.HGetAll(ctx, k)
				return nil
			})
			if err != nil {
				return err
			}

			u = fromHash(all.Val())
			return nil
		})
	})
	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, userID string) error {
	k := r.key(userID)

	return r.observe(ctx, "users.delete", func(ctx context.Context) error {
		return r.watch(ctx, k, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, k).Result()
			if err != nil {
				return err
			}
			if n == 0 {
				return user.ErrConditionFailed
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, k)
				pipe.SRem(ctx, r.idsKey(), userID)
				return nil
			})
			return err
		})
	})
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// watch retries fn when another client touched key between WATCH and EXEC.
func (r *UsersRepo) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	var err error
	for i := 0; i < maxTxRetries; i++ {
		err = r.rdb.Watch(ctx, fn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func fromHash(m map[string]string) user.User {
	return user.User{
		UserID: m["userId"],
		Name:   m["name"],
		Email:  m["email"],
	}
}
