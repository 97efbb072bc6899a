package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/userhub/internal/domain/user"
)

type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User // {"userId": user}
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) Put(ctx context.Context, u user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.items[u.UserID] = u
	r.mu.Unlock()

	return nil
}

func (r *UsersRepo) Get(ctx context.Context, userID string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	u, ok := r.items[userID]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

// Scan returns matching items ordered by id so results are stable.
func (r *UsersRepo) Scan(ctx context.Context, filter user.ScanFilter) ([]user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]user.User, 0, len(r.items))
	for _, u := range r.items {
		if filter.Matches(u) {
			out = append(out, u)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })

	return out, nil
}

func (r *UsersRepo) Update(ctx context.Context, userID string, changes user.Changes) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[userID]
	if !ok {
		return user.User{}, user.ErrConditionFailed
	}

	u = changes.Apply(u)
	r.items[userID] = u

	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[userID]; !ok {
		return user.ErrConditionFailed
	}

	delete(r.items, userID)

	return nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return nil
}
