package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/google/uuid"
)

// Store is the key-value collaborator. Update and Delete are conditional on the
// key existing and return user.ErrConditionFailed otherwise; Get returns
// user.ErrNotFound for a missing key.
type Store interface {
	Put(ctx context.Context, u user.User) error
	Get(ctx context.Context, userID string) (user.User, error)
	Scan(ctx context.Context, filter user.ScanFilter) ([]user.User, error)
	Update(ctx context.Context, userID string, changes user.Changes) (user.User, error)
	Delete(ctx context.Context, userID string) error
}

var (
	ErrEmailTaken = errors.New("email already registered")
	ErrNotFound   = errors.New("user not found")
	ErrStore      = errors.New("store failure")
	ErrShape      = errors.New("user record failed shape validation")
)

// ValidationError carries one entry per violated input field.
type ValidationError struct {
	Fields []user.FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field+":"+f.Rule)
	}
	return "invalid user input (" + strings.Join(names, ", ") + ")"
}

type Service struct {
	store   Store
	log     *slog.Logger
	timeout time.Duration
	newID   func() string
}

type Option func(*Service)

func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewService(store Store, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		store:   store,
		log:     log,
		timeout: 3 * time.Second,
		newID:   uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create validates req, rejects an email that is already registered and
// persists the new user with a generated id.
//
// The uniqueness scan and the put are two separate store calls, so two
// concurrent creates with the same email can both succeed.
func (s *Service) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	draft, fieldErrs := user.ValidateCreate(req)
	if len(fieldErrs) > 0 {
		return user.User{}, &ValidationError{Fields: fieldErrs}
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	existing, err := s.store.Scan(cctx, user.ByEmail(draft.Email))
	if err != nil {
		return user.User{}, fmt.Errorf("%w: scan by email: %w", ErrStore, err)
	}

	if len(existing) > 0 {
		return user.User{}, ErrEmailTaken
	}

	u := user.NewWithID(s.newID(), draft)

	if err := s.store.Put(cctx, u); err != nil {
		return user.User{}, fmt.Errorf("%w: put: %w", ErrStore, err)
	}

	if err := checkShape(u); err != nil {
		return user.User{}, err
	}

	s.log.DebugContext(ctx, "user created", "user_id", u.UserID)

	return u, nil
}

// List returns every stored user. Records are passed through as stored.
func (s *Service) List(ctx context.Context) ([]user.User, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items, err := s.store.Scan(cctx, user.ScanFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: scan: %w", ErrStore, err)
	}

	if items == nil {
		items = []user.User{}
	}

	return items, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (user.User, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.store.Get(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrNotFound
		}
		return user.User{}, fmt.Errorf("%w: get: %w", ErrStore, err)
	}

	if err := checkShape(u); err != nil {
		return user.User{}, err
	}

	return u, nil
}

// Exists reports ErrNotFound for an unknown id and nil for a known one.
func (s *Service) Exists(ctx context.Context, userID string) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.store.Get(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: get: %w", ErrStore, err)
	}

	return nil
}

// Edit applies only the fields present in req. An unknown id wins over an
// invalid payload: the caller gets ErrNotFound either way.
func (s *Service) Edit(ctx context.Context, userID string, req user.EditUserRequest) (user.User, error) {
	changes, fieldErrs := user.ValidateEdit(req)
	if len(fieldErrs) > 0 {
		if err := s.Exists(ctx, userID); err != nil {
			return user.User{}, err
		}
		return user.User{}, &ValidationError{Fields: fieldErrs}
	}

	if changes.IsEmpty() {
		return s.GetByID(ctx, userID)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.store.Update(cctx, userID, changes)
	if err != nil {
		if errors.Is(err, user.ErrConditionFailed) {
			return user.User{}, ErrNotFound
		}
		return user.User{}, fmt.Errorf("%w: update: %w", ErrStore, err)
	}

	if err := checkShape(u); err != nil {
		return user.User{}, err
	}

	return u, nil
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.store.Delete(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrConditionFailed) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: delete: %w", ErrStore, err)
	}

	return nil
}

func checkShape(u user.User) error {
	if errs := user.ValidateRecord(u); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrShape, (&ValidationError{Fields: errs}).Error())
	}
	return nil
}
