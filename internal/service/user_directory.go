package service

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/vedran77/messagely/internal/domain"
	"github.com/vedran77/messagely/internal/repository"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// UserDirectory owns registered users and their credentials. Password hashes
// never leave it: every read returns a summary or detail projection.
type UserDirectory struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	dummyHash string
	now       func() time.Time
}

func NewUserDirectory(users repository.UserRepository, hasher PasswordHasher) (*UserDirectory, error) {
	if users == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPENDENCY").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}

	// Unknown usernames are verified against this hash so that both failure
	// paths of Authenticate cost one hash computation at the configured cost.
	dummy, err := hasher.Hash("messagely-dummy-password")
	if err != nil {
		return nil, oops.Code("SERVICE_INIT_FAILED").With("operation", "compute dummy hash").Wrap(err)
	}

	return &UserDirectory{
		users:     users,
		hasher:    hasher,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

type RegisterInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Register relies on the store's uniqueness constraint rather than a
// lookup-then-insert, so concurrent registrations of one username produce
// exactly one user and domain.ErrConflict for the rest.
func (d *UserDirectory) Register(ctx context.Context, input RegisterInput) (*domain.UserSummary, error) {
	hash, err := d.hasher.Hash(input.Password)
	if err != nil {
		return nil, oops.Code("USER_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	now := d.now()
	user := &domain.User{
		Username:     input.Username,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		JoinedAt:     now,
		LastLoginAt:  now,
	}

	if err := d.users.Create(ctx, user); err != nil {
		return nil, err
	}

	summary := user.Summary()
	return &summary, nil
}

// Authenticate reports whether the credentials are valid. An unknown user and
// a wrong password are the same (false, nil) outcome.
func (d *UserDirectory) Authenticate(ctx context.Context, username, password string) (bool, error) {
	user, err := d.users.GetByUsername(ctx, username)

	target := d.dummyHash
	exists := false
	switch {
	case err == nil:
		target = user.PasswordHash
		exists = true
	case !errors.Is(err, domain.ErrNotFound):
		return false, err
	}

	ok, err := d.hasher.Verify(password, target)
	if err != nil {
		if !exists {
			return false, nil
		}
		return false, oops.Code("USER_AUTHENTICATE_FAILED").
			With("operation", "verify password").
			With("username", username).
			Wrap(err)
	}

	return exists && ok, nil
}

func (d *UserDirectory) TouchLogin(ctx context.Context, username string) (time.Time, error) {
	return d.users.UpdateLastLogin(ctx, username, d.now())
}

func (d *UserDirectory) List(ctx context.Context) ([]domain.UserSummary, error) {
	users, err := d.users.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	return summaries, nil
}

func (d *UserDirectory) Get(ctx context.Context, username string) (*domain.UserDetail, error) {
	user, err := d.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	detail := user.Detail()
	return &detail, nil
}
