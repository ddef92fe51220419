package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/vedran77/messagely/internal/domain"
)

type UserRepo struct {
	pool Pool
}

func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, password, first_name, last_name, phone, join_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		user.Username, user.PasswordHash, user.FirstName, user.LastName,
		user.Phone, user.JoinedAt, user.LastLoginAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("USER_EXISTS").
			With("username", user.Username).
			Wrap(domain.ErrConflict)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(unavailable(err))
	}
	return nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT username, password, first_name, last_name, phone, join_at, last_login_at
		FROM users
		WHERE username = $1`

	var u domain.User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Phone, &u.JoinedAt, &u.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(domain.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(unavailable(err))
	}
	return &u, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, username string, at time.Time) (time.Time, error) {
	query := `
		UPDATE users
		SET last_login_at = $2
		WHERE username = $1
		RETURNING last_login_at`

	var lastLogin time.Time
	err := r.pool.QueryRow(ctx, query, username, at).Scan(&lastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(domain.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, oops.Code("USER_TOUCH_LOGIN_FAILED").
			With("operation", "update last login").
			With("username", username).
			Wrap(unavailable(err))
	}
	return lastLogin, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT username, first_name, last_name, phone, join_at, last_login_at
		FROM users
		ORDER BY username`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").With("operation", "list users").Wrap(unavailable(err))
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.Username, &u.FirstName, &u.LastName, &u.Phone, &u.JoinedAt, &u.LastLoginAt,
		); err != nil {
			return nil, oops.Code("USER_LIST_FAILED").With("operation", "scan user row").Wrap(unavailable(err))
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").With("operation", "iterate users").Wrap(unavailable(err))
	}
	return users, nil
}
