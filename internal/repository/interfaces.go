package repository

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vedran77/messagely/internal/domain"
)

// UserRepository stores registered users. Implementations report a missing
// user with domain.ErrNotFound, a duplicate username with domain.ErrConflict
// and backend failures with domain.ErrStorageUnavailable.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, username string, at time.Time) (time.Time, error)
	List(ctx context.Context) ([]domain.User, error)
}

// MessageRepository stores messages. Create reports a dangling sender or
// recipient with domain.ErrNotFound.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id ulid.ULID) (*domain.Message, error)
	GetDetail(ctx context.Context, id ulid.ULID) (*domain.MessageDetail, error)
	ListFrom(ctx context.Context, username string) ([]domain.MessageDetail, error)
	ListTo(ctx context.Context, username string) ([]domain.MessageDetail, error)
	// MarkRead sets read_at to at unless it is already set, and returns the
	// stored value either way.
	MarkRead(ctx context.Context, id ulid.ULID, at time.Time) (time.Time, error)
}
