package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vedran77/messagely/internal/domain"
)

type MessageRepo struct {
	pool Pool
}

func NewMessageRepo(pool Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, from_username, to_username, body, sent_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		msg.ID.String(), msg.FromUsername, msg.ToUsername, msg.Body, msg.SentAt,
	)
	if isForeignKeyViolation(err) {
		return oops.Code("MESSAGE_PARTY_NOT_FOUND").
			With("from_username", msg.FromUsername).
			With("to_username", msg.ToUsername).
			Wrap(domain.ErrNotFound)
	}
	if err != nil {
		return oops.Code("MESSAGE_CREATE_FAILED").
			With("operation", "insert message").
			With("message_id", msg.ID.String()).
			Wrap(unavailable(err))
	}
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id ulid.ULID) (*domain.Message, error) {
	query := `
		SELECT id, from_username, to_username, body, sent_at, read_at
		FROM messages
		WHERE id = $1`

	var (
		msg   domain.Message
		rawID string
	)
	err := r.pool.QueryRow(ctx, query, id.String()).Scan(
		&rawID, &msg.FromUsername, &msg.ToUsername, &msg.Body, &msg.SentAt, &msg.ReadAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, messageNotFound(id)
	}
	if err != nil {
		return nil, oops.Code("MESSAGE_GET_FAILED").
			With("operation", "get message by id").
			With("message_id", id.String()).
			Wrap(unavailable(err))
	}
	if msg.ID, err = parseID(rawID); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepo) GetDetail(ctx context.Context, id ulid.ULID) (*domain.MessageDetail, error) {
	query := `
		SELECT m.id, m.body, m.sent_at, m.read_at,
			f.username, f.first_name, f.last_name, f.phone,
			t.username, t.first_name, t.last_name, t.phone
		FROM messages m
		JOIN users f ON m.from_username = f.username
		JOIN users t ON m.to_username = t.username
		WHERE m.id = $1`

	var (
		msg      domain.MessageDetail
		rawID    string
		from, to domain.UserSummary
	)
	err := r.pool.QueryRow(ctx, query, id.String()).Scan(
		&rawID, &msg.Body, &msg.SentAt, &msg.ReadAt,
		&from.Username, &from.FirstName, &from.LastName, &from.Phone,
		&to.Username, &to.FirstName, &to.LastName, &to.Phone,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, messageNotFound(id)
	}
	if err != nil {
		return nil, oops.Code("MESSAGE_GET_FAILED").
			With("operation", "get message detail").
			With("message_id", id.String()).
			Wrap(unavailable(err))
	}
	if msg.ID, err = parseID(rawID); err != nil {
		return nil, err
	}
	msg.FromUser = &from
	msg.ToUser = &to
	return &msg, nil
}

// ListFrom returns the user's outgoing messages joined with each recipient.
func (r *MessageRepo) ListFrom(ctx context.Context, username string) ([]domain.MessageDetail, error) {
	query := `
		SELECT m.id, m.body, m.sent_at, m.read_at,
			u.username, u.first_name, u.last_name, u.phone
		FROM messages m
		JOIN users u ON m.to_username = u.username
		WHERE m.from_username = $1
		ORDER BY m.id`

	return r.list(ctx, query, username, func(msg *domain.MessageDetail, u *domain.UserSummary) {
		msg.ToUser = u
	})
}

// ListTo returns the user's incoming messages joined with each sender.
func (r *MessageRepo) ListTo(ctx context.Context, username string) ([]domain.MessageDetail, error) {
	query := `
		SELECT m.id, m.body, m.sent_at, m.read_at,
			u.username, u.first_name, u.last_name, u.phone
		FROM messages m
		JOIN users u ON m.from_username = u.username
		WHERE m.to_username = $1
		ORDER BY m.id`

	return r.list(ctx, query, username, func(msg *domain.MessageDetail, u *domain.UserSummary) {
		msg.FromUser = u
	})
}

func (r *MessageRepo) list(
	ctx context.Context,
	query, username string,
	attach func(*domain.MessageDetail, *domain.UserSummary),
) ([]domain.MessageDetail, error) {
	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, oops.Code("MESSAGE_LIST_FAILED").
			With("operation", "list messages").
			With("username", username).
			Wrap(unavailable(err))
	}
	defer rows.Close()

	var messages []domain.MessageDetail
	for rows.Next() {
		var (
			msg   domain.MessageDetail
			rawID string
			other domain.UserSummary
		)
		if err := rows.Scan(
			&rawID, &msg.Body, &msg.SentAt, &msg.ReadAt,
			&other.Username, &other.FirstName, &other.LastName, &other.Phone,
		); err != nil {
			return nil, oops.Code("MESSAGE_LIST_FAILED").
				With("operation", "scan message row").
				Wrap(unavailable(err))
		}
		if msg.ID, err = parseID(rawID); err != nil {
			return nil, err
		}
		attach(&msg, &other)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("MESSAGE_LIST_FAILED").
			With("operation", "iterate messages").
			Wrap(unavailable(err))
	}
	return messages, nil
}

// MarkRead is a single conditional update, so concurrent readers cannot move
// read_at once it is set.
func (r *MessageRepo) MarkRead(ctx context.Context, id ulid.ULID, at time.Time) (time.Time, error) {
	query := `
		UPDATE messages
		SET read_at = COALESCE(read_at, $2)
		WHERE id = $1
		RETURNING read_at`

	var readAt time.Time
	err := r.pool.QueryRow(ctx, query, id.String(), at).Scan(&readAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, messageNotFound(id)
	}
	if err != nil {
		return time.Time{}, oops.Code("MESSAGE_MARK_READ_FAILED").
			With("operation", "mark message read").
			With("message_id", id.String()).
			Wrap(unavailable(err))
	}
	return readAt, nil
}

func messageNotFound(id ulid.ULID) error {
	return oops.Code("MESSAGE_NOT_FOUND").
		With("message_id", id.String()).
		Wrap(domain.ErrNotFound)
}

func parseID(raw string) (ulid.ULID, error) {
	id, err := ulid.Parse(raw)
	if err != nil {
		return ulid.ULID{}, oops.Code("MESSAGE_CORRUPT_ID").
			With("raw_id", raw).
			Wrap(err)
	}
	return id, nil
}
