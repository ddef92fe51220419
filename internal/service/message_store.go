package service

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vedran77/messagely/internal/access"
	"github.com/vedran77/messagely/internal/domain"
	"github.com/vedran77/messagely/internal/repository"
)

type MessageStore struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	now      func() time.Time
}

func NewMessageStore(messages repository.MessageRepository, users repository.UserRepository) (*MessageStore, error) {
	if messages == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPENDENCY").Errorf("messages repository is required")
	}
	if users == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPENDENCY").Errorf("users repository is required")
	}
	return &MessageStore{messages: messages, users: users, now: time.Now}, nil
}

type SendMessageInput struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

// Send stores a new unread message. Both users must exist; the error names
// the first one that does not.
func (s *MessageStore) Send(ctx context.Context, from, to, body string) (*domain.Message, error) {
	for _, username := range []string{from, to} {
		if _, err := s.users.GetByUsername(ctx, username); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, oops.Code("MESSAGE_PARTY_NOT_FOUND").
					With("username", username).
					Wrapf(err, "no such user: %s", username)
			}
			return nil, err
		}
	}

	msg := &domain.Message{
		ID:           ulid.Make(),
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       s.now(),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Get returns the message joined with both parties.
func (s *MessageStore) Get(ctx context.Context, id ulid.ULID) (*domain.MessageDetail, error) {
	return s.messages.GetDetail(ctx, id)
}

func (s *MessageStore) ListFrom(ctx context.Context, username string) ([]domain.MessageDetail, error) {
	msgs, err := s.messages.ListFrom(ctx, username)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.MessageDetail{}
	}
	return msgs, nil
}

func (s *MessageStore) ListTo(ctx context.Context, username string) ([]domain.MessageDetail, error) {
	msgs, err := s.messages.ListTo(ctx, username)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.MessageDetail{}
	}
	return msgs, nil
}

// MarkRead records the read receipt. Only the recipient may do so; once set,
// read_at never moves and repeated calls return the first stored time.
func (s *MessageStore) MarkRead(ctx context.Context, id ulid.ULID, reader string) (time.Time, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}

	if err := access.RequireMessageRecipient(access.Authenticated(reader), msg); err != nil {
		return time.Time{}, oops.With("message_id", id.String()).Wrap(err)
	}

	return s.messages.MarkRead(ctx, id, s.now())
}
