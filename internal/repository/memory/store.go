// Package memory is an in-process storage backend with the same uniqueness,
// foreign-key and set-if-null guarantees as the Postgres schema. It backs
// local runs (storage: memory) and tests.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vedran77/messagely/internal/domain"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	order    []string // sorted usernames
	messages map[ulid.ULID]domain.Message
	msgOrder []ulid.ULID
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]domain.User),
		messages: make(map[ulid.ULID]domain.Message),
	}
}

func (s *Store) Users() *UserRepo       { return &UserRepo{s: s} }
func (s *Store) Messages() *MessageRepo { return &MessageRepo{s: s} }

type UserRepo struct {
	s *Store
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.Username]; ok {
		return oops.Code("USER_EXISTS").
			With("username", user.Username).
			Wrap(domain.ErrConflict)
	}
	r.s.users[user.Username] = *user
	i, _ := slices.BinarySearch(r.s.order, user.Username)
	r.s.order = slices.Insert(r.s.order, i, user.Username)
	return nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[username]
	if !ok {
		return nil, userNotFound(username)
	}
	return &u, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, username string, at time.Time) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, unavailable(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[username]
	if !ok {
		return time.Time{}, userNotFound(username)
	}
	u.LastLoginAt = at
	r.s.users[username] = u
	return at, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]domain.User, 0, len(r.s.order))
	for _, name := range r.s.order {
		u := r.s.users[name]
		u.PasswordHash = ""
		users = append(users, u)
	}
	return users, nil
}

type MessageRepo struct {
	s *Store
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, name := range []string{msg.FromUsername, msg.ToUsername} {
		if _, ok := r.s.users[name]; !ok {
			return oops.Code("MESSAGE_PARTY_NOT_FOUND").
				With("username", name).
				Wrap(domain.ErrNotFound)
		}
	}
	if _, ok := r.s.messages[msg.ID]; ok {
		return oops.Code("MESSAGE_EXISTS").
			With("message_id", msg.ID.String()).
			Wrap(domain.ErrConflict)
	}

	stored := *msg
	stored.ReadAt = nil
	r.s.messages[msg.ID] = stored
	r.s.msgOrder = append(r.s.msgOrder, msg.ID)
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id ulid.ULID) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.messages[id]
	if !ok {
		return nil, messageNotFound(id)
	}
	m.ReadAt = copyTime(m.ReadAt)
	return &m, nil
}

func (r *MessageRepo) GetDetail(ctx context.Context, id ulid.ULID) (*domain.MessageDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.messages[id]
	if !ok {
		return nil, messageNotFound(id)
	}
	detail := r.s.detail(m)
	detail.FromUser = r.s.summary(m.FromUsername)
	detail.ToUser = r.s.summary(m.ToUsername)
	return &detail, nil
}

func (r *MessageRepo) ListFrom(ctx context.Context, username string) ([]domain.MessageDetail, error) {
	return r.list(ctx, func(m domain.Message) (bool, string, bool) {
		return m.FromUsername == username, m.ToUsername, false
	})
}

func (r *MessageRepo) ListTo(ctx context.Context, username string) ([]domain.MessageDetail, error) {
	return r.list(ctx, func(m domain.Message) (bool, string, bool) {
		return m.ToUsername == username, m.FromUsername, true
	})
}

// list scans messages in insertion order. match reports whether a message is
// included, which user to join, and whether that user is the sender.
func (r *MessageRepo) list(ctx context.Context, match func(domain.Message) (bool, string, bool)) ([]domain.MessageDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.MessageDetail
	for _, id := range r.s.msgOrder {
		m := r.s.messages[id]
		ok, other, isSender := match(m)
		if !ok {
			continue
		}
		detail := r.s.detail(m)
		if isSender {
			detail.FromUser = r.s.summary(other)
		} else {
			detail.ToUser = r.s.summary(other)
		}
		out = append(out, detail)
	}
	return out, nil
}

func (r *MessageRepo) MarkRead(ctx context.Context, id ulid.ULID, at time.Time) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, unavailable(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.messages[id]
	if !ok {
		return time.Time{}, messageNotFound(id)
	}
	if m.ReadAt == nil {
		m.ReadAt = &at
		r.s.messages[id] = m
	}
	return *m.ReadAt, nil
}

func (s *Store) detail(m domain.Message) domain.MessageDetail {
	return domain.MessageDetail{
		ID:     m.ID,
		Body:   m.Body,
		SentAt: m.SentAt,
		ReadAt: copyTime(m.ReadAt),
	}
}

func (s *Store) summary(username string) *domain.UserSummary {
	u := s.users[username]
	sum := u.Summary()
	return &sum
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func userNotFound(username string) error {
	return oops.Code("USER_NOT_FOUND").
		With("username", username).
		Wrap(domain.ErrNotFound)
}

func messageNotFound(id ulid.ULID) error {
	return oops.Code("MESSAGE_NOT_FOUND").
		With("message_id", id.String()).
		Wrap(domain.ErrNotFound)
}

func unavailable(err error) error {
	return oops.Code("STORAGE_CONTEXT_DONE").Wrap(errors.Join(domain.ErrStorageUnavailable, err))
}
