package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Message struct {
	ID           ulid.ULID  `json:"id"`
	FromUsername string     `json:"from_username"`
	ToUsername   string     `json:"to_username"`
	Body         string     `json:"body"`
	SentAt       time.Time  `json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`
}

func (m *Message) Sender() string    { return m.FromUsername }
func (m *Message) Recipient() string { return m.ToUsername }

// MessageDetail is the read model returned to clients. Lists fill only the
// counterpart side: ListFrom sets ToUser, ListTo sets FromUser. A single
// message lookup sets both.
type MessageDetail struct {
	ID       ulid.ULID    `json:"id"`
	Body     string       `json:"body"`
	SentAt   time.Time    `json:"sent_at"`
	ReadAt   *time.Time   `json:"read_at"`
	FromUser *UserSummary `json:"from_user,omitempty"`
	ToUser   *UserSummary `json:"to_user,omitempty"`
}

func (m *MessageDetail) Sender() string {
	if m.FromUser == nil {
		return ""
	}
	return m.FromUser.Username
}

func (m *MessageDetail) Recipient() string {
	if m.ToUser == nil {
		return ""
	}
	return m.ToUser.Username
}
