package domain

import (
	"time"
)

type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	JoinedAt     time.Time `json:"join_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// UserSummary is the public projection used in lists and message joins.
type UserSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type UserDetail struct {
	UserSummary
	JoinedAt    time.Time `json:"join_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

func (u *User) Detail() UserDetail {
	return UserDetail{
		UserSummary: u.Summary(),
		JoinedAt:    u.JoinedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
