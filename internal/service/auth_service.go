package service

import (
	"context"

	"github.com/samber/oops"

	"github.com/vedran77/messagely/internal/domain"
)

type TokenIssuer interface {
	Issue(username string) (string, error)
}

// AuthService combines the user directory with token issuance for the two
// public entry points, register and login.
type AuthService struct {
	users  *UserDirectory
	tokens TokenIssuer
}

func NewAuthService(users *UserDirectory, tokens TokenIssuer) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
	}
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string              `json:"token"`
	User  *domain.UserSummary `json:"user,omitempty"`
}

// Register creates the user and logs them in. last_login_at is already set
// to the registration time, so no separate touch is needed.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	user, err := s.users.Register(ctx, input)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "issue token").Wrap(err)
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	ok, err := s.users.Authenticate(ctx, input.Username, input.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(domain.ErrInvalidCredentials)
	}

	token, err := s.tokens.Issue(input.Username)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "issue token").Wrap(err)
	}

	if _, err := s.users.TouchLogin(ctx, input.Username); err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token}, nil
}
