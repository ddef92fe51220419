package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/vedran77/messagely/internal/domain"
)

// Claims is the token payload: the authenticated username plus the
// registered iat/exp claims.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens. A zero ttl issues
// tokens without an expiry claim.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, oops.Code("AUTH_EMPTY_SECRET").Errorf("token signing secret cannot be empty")
	}
	if ttl < 0 {
		return nil, oops.Code("AUTH_INVALID_TTL").Errorf("token ttl cannot be negative: %s", ttl)
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *TokenService) Issue(username string) (string, error) {
	if username == "" {
		return "", oops.Code("AUTH_EMPTY_IDENTITY").Errorf("cannot issue a token without a username")
	}

	now := s.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify returns the username bound to a validly signed, unexpired token.
// With a non-zero ttl the exp claim is required, so tokens issued while
// expiry was off stop being accepted. Every rejection wraps
// domain.ErrUnauthenticated.
func (s *TokenService) Verify(token string) (string, error) {
	if token == "" {
		return "", oops.Code("AUTH_TOKEN_MISSING").Wrap(domain.ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.ttl > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		opts...,
	)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_INVALID").
			With("reason", err.Error()).
			Wrap(domain.ErrUnauthenticated)
	}
	if !parsed.Valid || claims.Username == "" {
		return "", oops.Code("AUTH_TOKEN_INVALID").
			With("reason", "missing username claim").
			Wrap(domain.ErrUnauthenticated)
	}

	return claims.Username, nil
}
