// Package access decides who may act on which resource. A request starts
// Anonymous, becomes Authenticated once its token verifies, and each gate
// then either lets the caller through or fails with domain.ErrUnauthenticated
// or domain.ErrForbidden.
package access

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/vedran77/messagely/internal/domain"
)

// Caller is the resolved identity of a request. The zero value is anonymous.
type Caller struct {
	username string
}

var Anonymous = Caller{}

func Authenticated(username string) Caller {
	return Caller{username: username}
}

func (c Caller) IsAuthenticated() bool { return c.username != "" }
func (c Caller) Username() string      { return c.username }

// Parties exposes the two ends of a message.
type Parties interface {
	Sender() string
	Recipient() string
}

type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RejectionObserver is notified when a presented token fails verification.
type RejectionObserver interface {
	TokenRejected()
}

type Controller struct {
	tokens   TokenVerifier
	logger   *slog.Logger
	observer RejectionObserver
}

func NewController(tokens TokenVerifier, logger *slog.Logger, observer RejectionObserver) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{tokens: tokens, logger: logger, observer: observer}
}

// ResolveCaller never fails: a missing or invalid token yields Anonymous.
func (c *Controller) ResolveCaller(ctx context.Context, token string) Caller {
	if token == "" {
		return Anonymous
	}

	username, err := c.tokens.Verify(token)
	if err != nil {
		c.logger.DebugContext(ctx, "token rejected", "error", err)
		if c.observer != nil {
			c.observer.TokenRejected()
		}
		return Anonymous
	}
	return Authenticated(username)
}

func RequireAuthenticated(c Caller) (string, error) {
	if !c.IsAuthenticated() {
		return "", oops.Code("ACCESS_UNAUTHENTICATED").Wrap(domain.ErrUnauthenticated)
	}
	return c.username, nil
}

// RequireSelf admits only the user the resource belongs to.
func RequireSelf(c Caller, target string) error {
	username, err := RequireAuthenticated(c)
	if err != nil {
		return err
	}
	if username != target {
		return oops.Code("ACCESS_NOT_SELF").
			With("caller", username).
			With("target", target).
			Wrap(domain.ErrForbidden)
	}
	return nil
}

// RequireMessageParty grants read access to the sender and the recipient.
func RequireMessageParty(c Caller, m Parties) error {
	username, err := RequireAuthenticated(c)
	if err != nil {
		return err
	}
	if username != m.Sender() && username != m.Recipient() {
		return oops.Code("ACCESS_NOT_PARTY").
			With("caller", username).
			Wrap(domain.ErrForbidden)
	}
	return nil
}

// RequireMessageRecipient grants write access (read receipts) to the
// recipient only.
func RequireMessageRecipient(c Caller, m Parties) error {
	username, err := RequireAuthenticated(c)
	if err != nil {
		return err
	}
	if username != m.Recipient() {
		return oops.Code("ACCESS_NOT_RECIPIENT").
			With("caller", username).
			Wrap(domain.ErrForbidden)
	}
	return nil
}
