package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vedran77/messagely/internal/auth"
	"github.com/vedran77/messagely/internal/repository/memory"
	"github.com/vedran77/messagely/internal/service"
)

type fixture struct {
	store     *memory.Store
	directory *service.UserDirectory
	messages  *service.MessageStore
	tokens    *auth.TokenService
	auth      *service.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	hasher, err := auth.NewCredentialStore(auth.AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	directory, err := service.NewUserDirectory(store.Users(), hasher)
	require.NoError(t, err)

	messages, err := service.NewMessageStore(store.Messages(), store.Users())
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	return &fixture{
		store:     store,
		directory: directory,
		messages:  messages,
		tokens:    tokens,
		auth:      service.NewAuthService(directory, tokens),
	}
}

func (f *fixture) register(t *testing.T, username string) {
	t.Helper()
	_, err := f.directory.Register(context.Background(), service.RegisterInput{
		Username:  username,
		Password:  username + "-password",
		FirstName: "First " + username,
		LastName:  "Last " + username,
		Phone:     "+15550000000",
	})
	require.NoError(t, err)
}
