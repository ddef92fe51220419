package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedran77/messagely/internal/domain"
	"github.com/vedran77/messagely/internal/service"
)

func TestAuthService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Register(ctx, service.RegisterInput{
		Username:  "alice",
		Password:  "pw1",
		FirstName: "Alice",
		LastName:  "A",
		Phone:     "+1",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice", resp.User.Username)

	username, err := f.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	_, err = f.auth.Register(ctx, service.RegisterInput{Username: "alice", Password: "pw2"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice")

	before, err := f.directory.Get(ctx, "alice")
	require.NoError(t, err)

	resp, err := f.auth.Login(ctx, service.LoginInput{Username: "alice", Password: "alice-password"})
	require.NoError(t, err)
	assert.Nil(t, resp.User)

	username, err := f.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	after, err := f.directory.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, after.LastLoginAt.Before(before.LastLoginAt))
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice")

	_, wrongPassword := f.auth.Login(ctx, service.LoginInput{Username: "alice", Password: "nope"})
	_, unknownUser := f.auth.Login(ctx, service.LoginInput{Username: "mallory", Password: "nope"})

	require.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestAuthService_FailedLoginLeavesLastLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice")

	before, err := f.directory.Get(ctx, "alice")
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, service.LoginInput{Username: "alice", Password: "nope"})
	require.Error(t, err)

	after, err := f.directory.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, after.LastLoginAt.Equal(before.LastLoginAt))
}
