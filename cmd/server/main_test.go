package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedran77/messagely/internal/config"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	for _, sub := range []string{"serve", "migrate"} {
		assert.Contains(t, buf.String(), sub)
	}
}

func TestMigrateCommand_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"migrate", "--help"})

	require.NoError(t, cmd.Execute())

	for _, sub := range []string{"up", "down", "version"} {
		assert.Contains(t, buf.String(), sub)
	}
}

func TestServeCommand_RejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	configFile = ""

	cmd := NewRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"serve", "--storage=memory"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestOpenStorage_Unknown(t *testing.T) {
	_, err := openStorage(context.Background(), &config.Config{Storage: "redis"}, slog.Default())
	assert.Error(t, err)
}

func TestServe_MemoryStorage(t *testing.T) {
	cfg := &config.Config{
		JWTSecret:     "serve-test-secret",
		TokenTTL:      time.Hour,
		HashAlgorithm: config.HashBcrypt,
		HashCost:      4,
		Storage:       config.StorageMemory,
		LogFormat:     "json",
		CORSOrigins:   []string{"*"},
	}
	require.NoError(t, cfg.Validate())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + listener.Addr().String()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, listener, logger) }()

	client := &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}

	resp, err := client.Get(base + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.Post(base+"/auth/register", "application/json", strings.NewReader(
		`{"username":"alice","password":"pw1","first_name":"Alice","last_name":"A","phone":"5550100"}`))
	require.NoError(t, err)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body.Token)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
