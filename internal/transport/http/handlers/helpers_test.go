package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vedran77/messagely/internal/access"
	"github.com/vedran77/messagely/internal/auth"
	"github.com/vedran77/messagely/internal/metrics"
	"github.com/vedran77/messagely/internal/repository/memory"
	"github.com/vedran77/messagely/internal/service"
	"github.com/vedran77/messagely/internal/transport/http/handlers"
)

type testServer struct {
	handler http.Handler
	tokens  *auth.TokenService
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewStore()
	hasher, err := auth.NewCredentialStore(auth.AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService("handler-test-secret", time.Hour)
	require.NoError(t, err)

	directory, err := service.NewUserDirectory(store.Users(), hasher)
	require.NoError(t, err)
	messages, err := service.NewMessageStore(store.Messages(), store.Users())
	require.NoError(t, err)

	m := metrics.New()
	handler := handlers.NewRouter(handlers.RouterConfig{
		Auth:        handlers.NewAuthHandler(service.NewAuthService(directory, tokens), m, logger),
		Users:       handlers.NewUserHandler(directory, messages, logger),
		Messages:    handlers.NewMessageHandler(messages, m, logger),
		Resolver:    access.NewController(tokens, logger, m),
		Metrics:     m,
		Logger:      logger,
		CORSOrigins: []string{"*"},
	})

	return &testServer{handler: handler, tokens: tokens, metrics: m}
}

type response struct {
	status int
	body   map[string]any
	raw    string
}

func (s *testServer) do(t *testing.T, method, path, token string, payload any) response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		switch p := payload.(type) {
		case string:
			body = bytes.NewBufferString(p)
		default:
			raw, err := json.Marshal(p)
			require.NoError(t, err)
			body = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	resp := response{status: rec.Code, raw: rec.Body.String()}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp.body), "body: %s", resp.raw)
	}
	return resp
}

func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username":   username,
		"password":   username + "-pw",
		"first_name": "First " + username,
		"last_name":  "Last " + username,
		"phone":      "+15550000000",
	})
	require.Equal(t, http.StatusCreated, resp.status, resp.raw)
	token, ok := resp.body["token"].(string)
	require.True(t, ok)
	return token
}

func errorCode(r response) string {
	errObj, _ := r.body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func object(t *testing.T, r response, key string) map[string]any {
	t.Helper()
	obj, ok := r.body[key].(map[string]any)
	require.True(t, ok, "missing %q in %s", key, r.raw)
	return obj
}

func list(t *testing.T, r response, key string) []any {
	t.Helper()
	items, ok := r.body[key].([]any)
	require.True(t, ok, "missing %q in %s", key, r.raw)
	return items
}
