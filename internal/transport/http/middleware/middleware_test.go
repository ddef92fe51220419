package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedran77/messagely/internal/access"
	"github.com/vedran77/messagely/internal/logging"
)

type stubResolver struct {
	tokens map[string]string
	seen   []string
}

func (s *stubResolver) ResolveCaller(_ context.Context, token string) access.Caller {
	s.seen = append(s.seen, token)
	if username, ok := s.tokens[token]; ok {
		return access.Authenticated(username)
	}
	return access.Anonymous
}

func echoCaller(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(GetCaller(r.Context()).Username()))
}

func TestAuthenticate(t *testing.T) {
	resolver := &stubResolver{tokens: map[string]string{"good": "alice"}}
	handler := Authenticate(resolver)(http.HandlerFunc(echoCaller))

	tests := []struct {
		name   string
		header string
		want   string
		token  string
	}{
		{"valid bearer", "Bearer good", "alice", "good"},
		{"lowercase scheme", "bearer good", "alice", "good"},
		{"unknown token", "Bearer bad", "", "bad"},
		{"no header", "", "", ""},
		{"wrong scheme", "Basic good", "", ""},
		{"scheme only", "Bearer", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver.seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code, "authenticate never rejects")
			assert.Equal(t, tt.want, rec.Body.String())
			assert.Equal(t, []string{tt.token}, resolver.seen)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	resolver := &stubResolver{tokens: map[string]string{"good": "alice"}}
	handler := Authenticate(resolver)(RequireAuth(http.HandlerFunc(echoCaller)))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"UNAUTHORIZED","message":"Missing or invalid token"}}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestGetCaller_Default(t *testing.T) {
	assert.False(t, GetCaller(context.Background()).IsAuthenticated())
}

func TestRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestID(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context(), nil).Info("inside")
	}))

	t.Run("generated", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		id := rec.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, id, entry["request_id"])
	})

	t.Run("propagated", func(t *testing.T) {
		inbound := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, inbound)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, inbound, rec.Header().Get(RequestIDHeader))
	})

	t.Run("garbage replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
	})
}

type observation struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	seen []observation
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.seen = append(o.seen, observation{method, route, status})
}

func TestLogging_RouteAndStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	observer := &recordingObserver{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{username}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := Logging(logger, observer)(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/alice", nil))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Len(t, observer.seen, 2)
	assert.Equal(t, observation{"GET", "GET /users/{username}", http.StatusTeapot}, observer.seen[0])
	assert.Equal(t, observation{"GET", "unmatched", http.StatusNotFound}, observer.seen[1])

	dec := json.NewDecoder(&buf)
	var entry map[string]any
	require.NoError(t, dec.Decode(&entry))
	assert.Equal(t, "/users/alice", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example")
		rec := httptest.NewRecorder()
		CORS([]string{"https://app.example"})(next).ServeHTTP(rec, req)

		assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		CORS([]string{"https://app.example"})(next).ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/messages", nil)
		req.Header.Set("Origin", "https://any.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		CORS([]string{"*"})(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://any.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})
}
