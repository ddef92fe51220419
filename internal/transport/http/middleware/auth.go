package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vedran77/messagely/internal/access"
)

type contextKey string

const callerKey contextKey = "caller"

type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string) access.Caller
}

// Authenticate resolves the bearer token into a Caller and stores it in the
// request context. It never rejects; gates further in decide that.
func Authenticate(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := resolver.ResolveCaller(r.Context(), bearerToken(r))
			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth answers 401 for anonymous callers.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetCaller(r.Context()).IsAuthenticated() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Missing or invalid token"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetCaller returns the caller stored by Authenticate, or Anonymous.
func GetCaller(ctx context.Context) access.Caller {
	caller, _ := ctx.Value(callerKey).(access.Caller)
	return caller
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
