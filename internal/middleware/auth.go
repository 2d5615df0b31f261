package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/putrawicaksono/minibank/internal/auth"
	"github.com/putrawicaksono/minibank/internal/http/respond"
)

type contextKey string

// SubjectKey carries the authenticated identity id (email or account
// number) through the request context.
const SubjectKey contextKey = "subject"

// RequireAuth rejects requests without a valid Bearer token and stores the
// token subject in the request context.
func RequireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respond.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			subject, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), SubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject returns the authenticated identity id from the context, if any.
func Subject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectKey).(string)
	return subject, ok
}
