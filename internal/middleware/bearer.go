package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vidfriends/client/internal/logging"
)

// TokenVerifier validates an access token and returns the user it was issued to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type ctxKey string

const userIDKey ctxKey = "userID"

// WithUserID stores the authenticated user id on the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the id stored by RequireBearer.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// RequireBearer rejects requests without a valid "Authorization: Bearer" token
// with 401 {"msg": ...}. Accepted requests carry the token subject in context.
func RequireBearer(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				logger.Warn("missing authorization header")
				unauthorized(w, "Missing Authorization Header")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				logger.Warn("malformed authorization header")
				unauthorized(w, "Missing 'Bearer' type in 'Authorization' header")
				return
			}

			userID, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				logger.Warn("rejected access token", "error", err)
				unauthorized(w, "Invalid or expired token")
				return
			}

			ctx = logging.WithLogger(ctx, logger.With("user_id", userID))
			next.ServeHTTP(w, r.WithContext(WithUserID(ctx, userID)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}
