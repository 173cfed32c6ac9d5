package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/questlog-app/questlog-backend/internal/services"
)

type contextKey string

// userIDKey carries the authenticated user's ID through the request context.
const userIDKey contextKey = "userID"

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}

// extractBearerToken pulls the token out of an "Authorization: Bearer x" header.
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth guards every protected HTTP route. A missing credential is 401;
// a present-but-failing one is 403, distinguishing expired from invalid. On
// success the decoded user ID is attached to the request context.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "Access denied")
			return
		}

		userID, err := services.Tokens.VerifyAccess(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				writeJSONError(w, http.StatusForbidden, "Token expired")
			case errors.Is(err, services.ErrTokenInvalid):
				writeJSONError(w, http.StatusForbidden, "Invalid token")
			default:
				writeJSONError(w, http.StatusForbidden, "Token verification failed")
			}
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the authenticated user ID set by RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}
