package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rgoyal/smartbasket/internal/domain"
)

type contextKey string

const (
	// UserContextKey is the context key for storing the authenticated user
	UserContextKey contextKey = "user"
)

// WithUser resolves the Authorization bearer token to a user and adds it
// to the request context. This middleware is optional - it adds the user
// if present but doesn't require authentication.
func WithUser(userService domain.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				// No token, continue without user
				next.ServeHTTP(w, r)
				return
			}

			user, err := userService.GetUserBySessionToken(r.Context(), token)
			if err != nil {
				// Invalid or expired session, continue without user
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth ensures the user is authenticated, returning 401 if not
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			respondError(w, http.StatusUnauthorized, domain.EUNAUTHORIZED, "Authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin ensures the user is an admin, returning 403 if not
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			respondError(w, http.StatusUnauthorized, domain.EUNAUTHORIZED, "Authentication required")
			return
		}

		if !user.IsAdmin() {
			respondError(w, http.StatusForbidden, domain.EFORBIDDEN, "Admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext retrieves the user from the request context
// Returns nil if no user is authenticated
func GetUserFromContext(ctx context.Context) *domain.User {
	user, ok := ctx.Value(UserContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// respondError writes a structured JSON error without importing the
// handler package (handler imports middleware for GetUserFromContext).
func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
