package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/imperionite/fm-core/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// IdentityMiddleware trusts the identity headers set by the auth gateway in
// front of this service. Requests without them are rejected before any
// handler runs.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idHeader := r.Header.Get("X-User-ID")
		email := r.Header.Get("X-User-Email")
		if idHeader == "" || email == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
			return
		}

		id, err := strconv.ParseInt(idHeader, 10, 64)
		if err != nil || id <= 0 {
			respondError(w, http.StatusUnauthorized, "unauthorized", "invalid user identity")
			return
		}

		user := &domain.User{
			ID:    id,
			Email: email,
			Staff: parseStaff(r.Header.Get("X-User-Staff")),
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func parseStaff(value string) bool {
	ok, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return ok
}

func userFromContext(ctx context.Context) *domain.User {
	if user, ok := ctx.Value(userContextKey).(*domain.User); ok {
		return user
	}
	return nil
}
