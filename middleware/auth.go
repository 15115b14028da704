package middleware

import (
	"context"
	"net/http"
	"strings"

	"canvas-collab/core"
	"canvas-collab/handlers/auth"

	"github.com/go-chi/render"
)

type contextKey string

const UserContextKey = contextKey("user")

// AuthJWT requires a valid bearer token and stores the caller identity
// from its subject claim in the request context.
func AuthJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := auth.ParseJWT(parts[1])
		if err != nil || claims.Subject == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, core.User(claims.Subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerFromContext returns the authenticated caller identity, if any.
func CallerFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(UserContextKey).(core.User)
	return u, ok
}
