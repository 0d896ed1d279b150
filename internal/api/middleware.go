package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-api/internal/domain/user"
)

// identityKey is the context key for the authenticated user.
type identityKey struct{}

// UserFromContext returns the authenticated user set by Authenticate.
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(identityKey{}).(*user.User)
	return u, ok
}

// ContextWithUser injects an authenticated user, primarily for tests.
func ContextWithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// Authenticate verifies the Bearer token, loads the account it was issued
// for, and stores it in the request context. The core trusts this identity
// downstream without re-verification.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.respondError(w, r, http.StatusUnauthorized, "Not authorized, no token", nil)
			return
		}

		userID, err := h.tokens.Verify(token)
		if err != nil {
			h.respondError(w, r, http.StatusUnauthorized, "Not authorized, token failed", nil)
			return
		}

		u, err := h.userRepo.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				h.respondError(w, r, http.StatusUnauthorized, "Not authorized, user not found", nil)
				return
			}
			h.serverError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), u)))
	})
}

// AdminOnly gates a route to admin accounts. Must run after Authenticate.
func (h *Handler) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok || u.Role != user.RoleAdmin {
			h.respondError(w, r, http.StatusForbidden, "Forbidden: admins only", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
