package middleware

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/contacts-backend/internal/apperr"
	"github.com/AnshRaj112/contacts-backend/internal/models"
)

type ctxKey int

const userKey ctxKey = iota

// RequestResolver resolves the authenticated user of a request.
type RequestResolver interface {
	ResolveRequest(r *http.Request) (*models.User, error)
}

// WithUser stores the resolved user on the context.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// RequireUser rejects requests without a valid access token with 401.
func RequireUser(resolver RequestResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.ResolveRequest(r)
			if err != nil {
				writeDetail(w, apperr.HTTPStatus(err), apperr.PublicMessage(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
