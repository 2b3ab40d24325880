package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AnshRaj112/contacts-backend/internal/apperr"
	"github.com/AnshRaj112/contacts-backend/internal/models"
	"github.com/AnshRaj112/contacts-backend/internal/repository"
)

const credentialsMessage = "Could not validate credentials"

// IdentityCache is the read-through cache consulted before the store.
type IdentityCache interface {
	Get(ctx context.Context, username string) (*models.User, bool)
	Put(ctx context.Context, user *models.User)
}

// UserLookup is the narrow Account Service contract the resolver needs.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Resolver turns a bearer token into the authenticated user.
type Resolver struct {
	codec  *TokenCodec
	cache  IdentityCache
	users  UserLookup
	logger *slog.Logger
}

func NewResolver(codec *TokenCodec, cache IdentityCache, users UserLookup, logger *slog.Logger) *Resolver {
	return &Resolver{codec: codec, cache: cache, users: users, logger: logger}
}

// BearerToken extracts the token from an "Authorization: Bearer <t>" header.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (rs *Resolver) ResolveRequest(r *http.Request) (*models.User, error) {
	token, ok := BearerToken(r)
	if !ok {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	return rs.Resolve(r.Context(), token)
}

// Resolve decodes an access token and loads its subject, cache first. Every
// failure is Unauthenticated.
func (rs *Resolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := rs.codec.Decode(token, PurposeAccess)
	if err != nil {
		rs.logger.Debug("token rejected", "code", apperr.Code(err))
		return nil, apperr.Unauthenticated(credentialsMessage)
	}

	username := claims.Subject
	if username == "" {
		return nil, apperr.Unauthenticated(credentialsMessage)
	}

	if user, ok := rs.cache.Get(ctx, username); ok {
		return user, nil
	}

	user, err := rs.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			apperr.Log(rs.logger, "identity lookup failed", err, "username", username)
		}
		return nil, apperr.Unauthenticated(credentialsMessage)
	}

	rs.cache.Put(ctx, user)
	return user, nil
}
