package services

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/AnshRaj112/contacts-backend/internal/apperr"
	"github.com/AnshRaj112/contacts-backend/internal/models"
	"github.com/AnshRaj112/contacts-backend/internal/repository"
	"github.com/AnshRaj112/contacts-backend/pkg/utils"
)

// UserStore is the persistence the account service writes through.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
	SetConfirmed(ctx context.Context, email string) (string, error)
	SetPasswordHash(ctx context.Context, username, hash string) error
	SetAvatar(ctx context.Context, email, url string) (*models.User, error)
	SetRole(ctx context.Context, username string, role models.Role) (*models.User, error)
	Delete(ctx context.Context, username string) error
	List(ctx context.Context, skip, limit int) ([]*models.User, error)
}

// AccountService owns user records. Every mutation drops the cached snapshot
// after the write succeeds.
type AccountService struct {
	users UserStore
	cache *IdentityCache
}

func NewAccountService(users UserStore, cache *IdentityCache) *AccountService {
	return &AccountService{users: users, cache: cache}
}

// FindByUsername returns repository.ErrNotFound when no such account exists.
func (s *AccountService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *AccountService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetByEmail(ctx, email)
}

// Create registers an unconfirmed account with the default role. passwordHash
// must already be hashed. Duplicates fail with Conflict naming the field.
func (s *AccountService) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, usernameTaken(username)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, emailTaken(email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	avatar := utils.GravatarURL(email)
	user, err := s.users.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Avatar:       &avatar,
		Role:         models.DefaultRole,
	})
	if err != nil {
		// the unique constraints decide races the pre-check missed
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			if dup.Constraint == repository.ConstraintEmail {
				return nil, emailTaken(email)
			}
			return nil, usernameTaken(username)
		}
		return nil, err
	}
	return user, nil
}

func usernameTaken(username string) error {
	return apperr.Conflict("User with username: %s already exists", username)
}

func emailTaken(email string) error {
	return apperr.Conflict("User with email: %s already exists", email)
}

func (s *AccountService) SetConfirmed(ctx context.Context, email string) error {
	username, err := s.users.SetConfirmed(ctx, email)
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, username)
	return nil
}

func (s *AccountService) SetPasswordHash(ctx context.Context, user *models.User, hash string) error {
	if err := s.users.SetPasswordHash(ctx, user.Username, hash); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, user.Username)
	return nil
}

func (s *AccountService) SetAvatar(ctx context.Context, email, url string) (*models.User, error) {
	user, err := s.users.SetAvatar(ctx, email, url)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, user.Username)
	return user, nil
}

func (s *AccountService) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	skip, limit = Page(skip, limit)
	return s.users.List(ctx, skip, limit)
}

func (s *AccountService) SetRole(ctx context.Context, username string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, apperr.Validation("Unknown role: %s", role)
	}
	user, err := s.users.SetRole(ctx, username, role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, username)
	return user, nil
}

// Delete removes the account and its contacts. Tokens already issued stay
// valid until expiry but no longer resolve to an identity.
func (s *AccountService) Delete(ctx context.Context, username string) error {
	if err := s.users.Delete(ctx, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return oops.Wrapf(err, "delete user %s", username)
	}
	s.cache.Invalidate(ctx, username)
	return nil
}
