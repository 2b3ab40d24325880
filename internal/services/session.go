package services

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/AnshRaj112/contacts-backend/internal/apperr"
	"github.com/AnshRaj112/contacts-backend/internal/auth"
	"github.com/AnshRaj112/contacts-backend/internal/models"
	"github.com/AnshRaj112/contacts-backend/internal/repository"
	"github.com/AnshRaj112/contacts-backend/pkg/utils"
)

const (
	msgBadCredentials   = "Incorrect login or password"
	msgNotConfirmed     = "Email address not confirmed"
	msgVerification     = "Verification error"
	msgEmailNotFound    = "User with this email not found, please check entered email."
	MsgAlreadyConfirmed = "Your email already confirmed"
	MsgConfirmed        = "Email success confirmed"
	MsgCheckEmail       = "Check your email post"
	MsgPasswordSaved    = "password successfully saved"
)

// AuthService runs the account flows that issue or consume tokens: sign-up,
// login, refresh, email confirmation, password reset and avatar change.
type AuthService struct {
	accounts *AccountService
	hasher   auth.Hasher
	codec    *auth.TokenCodec
	notifier *Notifier
	avatars  AvatarStore
	logger   *slog.Logger

	// dummyDigest is verified against when the username is unknown so both
	// login failures cost one hash comparison.
	dummyDigest string
}

func NewAuthService(accounts *AccountService, hasher auth.Hasher, codec *auth.TokenCodec,
	notifier *Notifier, avatars AvatarStore, logger *slog.Logger) *AuthService {
	dummy, err := hasher.Hash("login-timing-equalizer")
	if err != nil {
		logger.Warn("failed to prepare dummy password digest", "error", err)
	}
	return &AuthService{
		accounts:    accounts,
		hasher:      hasher,
		codec:       codec,
		notifier:    notifier,
		avatars:     avatars,
		logger:      logger,
		dummyDigest: dummy,
	}
}

// Register creates the account and mails a confirmation link to it.
func (s *AuthService) Register(ctx context.Context, in models.NewUserInput, host string) (*models.User, error) {
	if err := utils.Validate(in); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.accounts.Create(ctx, in.Username, in.Email, hash)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "username", user.Username)
	s.notifier.SendVerification(user.Email, user.Username, host)
	return user, nil
}

// Login checks credentials against the store, never the cache, and issues a
// token pair for confirmed accounts.
func (s *AuthService) Login(ctx context.Context, username, password string) (auth.TokenPair, error) {
	user, err := s.accounts.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return auth.TokenPair{}, err
	}
	if user == nil {
		s.hasher.Verify(password, s.dummyDigest)
		return auth.TokenPair{}, apperr.Unauthenticated(msgBadCredentials)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return auth.TokenPair{}, apperr.Unauthenticated(msgBadCredentials)
	}
	if !user.Confirmed {
		return auth.TokenPair{}, apperr.Unauthenticated(msgNotConfirmed)
	}
	return s.codec.IssuePair(user.Username)
}

// Refresh exchanges a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken, auth.PurposeRefresh)
	if err != nil || claims.Subject == "" {
		return auth.TokenPair{}, apperr.Unauthenticated("Could not validate credentials")
	}
	if _, err := s.accounts.FindByUsername(ctx, claims.Subject); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.TokenPair{}, apperr.Unauthenticated("Could not validate credentials")
		}
		return auth.TokenPair{}, err
	}
	return s.codec.IssuePair(claims.Subject)
}

// emailFromToken returns the account an email token was issued for.
func (s *AuthService) emailFromToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.codec.Decode(token, auth.PurposeEmailVerify)
	if err != nil || claims.Subject == "" {
		return nil, apperr.BadRequest(msgVerification)
	}
	user, err := s.accounts.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.BadRequest(msgVerification)
		}
		return nil, err
	}
	return user, nil
}

// ConfirmEmail flips the confirmed flag and returns the message to show.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (string, error) {
	user, err := s.emailFromToken(ctx, token)
	if err != nil {
		return "", err
	}
	if user.Confirmed {
		return MsgAlreadyConfirmed, nil
	}
	if err := s.accounts.SetConfirmed(ctx, user.Email); err != nil {
		return "", err
	}
	return MsgConfirmed, nil
}

// RequestConfirmation mails a new confirmation link.
func (s *AuthService) RequestConfirmation(ctx context.Context, email, host string) (string, error) {
	user, err := s.findForMail(ctx, email)
	if err != nil {
		return "", err
	}
	if user.Confirmed {
		return MsgAlreadyConfirmed, nil
	}
	s.notifier.SendVerification(user.Email, user.Username, host)
	return MsgCheckEmail, nil
}

// RequestPasswordReset mails a reset token to a confirmed account.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, host string) (string, error) {
	user, err := s.findForMail(ctx, email)
	if err != nil {
		return "", err
	}
	if !user.Confirmed {
		return "", apperr.BadRequest(msgNotConfirmed)
	}
	s.notifier.SendPasswordReset(user.Email, user.Username, host)
	return MsgCheckEmail, nil
}

func (s *AuthService) findForMail(ctx context.Context, email string) (*models.User, error) {
	if err := utils.ValidateEmail(email); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	user, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(msgEmailNotFound)
		}
		return nil, err
	}
	return user, nil
}

// ResetPassword replaces the password of the account the token names.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.emailFromToken(ctx, token)
	if err != nil {
		return err
	}
	if newPassword == "" || len(newPassword) > 72 {
		return apperr.Validation("new_password must be between 1 and 72 characters")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.SetPasswordHash(ctx, user, hash); err != nil {
		return err
	}
	s.logger.Info("password reset", "username", user.Username)
	return nil
}

// UpdateAvatar uploads the image and stores its URL on the account.
func (s *AuthService) UpdateAvatar(ctx context.Context, user *models.User, file io.Reader) (*models.User, error) {
	if s.avatars == nil {
		return nil, apperr.Gateway(errors.New("cloudinary not configured"), "Cloudinary authentication failed")
	}
	url, err := s.avatars.Upload(ctx, file, user.Username)
	if err != nil {
		return nil, apperr.Gateway(err, "Cloudinary authentication failed")
	}
	return s.accounts.SetAvatar(ctx, user.Email, url)
}
