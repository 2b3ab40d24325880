package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/contacts-backend/internal/apperr"
	"github.com/AnshRaj112/contacts-backend/internal/auth"
	"github.com/AnshRaj112/contacts-backend/internal/config"
	"github.com/AnshRaj112/contacts-backend/internal/models"
)

const testHost = "http://testserver/"

type fakeAvatars struct {
	url string
	err error
}

func (f *fakeAvatars) Upload(_ context.Context, file io.Reader, username string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	return f.url + AvatarPublicID(username), nil
}

type authFixture struct {
	svc      *AuthService
	accounts *AccountService
	codec    *auth.TokenCodec
	mailer   *recordingMailer
	notifier *Notifier
	avatars  *fakeAvatars
	cache    *IdentityCache
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	codec, err := auth.NewTokenCodec(&config.Config{
		JWTSecret:       "test-secret",
		JWTAlgorithm:    "HS256",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		EmailTokenTTL:   7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	accounts, _, cache := newAccounts(t)
	mailer := &recordingMailer{}
	notifier := NewNotifier(mailer, codec, discardLogger())
	avatars := &fakeAvatars{url: "https://res.cloudinary.com/demo/"}
	svc := NewAuthService(accounts, auth.NewBcryptHasher(), codec, notifier, avatars, discardLogger())
	return &authFixture{svc: svc, accounts: accounts, codec: codec, mailer: mailer, notifier: notifier, avatars: avatars, cache: cache}
}

// register signs up an account and returns the token from its confirmation mail.
func (f *authFixture) register(t *testing.T, username, email, password string) string {
	t.Helper()
	_, err := f.svc.Register(context.Background(), models.NewUserInput{Username: username, Email: email, Password: password}, testHost)
	require.NoError(t, err)
	f.notifier.Wait()

	mails := f.mailer.mails()
	require.NotEmpty(t, mails)
	last := mails[len(mails)-1]
	assert.Equal(t, email, last.To)
	return last.Vars["token"].(string)
}

func TestAuthService_RegisterConfirmLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	token := f.register(t, "u1", "u1@x.com", "pw")
	mail := f.mailer.mails()[0]
	assert.Equal(t, TemplateVerifyEmail, mail.Tpl)
	assert.Equal(t, testHost, mail.Vars["host"])
	assert.Equal(t, "u1", mail.Vars["username"])

	_, err := f.svc.Login(ctx, "u1", "pw")
	require.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
	assert.Equal(t, "Email address not confirmed", err.Error())

	msg, err := f.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, MsgConfirmed, msg)

	msg, err = f.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, MsgAlreadyConfirmed, msg)

	pair, err := f.svc.Login(ctx, "u1", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)

	claims, err := f.codec.Decode(pair.AccessToken, auth.PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
}

func TestAuthService_Register_Invalid(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), models.NewUserInput{Username: "u1", Email: "nope", Password: "pw"}, testHost)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = f.svc.Register(context.Background(), models.NewUserInput{Username: "u1", Email: "u1@x.com", Password: ""}, testHost)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	assert.Empty(t, f.mailer.mails())
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	token := f.register(t, "u1", "u1@x.com", "pw")
	_, err := f.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)

	for _, tc := range []struct{ user, pass string }{{"u1", "wrong"}, {"ghost", "pw"}, {"U1", "pw"}} {
		_, err := f.svc.Login(ctx, tc.user, tc.pass)
		require.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
		assert.Equal(t, "Incorrect login or password", err.Error())
	}
}

func TestAuthService_Refresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	token := f.register(t, "u1", "u1@x.com", "pw")
	_, err := f.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	pair, err := f.svc.Login(ctx, "u1", "pw")
	require.NoError(t, err)

	next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, next.AccessToken)

	_, err = f.svc.Refresh(ctx, pair.AccessToken)
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))

	require.NoError(t, f.accounts.Delete(ctx, "u1"))
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
}

func TestAuthService_ConfirmEmail_BadToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmEmail(ctx, "garbage")
	require.True(t, apperr.Is(err, apperr.CodeBadRequest))
	assert.Equal(t, "Verification error", err.Error())

	access, err := f.codec.Issue("u1@x.com", auth.PurposeAccess, time.Minute)
	require.NoError(t, err)
	_, err = f.svc.ConfirmEmail(ctx, access)
	assert.True(t, apperr.Is(err, apperr.CodeBadRequest))

	unknown, err := f.codec.IssueEmailToken("ghost@x.com")
	require.NoError(t, err)
	_, err = f.svc.ConfirmEmail(ctx, unknown)
	assert.True(t, apperr.Is(err, apperr.CodeBadRequest))
}

func TestAuthService_RequestConfirmation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	token := f.register(t, "u1", "u1@x.com", "pw")

	msg, err := f.svc.RequestConfirmation(ctx, "u1@x.com", testHost)
	require.NoError(t, err)
	assert.Equal(t, MsgCheckEmail, msg)
	f.notifier.Wait()
	assert.Len(t, f.mailer.mails(), 2)

	_, err = f.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	msg, err = f.svc.RequestConfirmation(ctx, "u1@x.com", testHost)
	require.NoError(t, err)
	assert.Equal(t, MsgAlreadyConfirmed, msg)

	_, err = f.svc.RequestConfirmation(ctx, "ghost@x.com", testHost)
	require.True(t, apperr.Is(err, apperr.CodeNotFound))
	assert.Equal(t, "User with this email not found, please check entered email.", err.Error())
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	confirm := f.register(t, "u1", "u1@x.com", "pw")

	_, err := f.svc.RequestPasswordReset(ctx, "u1@x.com", testHost)
	require.True(t, apperr.Is(err, apperr.CodeBadRequest))
	assert.Equal(t, "Email address not confirmed", err.Error())

	_, err = f.svc.ConfirmEmail(ctx, confirm)
	require.NoError(t, err)

	msg, err := f.svc.RequestPasswordReset(ctx, "u1@x.com", testHost)
	require.NoError(t, err)
	assert.Equal(t, MsgCheckEmail, msg)
	f.notifier.Wait()

	mails := f.mailer.mails()
	reset := mails[len(mails)-1]
	assert.Equal(t, TemplateResetPassword, reset.Tpl)

	require.NoError(t, f.svc.ResetPassword(ctx, reset.Vars["token"].(string), "new-pw"))

	_, err = f.svc.Login(ctx, "u1", "pw")
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
	_, err = f.svc.Login(ctx, "u1", "new-pw")
	assert.NoError(t, err)

	err = f.svc.ResetPassword(ctx, "garbage", "x")
	assert.True(t, apperr.Is(err, apperr.CodeBadRequest))

	err = f.svc.ResetPassword(ctx, reset.Vars["token"].(string), strings.Repeat("x", 73))
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestAuthService_MailFailureDoesNotFailRequest(t *testing.T) {
	f := newAuthFixture(t)
	f.mailer.err = errors.New("smtp down")

	user, err := f.svc.Register(context.Background(), models.NewUserInput{Username: "u1", Email: "u1@x.com", Password: "pw"}, testHost)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.Username)
	f.notifier.Wait()
}

func TestAuthService_UpdateAvatar(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "u1", "u1@x.com", "pw")
	user, err := f.accounts.FindByUsername(ctx, "u1")
	require.NoError(t, err)

	f.cache.Put(ctx, user)
	updated, err := f.svc.UpdateAvatar(ctx, user, strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.NotNil(t, updated.Avatar)
	assert.Equal(t, "https://res.cloudinary.com/demo/RestApp/u1", *updated.Avatar)

	_, ok := f.cache.Get(ctx, "u1")
	assert.False(t, ok)

	f.avatars.err = errors.New("401 invalid api key")
	_, err = f.svc.UpdateAvatar(ctx, user, strings.NewReader("png-bytes"))
	require.True(t, apperr.Is(err, apperr.CodeGateway))
	assert.Equal(t, "Cloudinary authentication failed", err.Error())
}

func TestAuthService_UpdateAvatar_NotConfigured(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.avatars = nil
	_, err := f.svc.UpdateAvatar(context.Background(), &models.User{Username: "u1"}, strings.NewReader("x"))
	assert.True(t, apperr.Is(err, apperr.CodeGateway))
}

// countingHasher records which digests Verify was asked to check.
type countingHasher struct {
	*auth.BcryptHasher
	mu       sync.Mutex
	verified []string
}

func (c *countingHasher) Verify(plaintext, digest string) bool {
	c.mu.Lock()
	c.verified = append(c.verified, digest)
	c.mu.Unlock()
	return c.BcryptHasher.Verify(plaintext, digest)
}

func TestAuthService_LoginUnknownUserStillHashes(t *testing.T) {
	f := newAuthFixture(t)
	hasher := &countingHasher{BcryptHasher: auth.NewBcryptHasher()}
	svc := NewAuthService(f.accounts, hasher, f.codec, f.notifier, nil, discardLogger())

	_, err := svc.Login(context.Background(), "ghost", "pw")
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
	assert.Equal(t, "Incorrect login or password", err.Error())

	require.Len(t, hasher.verified, 1)
	assert.True(t, strings.HasPrefix(hasher.verified[0], "$2a$10$"), "dummy digest must be a real bcrypt digest")
}
