package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/AnshRaj112/contacts-backend/internal/apperr"
	"github.com/AnshRaj112/contacts-backend/internal/config"
)

// Purpose restricts which operation may accept a token.
type Purpose string

const (
	PurposeAccess      Purpose = "access"
	PurposeRefresh     Purpose = "refresh"
	PurposeEmailVerify Purpose = "email-verify"
)

// Claims is the token payload: sub, type, iat, exp and a random jti.
type Claims struct {
	jwt.RegisteredClaims
	Type Purpose `json:"type"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type TokenCodec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
	now        func() time.Time
}

// NewTokenCodec builds a codec from config. Only HMAC algorithms are accepted.
func NewTokenCodec(cfg *config.Config) (*TokenCodec, error) {
	var method jwt.SigningMethod
	switch cfg.JWTAlgorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm %q", cfg.JWTAlgorithm)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret must not be empty")
	}

	return &TokenCodec{
		secret:     []byte(cfg.JWTSecret),
		method:     method,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		emailTTL:   cfg.EmailTokenTTL,
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source. Tests only.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

func (c *TokenCodec) Issue(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Type: purpose,
	}

	tokenString, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", oops.Wrapf(err, "sign %s token", purpose)
	}
	return tokenString, nil
}

// Decode verifies signature, algorithm and expiry and then checks the purpose
// tag. Failures carry CodeInvalidToken or CodeWrongPurpose.
func (c *TokenCodec) Decode(tokenString string, expected Purpose) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, oops.Code(apperr.CodeInvalidToken).Wrapf(err, "invalid token")
	}

	if claims.Type != expected {
		return nil, oops.Code(apperr.CodeWrongPurpose).
			With("expected", string(expected), "actual", string(claims.Type)).
			Errorf("invalid scope for token")
	}
	return claims, nil
}

// IssuePair issues an access and a refresh token for username.
func (c *TokenCodec) IssuePair(username string) (TokenPair, error) {
	access, err := c.Issue(username, PurposeAccess, c.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := c.Issue(username, PurposeRefresh, c.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// IssueEmailToken issues the token mailed for confirmation and password reset.
// Its subject is the email address.
func (c *TokenCodec) IssueEmailToken(email string) (string, error) {
	return c.Issue(email, PurposeEmailVerify, c.emailTTL)
}
