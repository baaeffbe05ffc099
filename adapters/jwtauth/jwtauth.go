// Package jwtauth validates and issues HMAC-signed access tokens.
//
// Tokens carry the user id in the "userId" claim and the account role in
// "role". Validator satisfies livechat.CredentialValidator.
package jwtauth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/coregx/livechat"
	"github.com/golang-jwt/jwt/v5"
)

var errUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// Claims is the access token payload.
type Claims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Validator checks HS256 tokens against a shared secret.
type Validator struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// Option configures a Validator.
type Option func(*Validator)

// WithIssuer requires and stamps the iss claim.
func WithIssuer(issuer string) Option {
	return func(v *Validator) {
		v.issuer = issuer
	}
}

// WithLeeway tolerates clock skew when checking exp and nbf.
func WithLeeway(d time.Duration) Option {
	return func(v *Validator) {
		v.leeway = d
	}
}

// NewValidator creates a Validator. The secret must not be empty.
func NewValidator(secret string, opts ...Option) (*Validator, error) {
	if secret == "" {
		return nil, livechat.NewError(livechat.ErrCodeConfiguration, "jwt secret is required")
	}
	v := &Validator{secret: []byte(secret)}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Validate parses token and returns the user id it was issued for.
func (v *Validator) Validate(_ context.Context, token string) (int64, error) {
	claims, err := v.Parse(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// Parse verifies token and returns its claims.
func (v *Validator) Parse(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errUnsupportedAlgorithm
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, livechat.NewError(livechat.ErrCodeAuthFailed, "token is not valid")
	}
	if claims.UserID <= 0 {
		return nil, livechat.NewError(livechat.ErrCodeAuthTokenUnsupported, "token has no user id")
	}
	return claims, nil
}

// Issue signs a token for userID that expires after ttl.
func (v *Validator) Issue(userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", livechat.NewErrorWithCause(livechat.ErrCodeInternal, "failed to sign token", err)
	}
	return signed, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return livechat.NewErrorWithCause(livechat.ErrCodeAuthTokenExpired, "token has expired", err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return livechat.NewErrorWithCause(livechat.ErrCodeAuthInvalidTokenFormat, "token is malformed or badly signed", err)
	case errors.Is(err, errUnsupportedAlgorithm),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return livechat.NewErrorWithCause(livechat.ErrCodeAuthTokenUnsupported, "token is not supported", err)
	default:
		return livechat.NewErrorWithCause(livechat.ErrCodeAuthFailed, "token validation failed", err)
	}
}
