// Package token issues and verifies the bearer tokens handed out at login.
// Tokens are HS256 JWTs valid for a fixed window from issuance.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the validity window of an issued token.
const DefaultTTL = 24 * time.Hour

// ErrInvalidToken covers every malformed, tampered or expired token.
var ErrInvalidToken = errors.New("token: invalid or expired")

// Claims is the decoded identity carried by a token.
type Claims struct {
	UserID       uuid.UUID
	IsSuperadmin bool
}

type jwtClaims struct {
	IsSuperadmin bool `json:"is_superadmin"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option customises an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for iat, exp and validation.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// NewIssuer returns an Issuer for secret. An empty secret is rejected.
func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token: secret must not be empty")
	}
	issuer := &Issuer{secret: []byte(secret), ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer, nil
}

// Issue returns a signed token for the user.
func (i *Issuer) Issue(userID uuid.UUID, isSuperadmin bool) (string, error) {
	now := i.now()
	claims := jwtClaims{
		IsSuperadmin: isSuperadmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry and returns the embedded identity.
func (i *Issuer) Decode(raw string) (Claims, error) {
	var claims jwtClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: userID, IsSuperadmin: claims.IsSuperadmin}, nil
}
