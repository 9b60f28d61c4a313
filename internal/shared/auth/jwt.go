package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const devSecret = "dev-secret"

var (
	errMissingSecret = errors.New("jwt secret not configured")

	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Identity is the caller resolved from a bearer token.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// Verifier resolves a bearer token to an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Claims are the identity-provider claims this service reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 tokens signed with the identity provider's secret.
type JWTVerifier struct {
	secret   []byte
	audience string
	now      func() time.Time
}

// NewJWTVerifier builds a verifier. Outside dev-like envs the secret is required.
func NewJWTVerifier(secret, audience string, devLike bool) (*JWTVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if !devLike {
			return nil, fmt.Errorf("%w: JWT_SECRET required", errMissingSecret)
		}
		secret = devSecret
	}
	return &JWTVerifier{
		secret:   []byte(secret),
		audience: strings.TrimSpace(audience),
		now:      time.Now,
	}, nil
}

// Verify validates signature, expiry and audience and returns the subject.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, fmt.Errorf("%w: no user ID", ErrInvalidToken)
	}
	role := claims.Role
	if role == "" {
		role = "authenticated"
	}
	return Identity{UserID: claims.Subject, Email: claims.Email, Role: role}, nil
}

// Sign issues a token for the given subject. Used by dev tooling and tests.
func (v *JWTVerifier) Sign(subject, email string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("sub is required")
	}
	if ttl == 0 {
		ttl = time.Hour
	}
	now := v.now().UTC()
	claims := Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

var _ Verifier = (*JWTVerifier)(nil)
