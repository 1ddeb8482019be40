// Package auth verifies bearer tokens issued by the external identity
// provider and talks to that provider's admin API for user provisioning.
// Roles are not taken from tokens; they live on the local profile.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the caller established by a verified token
type Identity struct {
	UserID string
	Email  string
}

// Verifier validates a raw bearer token
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// Claims represents the JWT claims structure issued by the identity provider
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SecretVerifier verifies HS256 tokens signed with the provider's shared secret
type SecretVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewSecretVerifier creates a SecretVerifier. The secret must not be empty.
func NewSecretVerifier(secret string) (*SecretVerifier, error) {
	if secret == "" {
		return nil, errors.New("SECURITY ERROR: auth.jwt_secret is required when OIDC is disabled")
	}
	if len(secret) < 32 {
		log.Printf("WARNING: auth.jwt_secret is shorter than recommended 32 characters.")
	}
	return &SecretVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}, nil
}

// Verify parses and validates a token and returns its subject
func (v *SecretVerifier) Verify(_ context.Context, rawToken string) (*Identity, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(rawToken, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// SignToken issues an HS256 token for userID. Used by tooling and tests that
// need a token the SecretVerifier accepts.
func SignToken(secret, userID, email string, expiresIn time.Duration) (string, error) {
	if expiresIn == 0 {
		expiresIn = time.Hour
	}
	now := time.Now()
	claims := &Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
