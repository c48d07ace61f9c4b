// File: internal/fixtures/token.go
package fixtures

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/xkilldash9x/lancet/internal/config"
)

const defaultTokenSecret = "lancet-test-secret"

// ErrInvalidToken is returned when a token fails verification.
var ErrInvalidToken = errors.New("invalid test token")

// TokenClaims are the claims carried by generated API tokens.
type TokenClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 bearer tokens for API steps against test
// backends that share the secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer reads the secret from TEST_API_SECRET.
func NewTokenIssuer(lookup config.LookupFunc) *TokenIssuer {
	secret := defaultTokenSecret
	if v, ok := lookup("TEST_API_SECRET"); ok && v != "" {
		secret = v
	}
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for user valid for ttl.
func (t *TokenIssuer) Issue(user User, ttl time.Duration, roles ...string) (string, error) {
	now := t.now()
	claims := &TokenClaims{
		Email: user.Email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign test token: %w", err)
	}
	return signed, nil
}

// Verify parses token and returns its claims.
func (t *TokenIssuer) Verify(token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
