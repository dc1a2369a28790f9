package signing

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of a service token
const DefaultTokenTTL = time.Minute

// ServiceClaims identify the gateway to the backend
type ServiceClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// TokenSource mints short-lived HS256 bearer tokens for backend calls
type TokenSource struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSource creates a TokenSource. An empty secret yields a nil source,
// which sends requests without an Authorization header.
func NewTokenSource(secret, issuer string, ttl time.Duration) *TokenSource {
	if secret == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenSource{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Token returns a freshly signed token for the given scope
func (s *TokenSource) Token(scope string) (string, error) {
	if s == nil {
		return "", errors.New("token source not configured")
	}
	now := s.now()
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   s.issuer,
			Audience:  jwt.ClaimStrings{"lending-backend"},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Scope: scope,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}
	return signed, nil
}
