// Package auth implements password hashing and the stateless bearer
// token service. Tokens are HS256-signed JWTs carrying subject and
// expiry; the server keeps no session store, so expiry is the only
// invalidation mechanism.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSignature indicates the token was signed with a different secret.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrExpiredToken indicates the token's expiry has passed.
	ErrExpiredToken = errors.New("token has expired")
	// ErrMalformedToken indicates the token could not be parsed at all.
	ErrMalformedToken = errors.New("malformed token")
)

// TokenClaims is the payload carried by issued tokens. Subject holds
// the user id as a string.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// JWTManager issues and verifies signed, time-limited bearer tokens.
// The signing secret is process-wide and loaded once at startup;
// rotating it invalidates all outstanding tokens.
type JWTManager struct {
	secretKey     string
	tokenDuration time.Duration
}

func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{secretKey: secretKey, tokenDuration: tokenDuration}
}

// Generate issues a token for the given subject with the default TTL.
func (m *JWTManager) Generate(subject string) (string, error) {
	return m.GenerateWithTTL(subject, m.tokenDuration)
}

// GenerateWithTTL issues a token with an explicit TTL override.
func (m *JWTManager) GenerateWithTTL(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "clinica-api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// Verify checks signature integrity and expiry. Failures map onto
// ErrExpiredToken, ErrInvalidSignature, or ErrMalformedToken so callers
// can log the precise reason without exposing it to clients.
func (m *JWTManager) Verify(tokenStr string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secretKey), nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformedToken
		}
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrMalformedToken
	}

	return claims, nil
}
