// Package auth issues and validates the platform's JWT access tokens and
// password hashes.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/webatelier/platform/internal/errors"
)

// Claims are the platform JWT claims.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer issues and validates HS256 access tokens.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
}

// NewTokenIssuer creates a token issuer.
func NewTokenIssuer(secret []byte, issuer string, lifetime time.Duration) *TokenIssuer {
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &TokenIssuer{secret: secret, issuer: issuer, lifetime: lifetime}
}

// Issue creates a signed access token for the user.
func (t *TokenIssuer) Issue(userID, email, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", errors.Internal("sign token", err)
	}
	return signed, nil
}

// Validate parses and validates a token string.
func (t *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, errors.InvalidToken(err)
	}
	if !token.Valid {
		return nil, errors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "invalid claims type")
	}
	return claims, nil
}
