package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenValidator verifies a bearer credential and returns the user id it
// carries. Issuing tokens (login, multi-factor) is the auth subsystem's
// business; this service only consumes the result.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (int, error)
}

// JWTValidator validates HS256 tokens carrying a user_id claim.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator constructs a validator over a shared signing secret.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// Validate parses and verifies the token. Expired, malformed or missing
// credentials all come back as ErrInvalidToken.
func (v *JWTValidator) Validate(_ context.Context, token string) (int, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid || claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

var _ TokenValidator = (*JWTValidator)(nil)
