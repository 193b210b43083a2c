package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTSigner signs and verifies HS256 JWTs. This is the default backend: the
// claim names match what the authorization service and the gateway expect.
type JWTSigner struct {
	secret []byte
}

type jwtClaims struct {
	UserID  string `json:"userId"`
	Type    string `json:"type,omitempty"`
	Version int    `json:"version"`
	jwt.RegisteredClaims
}

func NewJWTSigner(secret []byte) (*JWTSigner, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	return &JWTSigner{secret: secret}, nil
}

// CreateToken signs the claims with the given lifetime.
func (s *JWTSigner) CreateToken(claims Claims, duration time.Duration) (string, error) {
	now := time.Now()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		UserID:  claims.UserID,
		Type:    claims.Type,
		Version: claims.Version,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	})

	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken validates signature and expiry and returns the claims.
func (s *JWTSigner) VerifyToken(tokenStr string) (*Claims, error) {
	claims := &jwtClaims{}

	t, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !t.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	out := &Claims{
		UserID:  claims.UserID,
		Type:    claims.Type,
		Version: claims.Version,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out, nil
}
