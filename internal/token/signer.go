package token

import (
	"errors"
	"time"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrTokenRevoked  = errors.New("token has been revoked")
	ErrTokenNotFound = errors.New("token not found")
)

// Claims is the payload carried by every signed token. Version is only
// meaningful for refresh tokens: it snapshots the user's token version at
// issue time and is compared against the live value on verification.
type Claims struct {
	UserID    string
	Type      string // "" for access tokens, otherwise TypeRefresh or TypeReset
	Version   int
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Signer defines the interface for token creation and cryptographic
// validation. Implementations include JWTSigner (HS256) and PasetoSigner
// (PASETO v4.local).
type Signer interface {
	// CreateToken signs the claims with the given lifetime.
	CreateToken(claims Claims, duration time.Duration) (string, error)
	// VerifyToken checks signature and expiry only. It returns
	// ErrExpiredToken for a well-formed but expired token and
	// ErrInvalidToken for everything else.
	VerifyToken(tokenStr string) (*Claims, error)
}
