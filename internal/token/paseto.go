package token

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

// PasetoSigner is the PASETO v4.local backend (symmetric encryption with
// XChaCha20-Poly1305). Selected with TOKEN_BACKEND=paseto.
type PasetoSigner struct {
	symmetricKey paseto.V4SymmetricKey
}

func NewPasetoSigner(symmetricKey []byte) (*PasetoSigner, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoSigner{symmetricKey: key}, nil
}

// CreateToken generates a new PASETO v4.local token with the given claims and duration.
func (s *PasetoSigner) CreateToken(claims Claims, duration time.Duration) (string, error) {
	now := time.Now()

	t := paseto.NewToken()
	t.SetIssuedAt(now)
	t.SetExpiration(now.Add(duration))
	t.SetString("user_id", claims.UserID)
	if claims.Type != "" {
		t.SetString("type", claims.Type)
	}
	if err := t.Set("version", claims.Version); err != nil {
		return "", fmt.Errorf("failed to set version claim: %w", err)
	}

	return t.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyToken validates a PASETO v4.local token and returns the claims.
func (s *PasetoSigner) VerifyToken(tokenStr string) (*Claims, error) {
	parser := paseto.NewParser()

	t, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	userID, err := t.GetString("user_id")
	if err != nil || userID == "" {
		return nil, ErrInvalidToken
	}

	// Type is absent on access tokens
	tokenType, _ := t.GetString("type")

	var version int
	if err := t.Get("version", &version); err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := t.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := t.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    userID,
		Type:      tokenType,
		Version:   version,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
