package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jacobekanem/gainz/internal/logging"
	"github.com/jacobekanem/gainz/internal/user"
)

// Service issues and verifies the three token kinds and owns the
// version-based revocation scheme. It is shared by the authentication and
// authorization services so neither re-derives verification on its own.
type Service struct {
	signer     Signer
	tokens     Repository
	users      user.Repository
	logger     *logging.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

func NewService(
	signer Signer,
	tokens Repository,
	users user.Repository,
	logger *logging.Logger,
	accessTTL, refreshTTL, resetTTL time.Duration,
) *Service {
	return &Service{
		signer:     signer,
		tokens:     tokens,
		users:      users,
		logger:     logger,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}
}

// IssueAccessToken signs a short-lived access token. Access tokens are not
// persisted and cannot be individually revoked; they simply expire.
func (s *Service) IssueAccessToken(userID uuid.UUID) (string, error) {
	return s.signer.CreateToken(Claims{UserID: userID.String()}, s.accessTTL)
}

// IssueRefreshToken signs a refresh token carrying the user's current token
// version and persists it. Returns user.ErrNotFound if the user is gone.
func (s *Service) IssueRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", user.ErrNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	signed, err := s.signer.CreateToken(Claims{
		UserID:  u.ID.String(),
		Type:    TypeRefresh,
		Version: u.TokenVersion,
	}, s.refreshTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if err := s.tokens.Store(ctx, &Token{
		Token:     signed,
		Type:      TypeRefresh,
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return signed, nil
}

// IssueResetToken signs a password-reset token, persists it, and returns the
// token with its expiry so the caller can mirror it on the user row.
func (s *Service) IssueResetToken(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	signed, err := s.signer.CreateToken(Claims{
		UserID: userID.String(),
		Type:   TypeReset,
	}, s.resetTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign reset token: %w", err)
	}

	expiresAt := time.Now().Add(s.resetTTL)
	if err := s.tokens.Store(ctx, &Token{
		Token:     signed,
		Type:      TypeReset,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store reset token: %w", err)
	}

	return signed, expiresAt, nil
}

// VerifyToken checks signature and expiry only. This is the access-token
// flavor: no persistence or version lookup.
func (s *Service) VerifyToken(tokenStr string) (*Claims, error) {
	return s.signer.VerifyToken(tokenStr)
}

// VerifyRefreshToken verifies a refresh token end to end: valid signature,
// a matching unexpired persisted row, and a token version equal to the
// user's live version. A version mismatch means the token was revoked; the
// stale row is deleted and ErrTokenRevoked is returned, distinct from
// expiry and malformed-token failures.
func (s *Service) VerifyRefreshToken(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := s.signer.VerifyToken(tokenStr)
	if err != nil {
		return nil, err
	}

	if claims.Type != TypeRefresh {
		return nil, ErrInvalidToken
	}

	rec, err := s.tokens.Get(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if rec.Type != TypeRefresh || rec.IsExpired() {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, s.revokeStale(ctx, tokenStr)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if u.TokenVersion != claims.Version {
		return nil, s.revokeStale(ctx, tokenStr)
	}

	return claims, nil
}

// revokeStale deletes a row whose version check failed and returns the
// revoked classification.
func (s *Service) revokeStale(ctx context.Context, tokenStr string) error {
	if err := s.tokens.Delete(ctx, tokenStr); err != nil {
		s.logger.Warn("failed to delete revoked token", "error", err)
	}
	return ErrTokenRevoked
}

// VerifyResetToken verifies a reset token: valid signature plus a matching
// unexpired persisted row of type reset.
func (s *Service) VerifyResetToken(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := s.signer.VerifyToken(tokenStr)
	if err != nil {
		return nil, err
	}

	if claims.Type != TypeReset {
		return nil, ErrInvalidToken
	}

	rec, err := s.tokens.Get(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up reset token: %w", err)
	}
	if rec.Type != TypeReset || rec.IsExpired() {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// LookupRefreshToken returns the persisted row for a refresh token without
// any cryptographic check. Used by logout, which must work even for tokens
// that no longer verify.
func (s *Service) LookupRefreshToken(ctx context.Context, tokenStr string) (*Token, error) {
	rec, err := s.tokens.Get(ctx, tokenStr)
	if err != nil {
		return nil, err
	}
	if rec.Type != TypeRefresh {
		return nil, ErrTokenNotFound
	}
	return rec, nil
}

// RevokeToken deletes the persisted row. Idempotent: revoking an absent
// token is a no-op.
func (s *Service) RevokeToken(ctx context.Context, tokenStr string) error {
	return s.tokens.Delete(ctx, tokenStr)
}

// RevokeAllUserTokens invalidates every outstanding refresh token for the
// user. The version bump comes first: it is the authoritative revocation,
// and a crash before row deletion only leaves rows that fail the version
// check on their next verification.
func (s *Service) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("failed to increment token version: %w", err)
	}

	if err := s.tokens.DeleteAllForUser(ctx, userID, TypeRefresh); err != nil {
		return fmt.Errorf("failed to delete user refresh tokens: %w", err)
	}

	return nil
}

// CleanupExpiredTokens removes expired rows. Failures are logged, not
// propagated: this is background maintenance, not request-critical work.
func (s *Service) CleanupExpiredTokens(ctx context.Context) {
	deleted, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		s.logger.Warn("failed to clean up expired tokens", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("cleaned up expired tokens", "deleted", deleted)
	}
}
