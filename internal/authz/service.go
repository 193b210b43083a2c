package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jacobekanem/gainz/internal/token"
	"github.com/jacobekanem/gainz/internal/user"
)

var (
	ErrTokenRequired = errors.New("token is required")
	ErrUserGone      = errors.New("user not found")
)

// Service turns a bearer token into a verified user identity. It only
// checks signature and expiry: access tokens are not persisted and carry no
// version, so no store lookup beyond the user record is needed.
type Service struct {
	tokenService *token.Service
	userRepo     user.Repository
}

func NewService(tokenService *token.Service, userRepo user.Repository) *Service {
	return &Service{
		tokenService: tokenService,
		userRepo:     userRepo,
	}
}

// Validate verifies the token and resolves its user. A cryptographically
// valid token whose user has since been deleted fails with ErrUserGone.
func (s *Service) Validate(ctx context.Context, tokenStr string) (*user.User, error) {
	if tokenStr == "" {
		return nil, ErrTokenRequired
	}

	claims, err := s.tokenService.VerifyToken(tokenStr)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, token.ErrInvalidToken
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserGone
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}
