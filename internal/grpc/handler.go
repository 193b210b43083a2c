package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jacobekanem/gainz/internal/authz"
	"github.com/jacobekanem/gainz/internal/pb"
	"github.com/jacobekanem/gainz/internal/token"
)

// ValidateToken verifies a bearer token and returns the owning user.
func (s *Server) ValidateToken(ctx context.Context, req *pb.ValidateTokenRequest) (*pb.ValidateTokenResponse, error) {
	if req.GetToken() == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	u, err := s.authz.Validate(ctx, req.GetToken())
	if err != nil {
		switch {
		case errors.Is(err, authz.ErrUserGone):
			return nil, status.Error(codes.NotFound, "user not found")
		case errors.Is(err, token.ErrInvalidToken), errors.Is(err, token.ErrExpiredToken):
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		default:
			s.logger.Error("token validation failed", "error", err.Error())
			return nil, status.Error(codes.Internal, "internal error")
		}
	}

	return &pb.ValidateTokenResponse{
		Valid: true,
		User: &pb.UserInfo{
			Id:        u.ID.String(),
			Email:     u.Email,
			CreatedAt: u.CreatedAt.Format(time.RFC3339),
			UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
		},
	}, nil
}
