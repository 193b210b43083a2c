package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("user already exists")
)

// Repository defines the interface for user storage. The Bun-backed
// implementation is used in production; tests substitute an in-memory fake.
type Repository interface {
	Create(ctx context.Context, email, passwordHash, verificationCode string, codeExpiry time.Time) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetByResetToken returns the user whose reset token matches and whose
	// reset expiry is still in the future.
	GetByResetToken(ctx context.Context, token string) (*User, error)
	// MarkEmailVerified sets is_email_verified and clears the OTP pair in a
	// single update.
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	// SetVerificationCode stores a fresh OTP pair for an unverified user.
	SetVerificationCode(ctx context.Context, id uuid.UUID, code string, expiry time.Time) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error
	// ResetPassword replaces the password hash and clears the reset pair in a
	// single update.
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id uuid.UUID) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}
