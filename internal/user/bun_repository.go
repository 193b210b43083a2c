package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/jacobekanem/gainz/internal/database"
)

// BunRepository handles user data persistence in Postgres.
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

var _ Repository = (*BunRepository)(nil)

// Create inserts a new user with an initial OTP pair set.
func (r *BunRepository) Create(ctx context.Context, email, passwordHash, verificationCode string, codeExpiry time.Time) (*User, error) {
	dbUser := &database.User{
		Email:                   email,
		PasswordHash:            passwordHash,
		EmailVerificationCode:   &verificationCode,
		EmailVerificationExpiry: &codeExpiry,
		IsEmailVerified:         false,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *BunRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByResetToken retrieves a user by an unexpired reset token.
func (r *BunRepository) GetByResetToken(ctx context.Context, token string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("reset_password_token = ?", token).
		Where("reset_password_expiry > ?", time.Now()).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// MarkEmailVerified marks a user's email as verified and clears the OTP pair.
func (r *BunRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("is_email_verified = ?", true).
		Set("email_verification_code = ?", nil).
		Set("email_verification_expiry = ?", nil).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	return requireRowsAffected(result)
}

// SetVerificationCode stores a fresh OTP pair; only unverified users qualify.
func (r *BunRepository) SetVerificationCode(ctx context.Context, id uuid.UUID, code string, expiry time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("email_verification_code = ?", code).
		Set("email_verification_expiry = ?", expiry).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("is_email_verified = ?", false).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set verification code: %w", err)
	}

	return requireRowsAffected(result)
}

// SetResetToken stores the reset pair on the user row.
func (r *BunRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("reset_password_token = ?", token).
		Set("reset_password_expiry = ?", expiry).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	return requireRowsAffected(result)
}

// ResetPassword replaces the password hash and clears the reset pair.
func (r *BunRepository) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("reset_password_token = ?", nil).
		Set("reset_password_expiry = ?", nil).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return requireRowsAffected(result)
}

// IncrementTokenVersion bumps the per-user token version, invalidating every
// refresh token issued against the previous version.
func (r *BunRepository) IncrementTokenVersion(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("token_version = token_version + 1").
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to increment token version: %w", err)
	}

	return requireRowsAffected(result)
}

// UpdateLastLogin records a successful login.
func (r *BunRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("last_login = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                      dbu.ID,
		Email:                   dbu.Email,
		PasswordHash:            dbu.PasswordHash,
		TokenVersion:            dbu.TokenVersion,
		IsEmailVerified:         dbu.IsEmailVerified,
		EmailVerificationCode:   dbu.EmailVerificationCode,
		EmailVerificationExpiry: dbu.EmailVerificationExpiry,
		ResetPasswordToken:      dbu.ResetPasswordToken,
		ResetPasswordExpiry:     dbu.ResetPasswordExpiry,
		LastLogin:               dbu.LastLogin,
		CreatedAt:               dbu.CreatedAt,
		UpdatedAt:               dbu.UpdatedAt,
	}
}
