package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database model for the users table.
//
// The email verification pair (code + expiry) and the reset pair
// (token + expiry) are always set and cleared together.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                      uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email                   string     `bun:"email,notnull,unique"`
	PasswordHash            string     `bun:"password_hash,notnull"`
	TokenVersion            int        `bun:"token_version,notnull,default:0"`
	IsEmailVerified         bool       `bun:"is_email_verified,notnull,default:false"`
	EmailVerificationCode   *string    `bun:"email_verification_code"`
	EmailVerificationExpiry *time.Time `bun:"email_verification_expiry"`
	ResetPasswordToken      *string    `bun:"reset_password_token"`
	ResetPasswordExpiry     *time.Time `bun:"reset_password_expiry"`
	LastLogin               *time.Time `bun:"last_login"`
	CreatedAt               time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt               time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// Token is the database model for persisted refresh and reset tokens. The
// signed token string itself is the lookup key.
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:t"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Token     string    `bun:"token,notnull,unique"`
	Type      string    `bun:"type,notnull"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
