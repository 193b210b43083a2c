package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"` // Never expose password hash in JSON
	TokenVersion    int       `json:"-"`
	IsEmailVerified bool      `json:"is_email_verified"`
	// OTP pair: both set or both nil
	EmailVerificationCode   *string    `json:"-"`
	EmailVerificationExpiry *time.Time `json:"-"`
	// Reset pair: both set or both nil
	ResetPasswordToken  *string    `json:"-"`
	ResetPasswordExpiry *time.Time `json:"-"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
