package token

import (
	"time"

	"github.com/google/uuid"
)

// Token types persisted in the tokens table. Access tokens are never
// persisted; their validity is purely cryptographic.
const (
	TypeRefresh = "refresh"
	TypeReset   = "reset"
)

// Token is a persisted refresh or reset token. The signed token string is
// the lookup key.
type Token struct {
	ID        int64
	Token     string
	Type      string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the persisted row is past its expiry.
func (t *Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
