package token

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for persisted token storage.
type Repository interface {
	Store(ctx context.Context, t *Token) error
	// Get returns the persisted row for the given token string, or
	// ErrTokenNotFound.
	Get(ctx context.Context, tokenStr string) (*Token, error)
	// Delete removes the row if present; deleting an absent token is not an
	// error.
	Delete(ctx context.Context, tokenStr string) error
	// DeleteAllForUser removes every row of the given type for a user.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID, tokenType string) error
	// DeleteExpired removes all rows past their expiry and reports how many.
	DeleteExpired(ctx context.Context) (int64, error)
}
