package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/jacobekanem/gainz/internal/database"
)

// BunRepository handles token persistence in Postgres.
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

var _ Repository = (*BunRepository)(nil)

// Store persists a token row.
func (r *BunRepository) Store(ctx context.Context, t *Token) error {
	dbToken := &database.Token{
		Token:     t.Token,
		Type:      t.Type,
		UserID:    t.UserID,
		ExpiresAt: t.ExpiresAt,
	}

	_, err := r.db.NewInsert().
		Model(dbToken).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	return nil
}

// Get retrieves a token row by the token string.
func (r *BunRepository) Get(ctx context.Context, tokenStr string) (*Token, error) {
	dbToken := new(database.Token)
	err := r.db.NewSelect().
		Model(dbToken).
		Where("token = ?", tokenStr).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	return mapDBTokenToModel(dbToken), nil
}

// Delete removes a token row; no-op if absent.
func (r *BunRepository) Delete(ctx context.Context, tokenStr string) error {
	_, err := r.db.NewDelete().
		Model((*database.Token)(nil)).
		Where("token = ?", tokenStr).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	return nil
}

// DeleteAllForUser removes all rows of the given type for a user.
func (r *BunRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID, tokenType string) error {
	_, err := r.db.NewDelete().
		Model((*database.Token)(nil)).
		Where("user_id = ?", userID).
		Where("type = ?", tokenType).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user tokens: %w", err)
	}

	return nil
}

// DeleteExpired removes expired rows. Meant to be run periodically.
func (r *BunRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*database.Token)(nil)).
		Where("expires_at < ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}

	return deleted, nil
}

// mapDBTokenToModel converts database model to domain model
func mapDBTokenToModel(dbt *database.Token) *Token {
	return &Token{
		ID:        dbt.ID,
		Token:     dbt.Token,
		Type:      dbt.Type,
		UserID:    dbt.UserID,
		ExpiresAt: dbt.ExpiresAt,
		CreatedAt: dbt.CreatedAt,
	}
}
