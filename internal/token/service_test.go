package token

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobekanem/gainz/internal/logging"
	"github.com/jacobekanem/gainz/internal/user"
)

// ---- fakes ----

type memTokenRepo struct {
	mu   sync.Mutex
	rows map[string]*Token
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{rows: make(map[string]*Token)}
}

func (r *memTokenRepo) Store(ctx context.Context, t *Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.rows[t.Token] = &cp
	return nil
}

func (r *memTokenRepo) Get(ctx context.Context, tokenStr string) (*Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[tokenStr]
	if !ok {
		return nil, ErrTokenNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *memTokenRepo) Delete(ctx context.Context, tokenStr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, tokenStr)
	return nil
}

func (r *memTokenRepo) DeleteAllForUser(ctx context.Context, userID uuid.UUID, tokenType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, row := range r.rows {
		if row.UserID == userID && row.Type == tokenType {
			delete(r.rows, k)
		}
	}
	return nil
}

func (r *memTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, row := range r.rows {
		if row.IsExpired() {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}

func (r *memTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*user.User)}
}

func (r *memUserRepo) add(u *user.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *memUserRepo) Create(ctx context.Context, email, passwordHash, code string, expiry time.Time) (*user.User, error) {
	u := &user.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash}
	r.add(u)
	return u, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByResetToken(ctx context.Context, token string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (r *memUserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memUserRepo) SetVerificationCode(ctx context.Context, id uuid.UUID, code string, expiry time.Time) error {
	return nil
}

func (r *memUserRepo) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	return nil
}

func (r *memUserRepo) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return nil
}

func (r *memUserRepo) IncrementTokenVersion(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.TokenVersion++
	return nil
}

func (r *memUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error { return nil }

// ---- helpers ----

func newTestService(t *testing.T, refreshTTL time.Duration) (*Service, *memTokenRepo, *memUserRepo) {
	t.Helper()

	signer, err := NewJWTSigner([]byte("test-secret"))
	require.NoError(t, err)

	tokens := newMemTokenRepo()
	users := newMemUserRepo()
	logger := logging.NewLogger(true)

	svc := NewService(signer, tokens, users, logger, 15*time.Minute, refreshTTL, time.Hour)
	return svc, tokens, users
}

// ---- tests ----

func TestIssueAndVerifyRefreshToken(t *testing.T) {
	t.Parallel()

	svc, tokens, users := newTestService(t, 7*24*time.Hour)
	u := &user.User{ID: uuid.New(), Email: "a@x.com", TokenVersion: 3}
	users.add(u)

	tok, err := svc.IssueRefreshToken(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	assert.Equal(t, 1, tokens.count())

	claims, err := svc.VerifyRefreshToken(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, TypeRefresh, claims.Type)
	assert.Equal(t, 3, claims.Version)
}

func TestIssueRefreshToken_UserNotFound(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, time.Hour)

	_, err := svc.IssueRefreshToken(context.Background(), uuid.New())
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestVerifyRefreshToken_RowMissing(t *testing.T) {
	t.Parallel()

	svc, tokens, users := newTestService(t, time.Hour)
	u := &user.User{ID: uuid.New(), Email: "a@x.com"}
	users.add(u)

	tok, err := svc.IssueRefreshToken(context.Background(), u.ID)
	require.NoError(t, err)

	require.NoError(t, tokens.Delete(context.Background(), tok))

	_, err = svc.VerifyRefreshToken(context.Background(), tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRefreshToken_RevokedByVersionBump(t *testing.T) {
	t.Parallel()

	svc, tokens, users := newTestService(t, time.Hour)
	u := &user.User{ID: uuid.New(), Email: "a@x.com"}
	users.add(u)

	tok, err := svc.IssueRefreshToken(context.Background(), u.ID)
	require.NoError(t, err)

	row, err := tokens.Get(context.Background(), tok)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAllUserTokens(context.Background(), u.ID))
	assert.Equal(t, 0, tokens.count())

	// Simulate the row surviving on another replica: the version check must
	// still classify the token as revoked and drop the row.
	require.NoError(t, tokens.Store(context.Background(), row))

	_, err = svc.VerifyRefreshToken(context.Background(), tok)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.Equal(t, 0, tokens.count())
}

func TestVerifyRefreshToken_Expired(t *testing.T) {
	t.Parallel()

	svc, _, users := newTestService(t, -time.Minute)
	u := &user.User{ID: uuid.New(), Email: "a@x.com"}
	users.add(u)

	tok, err := svc.IssueRefreshToken(context.Background(), u.ID)
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(context.Background(), tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRefreshToken_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	svc, _, users := newTestService(t, time.Hour)
	u := &user.User{ID: uuid.New(), Email: "a@x.com"}
	users.add(u)

	accessToken, err := svc.IssueAccessToken(u.ID)
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(context.Background(), accessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRefreshToken_UserDeleted(t *testing.T) {
	t.Parallel()

	svc, tokens, users := newTestService(t, time.Hour)
	u := &user.User{ID: uuid.New(), Email: "a@x.com"}
	users.add(u)

	tok, err := svc.IssueRefreshToken(context.Background(), u.ID)
	require.NoError(t, err)

	users.mu.Lock()
	delete(users.users, u.ID)
	users.mu.Unlock()

	_, err = svc.VerifyRefreshToken(context.Background(), tok)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.Equal(t, 0, tokens.count())
}

func TestIssueAndVerifyResetToken(t *testing.T) {
	t.Parallel()

	svc, tokens, users := newTestService(t, time.Hour)
	u := &user.User{ID: uuid.New(), Email: "a@x.com"}
	users.add(u)

	tok, expiresAt, err := svc.IssueResetToken(context.Background(), u.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.VerifyResetToken(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, TypeReset, claims.Type)

	// Once the row is gone the token no longer verifies.
	require.NoError(t, tokens.Delete(context.Background(), tok))
	_, err = svc.VerifyResetToken(context.Background(), tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLookupRefreshToken_IgnoresResetTokens(t *testing.T) {
	t.Parallel()

	svc, _, users := newTestService(t, time.Hour)
	u := &user.User{ID: uuid.New(), Email: "a@x.com"}
	users.add(u)

	resetToken, _, err := svc.IssueResetToken(context.Background(), u.ID)
	require.NoError(t, err)

	_, err = svc.LookupRefreshToken(context.Background(), resetToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRevokeToken_Idempotent(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, time.Hour)

	assert.NoError(t, svc.RevokeToken(context.Background(), "never-issued"))
}

func TestCleanupExpiredTokens(t *testing.T) {
	t.Parallel()

	svc, tokens, _ := newTestService(t, time.Hour)

	require.NoError(t, tokens.Store(context.Background(), &Token{
		Token:     "stale",
		Type:      TypeRefresh,
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, tokens.Store(context.Background(), &Token{
		Token:     "live",
		Type:      TypeRefresh,
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	svc.CleanupExpiredTokens(context.Background())

	assert.Equal(t, 1, tokens.count())
	_, err := tokens.Get(context.Background(), "live")
	assert.NoError(t, err)
}
