package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobekanem/gainz/internal/identity"
	"github.com/jacobekanem/gainz/internal/logging"
	"github.com/jacobekanem/gainz/internal/token"
	"github.com/jacobekanem/gainz/internal/user"
)

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

func (r *memUserRepo) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
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

func (r *memUserRepo) GetByResetToken(ctx context.Context, tok string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (r *memUserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memUserRepo) SetVerificationCode(ctx context.Context, id uuid.UUID, code string, expiry time.Time) error {
	return nil
}

func (r *memUserRepo) SetResetToken(ctx context.Context, id uuid.UUID, tok string, expiry time.Time) error {
	return nil
}

func (r *memUserRepo) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return nil
}

func (r *memUserRepo) IncrementTokenVersion(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error { return nil }

type memTokenRepo struct{}

func (memTokenRepo) Store(ctx context.Context, t *token.Token) error { return nil }
func (memTokenRepo) Get(ctx context.Context, tokenStr string) (*token.Token, error) {
	return nil, token.ErrTokenNotFound
}
func (memTokenRepo) Delete(ctx context.Context, tokenStr string) error { return nil }
func (memTokenRepo) DeleteAllForUser(ctx context.Context, userID uuid.UUID, tokenType string) error {
	return nil
}
func (memTokenRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

type fixture struct {
	handler *Handler
	signer  token.Signer
	users   *memUserRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	signer, err := token.NewJWTSigner([]byte("test-secret"))
	require.NoError(t, err)

	users := newMemUserRepo()
	logger := logging.NewLogger(true)
	tokenSvc := token.NewService(signer, memTokenRepo{}, users, logger,
		15*time.Minute, 7*24*time.Hour, time.Hour)

	svc := NewService(tokenSvc, users)
	return &fixture{
		handler: NewHandler(svc, logger),
		signer:  signer,
		users:   users,
	}
}

func (f *fixture) validate(t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	f.handler.Validate(rec, req)
	return rec
}

func TestValidateEndpoint_Success(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u := &user.User{ID: uuid.New(), Email: "a@x.com", PasswordHash: "hash"}
	f.users.add(u)

	tok, err := f.signer.CreateToken(token.Claims{UserID: u.ID.String()}, time.Hour)
	require.NoError(t, err)

	rec := f.validate(t, ValidateRequest{Token: tok})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Valid bool `json:"valid"`
		User  struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, u.ID.String(), resp.User.ID)
	assert.Equal(t, "a@x.com", resp.User.Email)

	// The password hash must never leak.
	assert.NotContains(t, rec.Body.String(), "hash")

	info, err := identity.Decode(rec.Header().Get(identity.Header))
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), info.ID)
	assert.Equal(t, "a@x.com", info.Email)
}

func TestValidateEndpoint_VerificationFailuresAre401(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u := &user.User{ID: uuid.New(), Email: "a@x.com"}
	f.users.add(u)

	expired, err := f.signer.CreateToken(token.Claims{UserID: u.ID.String()}, -time.Minute)
	require.NoError(t, err)

	otherSigner, err := token.NewJWTSigner([]byte("other-secret"))
	require.NoError(t, err)
	tampered, err := otherSigner.CreateToken(token.Claims{UserID: u.ID.String()}, time.Hour)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":  expired,
		"tampered": tampered,
		"garbage":  "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			rec := f.validate(t, ValidateRequest{Token: tok})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var resp map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "Invalid or expired token", resp["message"])
		})
	}
}

func TestValidateEndpoint_UserGone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u := &user.User{ID: uuid.New(), Email: "a@x.com"}
	f.users.add(u)

	tok, err := f.signer.CreateToken(token.Claims{UserID: u.ID.String()}, time.Hour)
	require.NoError(t, err)

	f.users.remove(u.ID)

	rec := f.validate(t, ValidateRequest{Token: tok})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateEndpoint_MissingToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.validate(t, ValidateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
