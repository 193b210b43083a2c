package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTSigner_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTSigner(nil)
	assert.Error(t, err)
}

func TestJWTSigner_RoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewJWTSigner([]byte("secret"))
	require.NoError(t, err)

	tok, err := signer.CreateToken(Claims{
		UserID:  "user-123",
		Type:    TypeRefresh,
		Version: 7,
	}, time.Hour)
	require.NoError(t, err)

	claims, err := signer.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, TypeRefresh, claims.Type)
	assert.Equal(t, 7, claims.Version)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestJWTSigner_AccessTokenHasNoType(t *testing.T) {
	t.Parallel()

	signer, err := NewJWTSigner([]byte("secret"))
	require.NoError(t, err)

	tok, err := signer.CreateToken(Claims{UserID: "user-123"}, time.Hour)
	require.NoError(t, err)

	claims, err := signer.VerifyToken(tok)
	require.NoError(t, err)
	assert.Empty(t, claims.Type)
}

func TestJWTSigner_Expired(t *testing.T) {
	t.Parallel()

	signer, err := NewJWTSigner([]byte("secret"))
	require.NoError(t, err)

	tok, err := signer.CreateToken(Claims{UserID: "user-123"}, -time.Minute)
	require.NoError(t, err)

	_, err = signer.VerifyToken(tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTSigner_WrongSecret(t *testing.T) {
	t.Parallel()

	signer, err := NewJWTSigner([]byte("right"))
	require.NoError(t, err)

	tok, err := signer.CreateToken(Claims{UserID: "user-123"}, time.Hour)
	require.NoError(t, err)

	other, err := NewJWTSigner([]byte("wrong"))
	require.NoError(t, err)

	_, err = other.VerifyToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTSigner_Malformed(t *testing.T) {
	t.Parallel()

	signer, err := NewJWTSigner([]byte("secret"))
	require.NoError(t, err)

	_, err = signer.VerifyToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTSigner_Tampered(t *testing.T) {
	t.Parallel()

	signer, err := NewJWTSigner([]byte("secret"))
	require.NoError(t, err)

	tok, err := signer.CreateToken(Claims{UserID: "user-123"}, time.Hour)
	require.NoError(t, err)

	tampered := tok[:len(tok)-2] + "xx"
	_, err = signer.VerifyToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
