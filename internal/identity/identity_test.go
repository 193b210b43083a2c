package identity

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	in := UserInfo{ID: "user-123", Email: "a@x.com"}
	out, err := Decode(Encode(in))
	require.NoError(t, err)
	assert.Equal(t, &in, out)
}

func TestDecode_UserIDAlias(t *testing.T) {
	t.Parallel()

	value := base64.StdEncoding.EncodeToString([]byte(`{"userId":"user-123","email":"a@x.com"}`))
	out, err := Decode(value)
	require.NoError(t, err)
	assert.Equal(t, "user-123", out.ID)
	assert.Equal(t, "a@x.com", out.Email)
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Decode("%%%not-base64%%%")
	assert.Error(t, err)

	_, err = Decode(base64.StdEncoding.EncodeToString([]byte("not json")))
	assert.Error(t, err)

	_, err = Decode(base64.StdEncoding.EncodeToString([]byte(`{"email":"a@x.com"}`)))
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestFromHeader(t *testing.T) {
	t.Parallel()

	var got *UserInfo
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		FromHeader(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(Header, "garbage")
		rec := httptest.NewRecorder()
		FromHeader(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(Header, Encode(UserInfo{ID: "user-123", Email: "a@x.com"}))
		rec := httptest.NewRecorder()
		FromHeader(next).ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, "user-123", got.ID)
	})
}
