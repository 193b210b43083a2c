package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobekanem/gainz/internal/logging"
)

type fakeRateLimiter struct {
	ipExceeded    bool
	emailCooldown bool
}

func (f *fakeRateLimiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return f.ipExceeded, nil
}

func (f *fakeRateLimiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	return f.ipExceeded, nil
}

func (f *fakeRateLimiter) RecordIPRequest(ctx context.Context, ip string) error { return nil }

func (f *fakeRateLimiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	return nil
}

func (f *fakeRateLimiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	return f.emailCooldown, nil
}

func (f *fakeRateLimiter) SetEmailCooldown(ctx context.Context, email string) error { return nil }

func newTestHandler(t *testing.T) (*Handler, *testEnv, *fakeRateLimiter) {
	t.Helper()
	env := newTestEnv(t)
	limiter := &fakeRateLimiter{}
	h := NewHandler(env.svc, limiter, logging.NewLogger(true))
	return h, env, limiter
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestRegisterEndpoint(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)

	rec := postJSON(t, h.Register, RegisterRequest{
		Email:           "a@x.com",
		Password:        "Password123!",
		ConfirmPassword: "Password123!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refreshToken"])
	assert.Contains(t, body["message"], "verify your email")

	// Same email again.
	rec = postJSON(t, h.Register, RegisterRequest{
		Email:           "a@x.com",
		Password:        "Password123!",
		ConfirmPassword: "Password123!",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", decodeBody(t, rec)["message"])
}

func TestRegisterEndpoint_PasswordMismatch(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)

	rec := postJSON(t, h.Register, RegisterRequest{
		Email:           "a@x.com",
		Password:        "Password123!",
		ConfirmPassword: "Other123!",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Passwords do not match", decodeBody(t, rec)["message"])
}

func TestRegisterEndpoint_RateLimited(t *testing.T) {
	t.Parallel()

	h, _, limiter := newTestHandler(t)
	limiter.ipExceeded = true

	rec := postJSON(t, h.Register, RegisterRequest{
		Email:           "a@x.com",
		Password:        "Password123!",
		ConfirmPassword: "Password123!",
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()

	h, env, _ := newTestHandler(t)
	env.register(t, "a@x.com", "Password123!")

	rec := postJSON(t, h.Login, LoginRequest{Email: "a@x.com", Password: "Password123!"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refreshToken"])

	// Wrong password and unknown email produce the same response.
	recWrong := postJSON(t, h.Login, LoginRequest{Email: "a@x.com", Password: "wrong"})
	recUnknown := postJSON(t, h.Login, LoginRequest{Email: "nobody@x.com", Password: "Password123!"})
	assert.Equal(t, http.StatusBadRequest, recWrong.Code)
	assert.Equal(t, http.StatusBadRequest, recUnknown.Code)
	assert.Equal(t, decodeBody(t, recWrong)["message"], decodeBody(t, recUnknown)["message"])
	assert.Equal(t, "Invalid credentials", decodeBody(t, postJSON(t, h.Login, LoginRequest{Email: "a@x.com", Password: "wrong"}))["message"])
}

func TestLogoutEndpoint(t *testing.T) {
	t.Parallel()

	h, env, _ := newTestHandler(t)
	_, tokens := env.register(t, "a@x.com", "Password123!")

	rec := postJSON(t, h.Logout, LogoutRequest{RefreshToken: tokens.RefreshToken})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h.Logout, LogoutRequest{RefreshToken: tokens.RefreshToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	t.Parallel()

	h, env, _ := newTestHandler(t)
	u, tokens := env.register(t, "a@x.com", "Password123!")

	rec := postJSON(t, h.Refresh, RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["token"])

	t.Run("missing token", func(t *testing.T) {
		rec := postJSON(t, h.Refresh, RefreshRequest{})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := postJSON(t, h.Refresh, RefreshRequest{RefreshToken: "garbage"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		require.NoError(t, env.tokenSvc.RevokeAllUserTokens(context.Background(), u.ID))

		rec := postJSON(t, h.Refresh, RefreshRequest{RefreshToken: tokens.RefreshToken})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestVerifyEmailEndpoint(t *testing.T) {
	t.Parallel()

	h, env, _ := newTestHandler(t)
	env.register(t, "a@x.com", "Password123!")
	otp := env.emails.LastOTP()

	t.Run("missing fields", func(t *testing.T) {
		rec := postJSON(t, h.VerifyEmail, VerifyEmailRequest{Email: "a@x.com"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := postJSON(t, h.VerifyEmail, VerifyEmailRequest{Email: "nobody@x.com", OTP: otp})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("success then idempotent", func(t *testing.T) {
		rec := postJSON(t, h.VerifyEmail, VerifyEmailRequest{Email: "a@x.com", OTP: otp})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = postJSON(t, h.VerifyEmail, VerifyEmailRequest{Email: "a@x.com", OTP: otp})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Email already verified", decodeBody(t, rec)["message"])
	})
}

func TestForgotPasswordEndpoint(t *testing.T) {
	t.Parallel()

	h, env, limiter := newTestHandler(t)
	env.register(t, "a@x.com", "Password123!")

	rec := postJSON(t, h.ForgotPassword, ForgotPasswordRequest{Email: "a@x.com"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h.ForgotPassword, ForgotPasswordRequest{Email: "nobody@x.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	limiter.emailCooldown = true
	rec = postJSON(t, h.ForgotPassword, ForgotPasswordRequest{Email: "a@x.com"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestResetPasswordEndpoint(t *testing.T) {
	t.Parallel()

	h, env, _ := newTestHandler(t)
	env.register(t, "a@x.com", "Password123!")

	rec := postJSON(t, h.ForgotPassword, ForgotPasswordRequest{Email: "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	resetToken := env.emails.LastResetToken()

	rec = postJSON(t, h.ResetPassword, ResetPasswordRequest{Token: resetToken, NewPassword: "NewPassword1!"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Redeemed tokens are rejected.
	rec = postJSON(t, h.ResetPassword, ResetPasswordRequest{Token: resetToken, NewPassword: "NewPassword2!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid or expired token", decodeBody(t, rec)["message"])
}
