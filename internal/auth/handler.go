package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jacobekanem/gainz/internal/httputil"
	"github.com/jacobekanem/gainz/internal/logging"
	"github.com/jacobekanem/gainz/internal/token"
	"github.com/jacobekanem/gainz/internal/user"
)

// RateLimiter is the slice of the rate limiter the handlers use.
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip string) (bool, error)
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequest(ctx context.Context, ip string) error
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
	CheckEmailCooldown(ctx context.Context, email string) (bool, error)
	SetEmailCooldown(ctx context.Context, email string) error
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter RateLimiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter RateLimiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// TokensResponse carries the token pair alongside a human message.
type TokensResponse struct {
	Message      string        `json:"message"`
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken"`
	User         *UserResponse `json:"user,omitempty"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "register")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for register", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	newUser, tokens, err := h.service.Register(r.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			logger.Warn("registration failed: user already exists")
			respondError(w, "User already exists", httputil.CodeUserAlreadyExists, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordMismatch):
			logger.Warn("registration failed: password mismatch")
			respondError(w, "Passwords do not match", httputil.CodePasswordMismatch, http.StatusBadRequest)
		case errors.Is(err, ErrEmailRequired),
			errors.Is(err, ErrPasswordRequired),
			errors.Is(err, ErrPasswordTooShort),
			errors.Is(err, ErrInvalidEmailFormat):
			logger.Warn("registration failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeMissingFields, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			respondError(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	respondJSON(w, TokensResponse{
		Message:      "Registration successful, please verify your email",
		Token:        tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User: &UserResponse{
			ID:    newUser.ID,
			Email: newUser.Email,
		},
	}, http.StatusCreated)
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	tokens, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			respondError(w, "Invalid credentials", httputil.CodeInvalidCredentials, http.StatusBadRequest)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully")

	respondJSON(w, TokensResponse{
		Message:      "Login successful",
		Token:        tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, http.StatusOK)
}

// Logout revokes the submitted refresh token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid logout request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, ErrUnknownRefreshToken) {
			logger.Warn("logout failed: unknown refresh token")
			respondError(w, "Invalid refresh token", httputil.CodeInvalidRefreshToken, http.StatusBadRequest)
			return
		}
		logger.Error("logout failed: internal error", "error", err.Error())
		respondError(w, "failed to logout", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged out")
	respondJSON(w, map[string]string{"message": "Logout successful"}, http.StatusOK)
}

// Refresh exchanges a refresh token for a new access token. Expired refresh
// tokens get 403, revoked or otherwise invalid ones get 401.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid refresh request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.RefreshToken == "" {
		respondError(w, "Refresh token required", httputil.CodeRefreshTokenRequired, http.StatusUnauthorized)
		return
	}

	accessToken, err := h.service.RefreshAccessToken(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpiredToken):
			logger.Warn("refresh failed: token expired")
			respondError(w, "Refresh token expired", httputil.CodeTokenExpired, http.StatusForbidden)
		case errors.Is(err, token.ErrTokenRevoked):
			logger.Warn("refresh failed: token revoked")
			respondError(w, "Refresh token revoked", httputil.CodeTokenRevoked, http.StatusUnauthorized)
		case errors.Is(err, token.ErrInvalidToken):
			logger.Warn("refresh failed: invalid token")
			respondError(w, "Invalid refresh token", httputil.CodeInvalidRefreshToken, http.StatusUnauthorized)
		default:
			logger.Error("refresh failed: internal error", "error", err.Error())
			respondError(w, "failed to refresh token", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, map[string]string{"token": accessToken}, http.StatusOK)
}

// VerifyEmail redeems a verification code.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify email request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.OTP == "" {
		respondError(w, "Email and OTP are required", httputil.CodeMissingFields, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.service.VerifyEmail(r.Context(), req.Email, req.OTP); err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			logger.Warn("email verification failed: user not found")
			respondError(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrEmailAlreadyVerified):
			logger.Info("email already verified")
			respondJSON(w, map[string]string{"message": "Email already verified"}, http.StatusOK)
		case errors.Is(err, ErrInvalidOTP):
			logger.Warn("email verification failed: invalid or expired code")
			respondError(w, "invalid or expired verification code", httputil.CodeInvalidOTP, http.StatusBadRequest)
		default:
			logger.Error("email verification failed: internal error", "error", err.Error())
			respondError(w, "failed to verify email", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("email verified")
	respondJSON(w, map[string]string{"message": "Email verified successfully"}, http.StatusOK)
}

// ResendVerificationEmail issues a fresh verification code.
func (h *Handler) ResendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend verification request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for resend verification", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email cooldown active", "email", req.Email)
		respondError(w, "please wait before requesting another email", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, ErrEmailRequired):
			respondError(w, err.Error(), httputil.CodeMissingFields, http.StatusBadRequest)
		case errors.Is(err, ErrEmailAlreadyVerified):
			respondError(w, "Email already verified", httputil.CodeAlreadyVerified, http.StatusBadRequest)
		case errors.Is(err, ErrEmailSend):
			logger.Error("resend verification failed: email send error")
			respondError(w, "error sending email", httputil.CodeEmailSendFailed, http.StatusInternalServerError)
		default:
			logger.Error("resend verification failed: internal error", "error", err.Error())
			respondError(w, "failed to resend verification email", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, map[string]string{
		"message": "If the account exists, a verification email has been sent",
	}, http.StatusOK)
}

// ForgotPassword issues a password reset token and mails it.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for forgot password", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email cooldown active", "email", req.Email)
		respondError(w, "please wait before requesting another reset", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, ErrEmailRequired):
			respondError(w, err.Error(), httputil.CodeMissingFields, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			logger.Warn("forgot password: user not found")
			respondError(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrEmailSend):
			logger.Error("forgot password failed: email send error")
			respondError(w, "error sending email", httputil.CodeEmailSendFailed, http.StatusInternalServerError)
		default:
			logger.Error("forgot password failed: internal error", "error", err.Error())
			respondError(w, "failed to process password reset", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	respondJSON(w, map[string]string{
		"message": "Password reset email sent",
	}, http.StatusOK)
}

// ResetPassword redeems a reset token and sets a new password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrInvalidResetToken):
			logger.Warn("reset password failed: invalid or expired token")
			respondError(w, "invalid or expired token", httputil.CodeInvalidResetToken, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrPasswordTooShort):
			respondError(w, err.Error(), httputil.CodeMissingFields, http.StatusBadRequest)
		default:
			logger.Error("reset password failed: internal error", "error", err.Error())
			respondError(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password reset completed")
	respondJSON(w, map[string]string{"message": "Password reset successful"}, http.StatusOK)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "IP:port"
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
