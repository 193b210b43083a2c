package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jacobekanem/gainz/internal/logging"
	"github.com/jacobekanem/gainz/internal/token"
	"github.com/jacobekanem/gainz/internal/user"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailRequired        = errors.New("email is required")
	ErrPasswordRequired     = errors.New("password is required")
	ErrPasswordMismatch     = errors.New("passwords do not match")
	ErrPasswordTooShort     = errors.New("password must be at least 8 characters")
	ErrInvalidEmailFormat   = errors.New("invalid email format")
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidOTP           = errors.New("invalid or expired verification code")
	ErrEmailAlreadyVerified = errors.New("email already verified")
	ErrUnknownRefreshToken  = errors.New("refresh token not recognized")
	ErrInvalidResetToken    = errors.New("invalid or expired token")
	ErrEmailSend            = errors.New("error sending email")
)

const bcryptCost = 10

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationEmail(ctx context.Context, toEmail, code string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}

// Service handles authentication business logic
type Service struct {
	userRepo     user.Repository
	tokenService *token.Service
	emailService EmailService
	logger       *logging.Logger
	otpExpiry    time.Duration
}

func NewService(
	userRepo user.Repository,
	tokenService *token.Service,
	emailService EmailService,
	logger *logging.Logger,
	otpExpiry time.Duration,
) *Service {
	return &Service{
		userRepo:     userRepo,
		tokenService: tokenService,
		emailService: emailService,
		logger:       logger,
		otpExpiry:    otpExpiry,
	}
}

// AuthTokens is the pair returned by register and login.
type AuthTokens struct {
	AccessToken  string
	RefreshToken string
}

// Register creates a new user account, sends the verification code, and
// issues tokens so the client is signed in immediately. The account stays
// unverified until the code is redeemed.
func (s *Service) Register(ctx context.Context, email, password, confirmPassword string) (*user.User, *AuthTokens, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, ErrInvalidEmailFormat
	}
	if password == "" || confirmPassword == "" {
		return nil, nil, ErrPasswordRequired
	}
	if password != confirmPassword {
		return nil, nil, ErrPasswordMismatch
	}
	if len(password) < 8 {
		return nil, nil, ErrPasswordTooShort
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := generateOTP()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, email, string(passwordHash), code, time.Now().Add(s.otpExpiry))
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, nil, ErrUserExists
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Best effort: registration succeeds even if the email bounces. The
	// user can request another code later.
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendVerificationEmail(emailCtx, email, code); err != nil {
			s.logger.Warn("failed to send verification email", "email", email, "error", err)
		}
	}()

	tokens, err := s.issueTokens(ctx, newUser)
	if err != nil {
		return nil, nil, err
	}

	return newUser, tokens, nil
}

// Login authenticates a user and returns a fresh token pair. Failure is
// deliberately undifferentiated between unknown email and wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(existingUser.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, existingUser)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, existingUser.ID); err != nil {
		s.logger.Warn("failed to update last login", "user_id", existingUser.ID, "error", err)
	}

	return tokens, nil
}

// Logout revokes a refresh token. The token must belong to some user, but
// no cryptographic check is made: a client should always be able to log out
// with the token it holds.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrUnknownRefreshToken
	}

	if _, err := s.tokenService.LookupRefreshToken(ctx, refreshToken); err != nil {
		if errors.Is(err, token.ErrTokenNotFound) {
			return ErrUnknownRefreshToken
		}
		return fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if err := s.tokenService.RevokeToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

// RefreshAccessToken verifies a refresh token and mints a new access token.
// The refresh token itself is not rotated. Verification failures pass
// through as token package errors so the handler can map expired, revoked,
// and malformed differently.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokenService.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return "", token.ErrInvalidToken
	}

	accessToken, err := s.tokenService.IssueAccessToken(userID)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	return accessToken, nil
}

// VerifyEmail redeems a verification code. Verification is terminal:
// re-submitting after success reports already-verified without touching
// state.
func (s *Service) VerifyEmail(ctx context.Context, email, otp string) error {
	email = normalizeEmail(email)
	if email == "" || otp == "" {
		return ErrInvalidOTP
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.IsEmailVerified {
		return ErrEmailAlreadyVerified
	}

	if !otpValid(existingUser, otp, time.Now()) {
		return ErrInvalidOTP
	}

	if err := s.userRepo.MarkEmailVerified(ctx, existingUser.ID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	return nil
}

// ResendVerification issues a fresh code for an unverified account. It
// reports already-verified but never reveals whether the email exists.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Pretend success so the endpoint cannot be used to probe
			// for registered addresses.
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.IsEmailVerified {
		return ErrEmailAlreadyVerified
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	if err := s.userRepo.SetVerificationCode(ctx, existingUser.ID, code, time.Now().Add(s.otpExpiry)); err != nil {
		return fmt.Errorf("failed to set verification code: %w", err)
	}

	if err := s.emailService.SendVerificationEmail(ctx, email, code); err != nil {
		return ErrEmailSend
	}

	return nil
}

// ForgotPassword issues a reset token and mails it. Unlike resend, an
// unknown email reports NotFound: the original contract exposes it.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	resetToken, expiresAt, err := s.tokenService.IssueResetToken(ctx, existingUser.ID)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	if err := s.userRepo.SetResetToken(ctx, existingUser.ID, resetToken, expiresAt); err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	if err := s.emailService.SendPasswordResetEmail(ctx, email, resetToken); err != nil {
		return ErrEmailSend
	}

	return nil
}

// ResetPassword redeems a reset token, replaces the password hash, and
// revokes every outstanding refresh token for the user.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return ErrInvalidResetToken
	}
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	existingUser, err := s.userRepo.GetByResetToken(ctx, resetToken)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get user by reset token: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.ResetPassword(ctx, existingUser.ID, string(passwordHash)); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	if err := s.tokenService.RevokeToken(ctx, resetToken); err != nil {
		s.logger.Warn("failed to delete redeemed reset token", "error", err)
	}

	// A password change invalidates every session.
	if err := s.tokenService.RevokeAllUserTokens(ctx, existingUser.ID); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}

	return nil
}

func (s *Service) issueTokens(ctx context.Context, u *user.User) (*AuthTokens, error) {
	accessToken, err := s.tokenService.IssueAccessToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.tokenService.IssueRefreshToken(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// normalizeEmail canonicalizes an address so lookups and the unique
// constraint see one spelling.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// otpValid checks the stored code. Expiry is strict: a code submitted at
// exactly the stored expiry instant is still accepted.
func otpValid(u *user.User, otp string, now time.Time) bool {
	if u.EmailVerificationCode == nil || u.EmailVerificationExpiry == nil {
		return false
	}
	if *u.EmailVerificationCode != otp {
		return false
	}
	return !now.After(*u.EmailVerificationExpiry)
}

// generateOTP creates a 6-digit zero-padded numeric code using crypto/rand.
func generateOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generating random code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
