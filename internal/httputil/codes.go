package httputil

// Machine-readable error codes returned alongside error messages so clients
// can branch without string-matching.
const (
	CodeInvalidRequestBody    = "INVALID_REQUEST_BODY"
	CodeMissingFields         = "MISSING_FIELDS"
	CodePasswordMismatch      = "PASSWORD_MISMATCH"
	CodeUserAlreadyExists     = "USER_ALREADY_EXISTS"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeTokenRevoked          = "TOKEN_REVOKED"
	CodeRefreshTokenRequired  = "REFRESH_TOKEN_REQUIRED"
	CodeInvalidRefreshToken   = "INVALID_REFRESH_TOKEN"
	CodeInvalidResetToken     = "INVALID_RESET_TOKEN"
	CodeInvalidOTP            = "INVALID_OTP"
	CodeAlreadyVerified       = "ALREADY_VERIFIED"
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeEmailSendFailed       = "EMAIL_SEND_FAILED"
	CodeTooManyRequests       = "TOO_MANY_REQUESTS"
	CodeCooldownActive        = "COOLDOWN_ACTIVE"
	CodeInternalError         = "INTERNAL_ERROR"
)
