package authz

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jacobekanem/gainz/internal/httputil"
	"github.com/jacobekanem/gainz/internal/identity"
	"github.com/jacobekanem/gainz/internal/logging"
	"github.com/jacobekanem/gainz/internal/token"
	"github.com/jacobekanem/gainz/internal/user"
)

// Handler exposes the REST side of the validation relay.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type ValidateRequest struct {
	Token string `json:"token"`
}

type ValidateResponse struct {
	Valid bool       `json:"valid"`
	User  *user.User `json:"user"`
}

// Validate verifies a bearer token and returns its user. Any verification
// failure maps to 401 with a stable message; only store failures are 500.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid validate request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	u, err := h.service.Validate(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenRequired):
			httputil.RespondErrorWithCode(w, "Token is required", httputil.CodeMissingFields, http.StatusBadRequest)
		case errors.Is(err, ErrUserGone):
			logger.Warn("token valid but user gone")
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, token.ErrInvalidToken), errors.Is(err, token.ErrExpiredToken):
			logger.Warn("token validation failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Invalid or expired token", httputil.CodeInvalidToken, http.StatusUnauthorized)
		default:
			logger.Error("token validation failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to validate token", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	// Gateways forward this header to downstream services so they can
	// read the caller's identity without re-validating the token.
	w.Header().Set(identity.Header, identity.Encode(identity.UserInfo{ID: u.ID.String(), Email: u.Email}))

	httputil.RespondJSON(w, ValidateResponse{Valid: true, User: u}, http.StatusOK)
}
