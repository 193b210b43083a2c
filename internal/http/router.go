package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jacobekanem/gainz/internal/auth"
	"github.com/jacobekanem/gainz/internal/authz"
	"github.com/jacobekanem/gainz/internal/config"
	"github.com/jacobekanem/gainz/internal/httputil"
	"github.com/jacobekanem/gainz/internal/logging"
)

// NewAuthenticationRouter wires the authentication service's endpoints.
func NewAuthenticationRouter(cfg *config.Config, authHandler *auth.Handler, logger *logging.Logger) *chi.Mux {
	r := newBaseRouter(cfg, logger)

	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)
	r.Post("/refresh-token", authHandler.Refresh)
	r.Post("/verify-email", authHandler.VerifyEmail)
	r.Post("/resend-verification", authHandler.ResendVerificationEmail)
	r.Post("/forgot-password", authHandler.ForgotPassword)
	r.Post("/reset-password", authHandler.ResetPassword)

	return r
}

// NewAuthorizationRouter wires the authorization relay's endpoints.
func NewAuthorizationRouter(cfg *config.Config, authzHandler *authz.Handler, logger *logging.Logger) *chi.Mux {
	r := newBaseRouter(cfg, logger)

	r.Post("/validate", authzHandler.Validate)

	return r
}

func newBaseRouter(cfg *config.Config, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
