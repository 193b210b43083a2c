package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/jacobekanem/gainz/internal/auth"
	"github.com/jacobekanem/gainz/internal/authz"
	"github.com/jacobekanem/gainz/internal/config"
	"github.com/jacobekanem/gainz/internal/database"
	"github.com/jacobekanem/gainz/internal/email"
	grpcServer "github.com/jacobekanem/gainz/internal/grpc"
	httpServer "github.com/jacobekanem/gainz/internal/http"
	"github.com/jacobekanem/gainz/internal/logging"
	"github.com/jacobekanem/gainz/internal/ratelimit"
	"github.com/jacobekanem/gainz/internal/token"
	"github.com/jacobekanem/gainz/internal/user"
)

const cleanupInterval = time.Hour

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting authentication service",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"grpc_port", cfg.Server.GRPCPort,
	)

	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	signer, err := newSigner(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}

	userRepo := user.NewBunRepository(db)
	tokenRepo := token.NewBunRepository(db)

	tokenService := token.NewService(
		signer,
		tokenRepo,
		userRepo,
		logger,
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
		cfg.Auth.ResetTokenDuration,
	)

	rateLimiter := ratelimit.NewLimiter(redisClient)

	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FrontendURL,
	)

	authService := auth.NewService(userRepo, tokenService, emailService, logger, cfg.Auth.OTPExpiry)
	authHandler := auth.NewHandler(authService, rateLimiter, logger)

	authzService := authz.NewService(tokenService, userRepo)

	router := httpServer.NewAuthenticationRouter(cfg, authHandler, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	grpcSrv := grpcServer.NewServer(":"+cfg.Server.GRPCPort, authzService, logger)

	serverErrors := make(chan error, 2)
	go func() {
		serverErrors <- server.Start()
	}()
	go func() {
		serverErrors <- grpcSrv.Run(ctx)
	}()

	// Expired token rows accumulate until swept.
	go runTokenCleanup(ctx, tokenService, logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func runTokenCleanup(ctx context.Context, tokenService *token.Service, logger *logging.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tokenService.CleanupExpiredTokens(ctx)
		}
	}
}

// newSigner selects the token backend from config.
func newSigner(cfg config.AuthConfig) (token.Signer, error) {
	switch cfg.Backend {
	case config.TokenBackendPaseto:
		return token.NewPasetoSigner(cfg.PasetoKey)
	default:
		return token.NewJWTSigner(cfg.JWTSecret)
	}
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
