package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"phone_auth/internal/config"
	"phone_auth/internal/metrics"
	"phone_auth/internal/repository"
	"phone_auth/internal/service"
	"phone_auth/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	logger, err := config.NewLogger(cfg, os.Stdout)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := cmd.Context()

	// --- Database ---
	pool, err := config.ConnectDB(ctx, &cfg.DB, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	if err := config.AutoMigrate(ctx, pool, logger); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "apply schema").Wrap(err)
	}

	// --- Wiring ---
	jwtUtil := utils.NewJWTUtil(cfg.JWT.Secret, cfg.JWT.Expiration)
	hasher := utils.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency)
	userRepo := repository.NewUserRepository(pool)
	authService := service.NewAuthService(userRepo, hasher, jwtUtil, logger)

	router := newRouter(routerDeps{
		logger:        logger,
		authService:   authService,
		jwtUtil:       jwtUtil,
		metrics:       metrics.New(),
		db:            pool,
		corsOrigins:   cfg.CORSOrigins,
		exposeDetails: cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.Env),
			slog.Int("bcrypt_cost", hasher.Cost()),
			slog.Duration("token_ttl", jwtUtil.Expiration()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("LISTEN_FAILED").With("addr", srv.Addr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}

	logger.Info("server exiting")
	return nil
}
