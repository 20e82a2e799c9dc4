package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-tracker/internal/database"
	"expense-tracker/internal/middleware"
	"expense-tracker/internal/repositories"
	"expense-tracker/internal/server"
	"expense-tracker/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const rateLimiterCleanupInterval = time.Minute

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(a.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			a.logger.Error("failed to close database", "error", err)
		}
	}()

	metrics := services.NewPrometheusMetrics(prometheus.DefaultRegisterer)

	expenseRepo := repositories.NewExpenseRepository(db.DB)
	userRepo := repositories.NewUserRepository(db.DB)
	blacklistedTokenRepo := repositories.NewBlacklistedTokenRepository(db.DB)

	tokenService := services.NewTokenService(&a.cfg.JWT)
	identityProvider := services.NewGuardedIdentityProvider(
		services.NewGoogleIdentityProvider(&a.cfg.OAuth),
		services.DefaultCircuitBreakerConfig(),
	)
	expenseService := services.NewExpenseService(expenseRepo, metrics, a.logger)
	authService := services.NewAuthService(userRepo, blacklistedTokenRepo, identityProvider, tokenService, metrics, a.logger)

	rateLimiter := middleware.NewRateLimiter(a.cfg.Security.RateLimitRequests, a.cfg.Security.RateLimitWindow)

	router := server.NewRouter(server.Dependencies{
		Config:               a.cfg,
		DB:                   db,
		ExpenseService:       expenseService,
		AuthService:          authService,
		TokenService:         tokenService,
		BlacklistedTokenRepo: blacklistedTokenRepo,
		RateLimiter:          rateLimiter,
		MetricsGatherer:      prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:              a.cfg.Server.Address(),
		Handler:           router,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting expense tracker API",
			"address", srv.Addr,
			"environment", a.cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down expense tracker API")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return rateLimiter.Run(gctx, rateLimiterCleanupInterval)
	})

	g.Go(func() error {
		return runTokenCleanup(gctx, authService, a.cfg.Security.TokenCleanupInterval, a.logger)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("server stopped gracefully")
	return nil
}

// runTokenCleanup purges expired blacklist entries every interval until ctx is done
func runTokenCleanup(ctx context.Context, authService services.AuthServiceInterface, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := authService.CleanupExpiredTokens(ctx)
			if err != nil {
				logger.Warn("blacklisted token cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("removed expired blacklisted tokens", "count", removed)
			}
		}
	}
}
