package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldstone/gatekeeper/internal/auth"
	"github.com/fieldstone/gatekeeper/internal/config"
	"github.com/fieldstone/gatekeeper/internal/csrf"
	"github.com/fieldstone/gatekeeper/internal/database"
	"github.com/fieldstone/gatekeeper/internal/gate"
	"github.com/fieldstone/gatekeeper/internal/handlers"
	middlewareCustom "github.com/fieldstone/gatekeeper/internal/middleware"
	"github.com/fieldstone/gatekeeper/internal/ratelimit"
	"github.com/fieldstone/gatekeeper/internal/repositories"
	"github.com/fieldstone/gatekeeper/internal/routes"
	"github.com/fieldstone/gatekeeper/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	if err := database.Migrate(cfg.Database.DSN(), logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories (external collaborators of the security layer)
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// Security components
	csrfCodec := csrf.NewCodec(cfg.Security.CSRFSecret, cfg.Security.CSRFTokenTTL, cfg.Security.ReplayCacheLimit)

	limiter := ratelimit.NewLimiter(ratelimit.DefaultPolicies(), ratelimit.Policy{
		Window:      cfg.RateLimit.DefaultWindow,
		MaxRequests: cfg.RateLimit.DefaultMax,
	})

	securityGate := gate.New(limiter, csrfCodec, gate.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequireCSRF:    cfg.Security.RequireCSRF,
	}, logger)

	// Auth components
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	loginTracker := ratelimit.NewLoginTracker(cfg.Auth.MaxLoginAttempts, cfg.Auth.LockoutWindow)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	// Services
	auditService := services.NewAuditService(auditRepo, logger)
	authService := services.NewAuthService(
		userRepo, sessionRepo, tokenManager, loginTracker, timingDelay,
		auditService, cfg.Auth.SessionTTL, logger,
	)

	// Handlers
	cookieConfig := auth.CookieConfig{
		Secure:   cfg.Server.Env == "production",
		SameSite: "strict",
	}
	securityHandler := handlers.NewSecurityHandler(csrfCodec, cookieConfig, int(cfg.Security.CSRFTokenTTL.Seconds()), logger)
	authHandler := handlers.NewAuthHandler(authService, cookieConfig)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{
		ScriptNonce: cfg.Security.CSPScriptNonce,
	}))
	router.Use(middlewareCustom.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middlewareCustom.SecurityGate(securityGate, logger))

	routes.RegisterRoutes(router, securityHandler, authHandler, auditHandler, tokenManager, sessionRepo)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
