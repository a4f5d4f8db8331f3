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

	"github.com/rs/cors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"certifyeasy/internal/config"
	"certifyeasy/internal/database"
	"certifyeasy/internal/handlers"
	"certifyeasy/internal/models"
	"certifyeasy/internal/practice"
	"certifyeasy/internal/qbank"
	"certifyeasy/internal/repository"
	"certifyeasy/internal/security"
	"certifyeasy/internal/service"
)

const (
	stepDatabase   = "Database connection"
	stepMigrations = "Running migrations"
	stepQBanks     = "Loading question banks"
	stepServices   = "Initializing services"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup := handlers.NewStartupStatus(stepDatabase, stepMigrations, stepQBanks, stepServices)

	startup.SetCurrentStep(stepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connection established", "type", cfg.DatabaseType)
	startup.CompleteStep(stepDatabase)

	startup.SetCurrentStep(stepMigrations)
	if err := db.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	startup.CompleteStep(stepMigrations)

	startup.SetCurrentStep(stepQBanks)
	bank := qbank.LoadDir(cfg.QBankPath, models.DefaultExams, logger)
	startup.CompleteStep(stepQBanks)

	startup.SetCurrentStep(stepServices)
	csrfSecret := cfg.CSRFSecret
	if csrfSecret == "" {
		logger.Warn("CSRF_SECRET not set, generated a random one; tokens will not survive a restart")
		csrfSecret = security.GenerateSecret()
	}
	questionSecret := cfg.QuestionTokenSecret
	if questionSecret == "" {
		logger.Warn("QUESTION_TOKEN_SECRET not set, generated a random one; sessions will not survive a restart")
		questionSecret = security.GenerateSecret()
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, cfg.SessionDuration, logger)
	engine := practice.NewEngine(bank, progressRepo, practice.NewRegistry(),
		practice.WithSigner(security.NewQuestionSigner(questionSecret, cfg.SessionDuration)),
		practice.WithLogger(logger))

	oauthProviders := map[string]handlers.OAuthProvider{}
	if cfg.GoogleEnabled() {
		oauthProviders["google"] = handlers.OAuthProvider{
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		}
	}

	csrf := security.NewCSRFGenerator(csrfSecret)
	limiter := security.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	limiter.SetTrustProxy(cfg.TrustProxy)
	go limiter.Cleanup(ctx, 5*time.Minute)

	mux := http.NewServeMux()
	handlers.Routes{
		Middleware:  handlers.NewMiddleware(authService, csrf, limiter),
		Auth:        handlers.NewAuthHandler(authService, csrf, oauthProviders, cfg.OAuthRedirectBaseURL),
		Practice:    handlers.NewPracticeHandler(engine, models.DefaultExams),
		Startup:     startup,
		StaticFiles: cfg.StaticFilesPath,
	}.Register(mux)
	startup.CompleteStep(stepServices)

	var handler http.Handler = startup.RequireReady(mux)
	if len(cfg.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   []string{"Content-Type", security.CSRFHeader},
			AllowCredentials: true,
		}).Handler(handler)
	}
	handler = handlers.Logging(logger, handler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go cleanupExpiredSessions(ctx, authService, logger)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()
	startup.MarkReady()

	<-ctx.Done()
	logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// cleanupExpiredSessions periodically removes expired login sessions
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService, logger *slog.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(ctx); err != nil {
				logger.Error("failed to clean up expired sessions", "error", err)
			}
		}
	}
}
