// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-coach/internal/auth"
	"github.com/capitalize-ai/sales-coach/internal/config"
	"github.com/capitalize-ai/sales-coach/internal/handler"
	"github.com/capitalize-ai/sales-coach/internal/llm"
	natsclient "github.com/capitalize-ai/sales-coach/internal/nats"
	"github.com/capitalize-ai/sales-coach/internal/ratelimit"
	"github.com/capitalize-ai/sales-coach/internal/service"
	"github.com/capitalize-ai/sales-coach/internal/store"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
	"github.com/capitalize-ai/sales-coach/pkg/tracing"
)

const serviceName = "sales-coach"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sales-coach: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.NewForEnv(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting API server", zap.String("env", cfg.Env), zap.String("llm_provider", cfg.LLMProvider))

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, serviceName, cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	db, err := store.OpenDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	uow := store.NewUnitOfWork(db)

	provider, err := llm.NewClient(ctx, llm.Provider(cfg.LLMProvider), cfg.LLMAPIKey())
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}
	retrying := llm.NewRetryingClient(provider, llm.RetryConfig{
		MaxAttempts: cfg.LLMMaxRetries,
		BaseDelay:   cfg.LLMBackoffBase,
		Multiplier:  1.5,
	}, log)
	generator := llm.NewGenerator(retrying, cfg.LLMModel)

	counter, closeCounter, err := newCounter(cfg, log)
	if err != nil {
		return err
	}
	defer closeCounter()
	lockout := ratelimit.NewLockout(counter, cfg.MaxLoginAttempts, cfg.LockoutTime)

	checks := map[string]handler.Pinger{
		"database": handler.PingFunc(func(ctx context.Context) error { return store.Ping(ctx, db) }),
	}

	var events natsclient.EventPublisher = natsclient.NopPublisher{}
	if cfg.NATSURL != "" {
		nc, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer nc.Close()

		if err := natsclient.EnsureStream(ctx, nc.JetStream()); err != nil {
			return fmt.Errorf("ensuring event stream: %w", err)
		}
		events = natsclient.NewJetStreamPublisher(nc.JetStream(), log)
		checks["nats"] = nc
	} else {
		log.Info("NATS_URL not set, domain events disabled")
	}

	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL)

	var google handler.IdentityProvider
	googleCfg := auth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}
	if googleCfg.Enabled() {
		google = auth.NewGoogleProvider(googleCfg)
	}

	accounts := service.NewAccountService(db, uow, auth.PasswordPolicy{MinLength: cfg.PasswordMinLength}, lockout, log)
	conversations := service.NewConversationService(db, events, log)
	chat := service.NewChatService(db, uow, generator, events, log)
	feedback := service.NewFeedbackService(db, uow, generator, nil, events, log)

	router := &handler.Router{
		Logger:         log,
		Sessions:       sessions,
		Counter:        counter,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxyHeaders,
		Limits: handler.Limits{
			APIRequests:    cfg.RateLimitRequests,
			APIWindow:      cfg.RateLimitWindow,
			LoginRequests:  cfg.LoginRateLimit,
			LoginWindow:    cfg.LoginRateWindow,
			RegisterLimit:  cfg.RegisterRateLimit,
			RegisterWindow: cfg.RegisterRateWindow,
			RequestTimeout: cfg.RequestTimeout,
		},
		Health:        handler.NewHealthHandler(checks),
		Auth:          handler.NewAuthHandler(accounts, sessions, google, cfg.CookieSecure, log),
		Conversations: handler.NewConversationHandler(conversations, log),
		Messages:      handler.NewMessageHandler(chat, feedback, log),
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

// newCounter selects Redis-backed counters when REDIS_URL is set, and
// process-local ones otherwise.
func newCounter(cfg *config.Config, log *logger.Logger) (ratelimit.Counter, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, rate limits are process-local")
		return ratelimit.NewMemoryCounter(ratelimit.SystemClock{}), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	return ratelimit.NewRedisCounter(client, ratelimit.SystemClock{}), func() { client.Close() }, nil
}
