package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/promptforge/relay/internal/api"
	"github.com/promptforge/relay/internal/cache"
	"github.com/promptforge/relay/internal/config"
	"github.com/promptforge/relay/internal/provider"
	"github.com/promptforge/relay/internal/provider/bedrock"
	"github.com/promptforge/relay/internal/provider/huggingface"
	"github.com/promptforge/relay/internal/ratelimit"
	"github.com/promptforge/relay/internal/relay"
	"github.com/promptforge/relay/internal/secrets"
	"github.com/promptforge/relay/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	slog.Info("starting prompt relay", "addr", cfg.Addr, "provider", cfg.Provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, "prompt-relay", cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer shutdownTelemetry(ctx)

	upstream, err := buildProvider(ctx, cfg)
	if err != nil {
		slog.Error("failed to configure provider", "error", err)
		os.Exit(1)
	}

	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		limiter, err = ratelimit.NewRedisLimiter(cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.Info("using redis rate limiter")
	} else {
		limiter = ratelimit.NewInMemoryLimiter()
		slog.Info("using in-memory rate limiter")
	}

	var promptCache cache.Cache
	if cfg.RedisURL != "" {
		promptCache, err = cache.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			slog.Warn("failed to connect to redis for cache, using in-memory", "error", err)
			promptCache = cache.NewMemoryCache(cfg.CacheTTL, nil)
		} else {
			slog.Info("using redis prompt cache")
		}
	} else {
		promptCache = cache.NewMemoryCache(cfg.CacheTTL, nil)
		slog.Info("using in-memory prompt cache", "ttl", cfg.CacheTTL)
	}

	service := relay.New(relay.Config{
		Provider:    upstream,
		Cache:       promptCache,
		Model:       cfg.Model,
		StreamModel: cfg.StreamModel,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})

	handler := api.NewHandler(api.HandlerConfig{
		Service:       service,
		Limiter:       limiter,
		RatePerMinute: cfg.RatePerMinute,
		AllowedOrigin: cfg.FrontendURL,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		Development:   cfg.Development(),
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func buildProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "huggingface":
		token := cfg.HFToken
		if token == "" && cfg.TokenSecretName != "" {
			store, err := secrets.NewAWSSecretsManager(ctx, cfg.AWSRegion)
			if err != nil {
				return nil, fmt.Errorf("secrets manager: %w", err)
			}
			token, err = store.GetSecret(ctx, cfg.TokenSecretName)
			if err != nil {
				return nil, fmt.Errorf("resolve upstream token: %w", err)
			}
		}
		return huggingface.New(token, cfg.HFBaseURL), nil

	case "bedrock":
		return bedrock.New(ctx, cfg.AWSRegion)

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
