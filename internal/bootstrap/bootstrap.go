// Package bootstrap builds the backends selected by configuration. It is
// shared by the API server and the screenctl command.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"alfredoptarigan/cv-screener/internal/config"
	"alfredoptarigan/cv-screener/internal/services"
	"alfredoptarigan/cv-screener/internal/session"
)

func NewLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Server.Env == "development" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Server.Env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// NewProvider returns the chat provider named by LLM_PROVIDER. The gemini
// service is returned too when one was created so it can be reused for
// embeddings.
func NewProvider(ctx context.Context, cfg *config.Config) (services.LLMProvider, services.GeminiService, error) {
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			return nil, nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return services.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLMModel(), cfg.LLM.Timeout), nil, nil
	case "gemini":
		gemini, err := newGemini(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return gemini, gemini, nil
	default:
		return nil, nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLM.Provider)
	}
}

func newGemini(ctx context.Context, cfg *config.Config) (services.GeminiService, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	return services.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.LLMModel(), cfg.Gemini.EmbedModel)
}

func NewAnalysisClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.AnalysisClient, services.GeminiService, error) {
	provider, gemini, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	client, err := services.NewAnalysisClient(provider, cfg.LLM.Temperature, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, gemini, nil
}

func NewStorage(ctx context.Context, cfg *config.Config) (services.ObjectStorage, error) {
	switch cfg.Storage.Backend {
	case "local":
		return services.NewLocalStorage(cfg.Storage.UploadPath, cfg.Storage.PublicBaseURL)
	case "gcs":
		if cfg.Storage.GCSBucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET is required for the gcs storage backend")
		}
		return services.NewGCSStorage(ctx, cfg.Storage.GCSBucket, cfg.Storage.GCSCredentials)
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
	}
}

// NewSessionStore returns the store and a close function for it.
func NewSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func() error, error) {
	switch cfg.Session.Backend {
	case "memory":
		return session.NewMemoryStore(cfg.Session.TTL), func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Session.RedisAddr, err)
		}
		return session.NewRedisStore(client, cfg.Session.TTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.Session.Backend)
	}
}

// NewReportIndex returns nil when search is not configured. embedder may be
// nil, in which case a gemini client is created for embeddings.
func NewReportIndex(ctx context.Context, cfg *config.Config, embedder services.Embedder, logger *slog.Logger) (services.ReportIndex, error) {
	if !cfg.SearchEnabled() {
		return nil, nil
	}
	if embedder == nil {
		gemini, err := newGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		embedder = gemini
	}

	index, err := services.NewQdrantIndex(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, embedder, logger)
	if err != nil {
		return nil, err
	}
	if err := index.InitCollection(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize qdrant collection: %w", err)
	}
	return index, nil
}
