package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/api"
	"github.com/sehyun/yt-translator-go/internal/config"
	"github.com/sehyun/yt-translator-go/internal/service/history"
	"github.com/sehyun/yt-translator-go/internal/service/notify"
	"github.com/sehyun/yt-translator-go/internal/service/transcript"
	"github.com/sehyun/yt-translator-go/internal/service/translator"
	"github.com/sehyun/yt-translator-go/internal/store"
)

// Container bundles the assembled backend services.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Handler http.Handler
	History *history.Repository

	closers []func()
}

// Close releases infrastructure connections in reverse build order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build assembles the backend: stores, providers, services, and the HTTP
// router. Heavy initialization (Redis, Postgres, provider clients) all
// happens here.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	redisStore, err := store.NewRedisStore(store.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis store: %w", err)
	}
	closers = append(closers, func() {
		_ = redisStore.Close()
	})

	var gemini, openai translator.Provider
	if len(cfg.Gemini.APIKeys) > 0 {
		gemini, err = translator.NewGeminiProvider(ctx, cfg.Gemini.APIKeys, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini provider: %w", err)
		}
	} else {
		logger.Info("Gemini provider disabled (no API key)")
	}
	if cfg.OpenAI.APIKey != "" {
		openai, err = translator.NewOpenAIProvider(cfg.OpenAI.APIKey, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI provider: %w", err)
		}
	} else {
		logger.Info("OpenAI provider disabled (no API key)")
	}

	translatorSvc := translator.NewService(gemini, openai, redisStore, logger)

	var metadata transcript.MetadataProvider
	if cfg.YouTube.APIKey != "" {
		metadata, err = transcript.NewYouTubeMetadata(ctx, cfg.YouTube.APIKey, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube metadata provider: %w", err)
		}
	} else {
		logger.Info("Video title lookup disabled (no YouTube API key)")
	}

	transcriptSvc := transcript.NewService(redisStore, metadata, logger)

	var historyRepo *history.Repository
	if cfg.Postgres.Enabled() {
		historyRepo, err = history.NewRepository(history.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create history repository: %w", err)
		}
		closers = append(closers, func() {
			_ = historyRepo.Close()
		})
	} else {
		logger.Info("Translation history disabled (no POSTGRES_HOST)")
	}

	notifier := notify.NewNotifier(logger)

	var recorder api.Recorder
	if historyRepo != nil {
		recorder = historyRepo
	}
	server := api.NewServer(translatorSvc, transcriptSvc, notifier, recorder, logger)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Handler: server.Router(),
		History: historyRepo,
		closers: closers,
	}, nil
}
