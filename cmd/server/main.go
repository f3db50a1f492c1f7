package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bilgisen/estatehub/internal/api"
	"github.com/bilgisen/estatehub/internal/cache"
	"github.com/bilgisen/estatehub/internal/config"
	"github.com/bilgisen/estatehub/internal/logger"
	"github.com/bilgisen/estatehub/internal/media"
	"github.com/bilgisen/estatehub/internal/query"
	"github.com/bilgisen/estatehub/internal/storage"
	"github.com/bilgisen/estatehub/internal/submission"
)

func main() {
	// Load and validate configuration
	cfg := config.Load()

	output := cfg.LogFile
	if output == "" {
		output = "stdout"
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: output,
		Pretty: cfg.LogPretty,
	}); err != nil {
		panic(err)
	}

	log := logger.Get()
	log.Info().Str("env", cfg.Env).Msg("Starting application...")

	ctx := context.Background()

	var kv cache.Store
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Redis client")
		}
		kv = redisClient
	} else {
		log.Warn().Msg("REDIS_URL not set, using in-memory cache")
		kv = cache.NewMockRedisClient()
	}
	defer func() {
		log.Info().Msg("Closing cache...")
		if err := kv.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing cache")
		}
	}()

	repo, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing storage")
		}
	}()

	var (
		store    media.ObjectStore
		devMedia *media.MockStore
	)
	if cfg.R2Configured() {
		s3Store, err := media.NewS3Store(ctx, media.S3Config{
			Endpoint:      cfg.ResolvedR2Endpoint(),
			Region:        cfg.R2Region,
			AccessKey:     cfg.R2AccessKey,
			SecretKey:     cfg.R2SecretKey,
			PublicBaseURL: cfg.MediaPublicURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 client")
		}
		store = s3Store
	} else {
		log.Warn().Msg("R2 credentials not set, keeping media in memory")
		devMedia = media.NewMockStore(cfg.MediaPublicURL)
		store = devMedia
	}

	janitor := media.NewJanitor(media.JanitorConfig{
		Store:       store,
		WorkerCount: cfg.JanitorWorkers,
		Interval:    cfg.JanitorInterval,
		BatchSize:   cfg.JanitorBatchSize,
	})
	janitor.Start()
	defer janitor.Close()

	uploader := media.NewOrchestrator(store, media.WithJanitor(janitor))
	validator := submission.NewValidator(submission.Limits{
		MaxFileSize: cfg.MaxFileSize,
		MaxImages:   cfg.MaxImages,
	})
	guard := submission.NewGuard(kv, cfg.SubmitLockTTL, cfg.IdempotencyTTL)
	reader := query.NewService(repo, kv, cfg.QueryCacheTTL)

	app := api.NewApp(cfg, api.Deps{
		Listings: submission.NewListingService(validator, uploader, repo, guard, cfg.PropertyBucket),
		Blogs:    submission.NewBlogService(validator, uploader, repo, guard, cfg.BlogBucket).WithInvalidator(reader),
		Reader:   reader,
		Media:    devMedia,
	})

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
