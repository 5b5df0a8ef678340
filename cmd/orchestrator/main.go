package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"brandguard/internal/config"
	"brandguard/internal/logger"
	"brandguard/internal/orchestrator/tagging"
	"brandguard/internal/orchestrator/usage"
	"brandguard/internal/pgmq"
	"brandguard/internal/repository"
	"brandguard/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "", "Orchestrator mode: asset-tagging|usage-reset|limits-sync")
	flag.Parse()

	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repository.NewPool(ctx, cfg.DBConnectionString, cfg.IsDevelopment())
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer pool.Close()
	logger.Info().Msg("Database connection established")

	var runErr error
	switch *mode {
	case "asset-tagging":
		runErr = runTagging(ctx, cfg, pool, logger)
	case "usage-reset":
		runErr = usage.ResetMonthly(ctx, logger, repository.NewUsageRepo(pool))
	case "limits-sync":
		runErr = usage.SyncLimits(ctx, logger, repository.NewUsageRepo(pool))
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s orchestrator failed: %v", *mode, runErr)
	}

	logger.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}

func runTagging(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) error {
	s3Client, err := service.NewS3Client(ctx, cfg)
	if err != nil {
		return err
	}
	gateway, err := service.NewModelGatewayFromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	queue := pgmq.New(pool)
	logger.Info().Msg("PGMQ client initialized")

	accountRepo := repository.NewAccountRepo(pool)
	projectRepo := repository.NewProjectRepo(pool)
	assetRepo := repository.NewAssetRepo(pool)
	images := service.NewS3ImageStore(s3Client, cfg.S3Bucket, logger)
	assets := service.NewAssetService(accountRepo, projectRepo, assetRepo, gateway, images, queue,
		cfg.AssetTaggingQueueName, cfg.ModelCallTimeout(), logger)

	backoffMax := time.Duration(cfg.AssetTaggingBackoffMaxSec) * time.Second
	// The message must stay invisible while a job works through its retries.
	visibility := cfg.AssetTaggingMaxRetries * (cfg.ModelCallTimeoutSec + cfg.AssetTaggingBackoffMaxSec)

	worker := tagging.NewWorker(queue, assets, repository.NewDLQRepository(pool), tagging.Options{
		QueueName:       cfg.AssetTaggingQueueName,
		DeadLetterQueue: cfg.AssetTaggingDeadLetterQueue,
		PollTimeoutSec:  cfg.AssetTaggingPollTimeoutSec,
		VisibilitySec:   visibility,
		MaxRetries:      cfg.AssetTaggingMaxRetries,
		BackoffInitial:  time.Duration(cfg.AssetTaggingBackoffInitialSec) * time.Second,
		BackoffMax:      backoffMax,
	}, logger)
	return worker.Run(ctx)
}
