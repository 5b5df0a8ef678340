package router

import (
	"context"
	"fmt"
	"net/http"

	"brandguard/internal/api/v1/handler"
	"brandguard/internal/config"
	"brandguard/internal/middleware"
	"brandguard/internal/pgmq"
	"brandguard/internal/pubsub"
	"brandguard/internal/repository"
	"brandguard/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires every dependency and returns the root handler together with a
// cleanup function that releases pools and clients.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	pool, err := repository.NewPool(ctx, cfg.DBConnectionString, cfg.IsDevelopment())
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){pool.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	s3Client, err := service.NewS3Client(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	images := service.NewS3ImageStore(s3Client, cfg.S3Bucket, logger)

	gateway, err := service.NewModelGatewayFromConfig(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create model gateway: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	// Repositories
	accountRepo := repository.NewAccountRepo(pool)
	usageRepo := repository.NewUsageRepo(pool)
	designRepo := repository.NewDesignRepo(pool)
	assetRepo := repository.NewAssetRepo(pool)
	var projectRepo repository.ProjectRepository = repository.NewProjectRepo(pool)
	if cfg.RedisURL != "" {
		var redisClient *redis.Client
		redisClient, err = repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		projectRepo = repository.NewCachedProjectRepo(projectRepo, redisClient, cfg.FingerprintCacheTTL(), logger)
	} else {
		logger.Info().Msg("REDIS_URL not set, fingerprint cache disabled")
	}

	// Observers
	evaluator := service.NewAchievementEvaluator(accountRepo, designRepo, logger)
	designObservers := []service.DesignObserver{evaluator}
	var reviewObservers []service.ReviewObserver
	if cfg.GCPProjectID != "" {
		publisher, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = publisher.Close() })
		events := service.NewDesignEventPublisher(publisher, cfg.PubSubDesignEventsTopic)
		designObservers = append(designObservers, events)
		reviewObservers = append(reviewObservers, events)
	} else {
		logger.Info().Msg("GCP_PROJECT_ID not set, design events disabled")
	}

	// Services
	callTimeout := cfg.ModelCallTimeout()
	quota := service.NewQuotaEnforcer(usageRepo, logger)
	analysisService := service.NewAnalysisService(accountRepo, projectRepo, designRepo, quota, gateway, images, callTimeout, logger, designObservers...)
	designService := service.NewDesignService(accountRepo, projectRepo, designRepo, images, logger, reviewObservers...)
	fixService := service.NewFixService(accountRepo, projectRepo, designRepo, gateway, images, callTimeout, logger)
	projectService := service.NewProjectService(accountRepo, projectRepo, designRepo, assetRepo, gateway, images, callTimeout, logger)
	assetService := service.NewAssetService(accountRepo, projectRepo, assetRepo, gateway, images, pgmq.New(pool), cfg.AssetTaggingQueueName, callTimeout, logger)
	accountService := service.NewAccountService(accountRepo, logger)
	panelService := service.NewPanelService(projectRepo, gateway, callTimeout, logger)
	toolboxService := service.NewToolboxService(accountRepo, projectRepo, gateway, callTimeout, logger)

	// Handlers
	accountHandler := handler.NewAccountHandler(accountService, validate, logger)
	projectHandler := handler.NewProjectHandler(projectService, assetService, validate, cfg.MaxImageBytes, logger)
	designHandler := handler.NewDesignHandler(analysisService, designService, validate, cfg.MaxImageBytes, logger)
	fixHandler := handler.NewFixHandler(fixService, validate, cfg.MaxImageBytes, logger)
	panelHandler := handler.NewPanelHandler(panelService, validate, cfg.MaxImageBytes, logger)
	toolboxHandler := handler.NewToolboxHandler(toolboxService, validate, cfg.MaxImageBytes, logger)

	authMw := middleware.AuthMiddleware(cfg.JWTSecret, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	apiV1Mux := http.NewServeMux()
	accountHandler.RegisterRoutes(apiV1Mux, authMw)
	projectHandler.RegisterRoutes(apiV1Mux, authMw)
	designHandler.RegisterRoutes(apiV1Mux, authMw)
	fixHandler.RegisterRoutes(apiV1Mux, authMw)
	toolboxHandler.RegisterRoutes(apiV1Mux, authMw)
	panelHandler.RegisterRoutes(apiV1Mux)

	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), cleanup, nil
}
