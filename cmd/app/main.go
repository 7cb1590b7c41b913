package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"moments-backend/docs"
	"moments-backend/internal/common/cache"
	"moments-backend/internal/common/config"
	"moments-backend/internal/common/logger"
	"moments-backend/internal/common/middleware"
	mediaHTTP "moments-backend/internal/features/media/delivery/http"
	mediaService "moments-backend/internal/features/media/service"
	momentHTTP "moments-backend/internal/features/moment/delivery/http"
	momentRepo "moments-backend/internal/features/moment/repository"
	momentPostgres "moments-backend/internal/features/moment/repository/postgres"
	momentRedis "moments-backend/internal/features/moment/repository/redis"
	momentService "moments-backend/internal/features/moment/service"
	signingRedis "moments-backend/internal/features/signing/repository/redis"
	signingService "moments-backend/internal/features/signing/service"
	userHTTP "moments-backend/internal/features/user/delivery/http"
	userRepo "moments-backend/internal/features/user/repository"
	userPostgres "moments-backend/internal/features/user/repository/postgres"
	userService "moments-backend/internal/features/user/service"
	"moments-backend/internal/platform/identity"
	"moments-backend/internal/platform/memory"
	"moments-backend/internal/platform/postgres"
	"moments-backend/internal/platform/redis"
	"moments-backend/internal/platform/s3"
)

// @title           Moments API
// @version         1.0
// @description     Create moments with friends, collect every participant's signature, then publish.

// @BasePath  /api/v1

// @tag.name moments
// @tag.description Moment lifecycle: create, view, sign, publish, access

// @tag.name users
// @tag.description Wallet users and identity verification

// @tag.name media
// @tag.description Media upload to object storage

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.ServiceName, cfg.Debug)
	logger.Info().
		Str("version", "1.0.0").
		Str("store", cfg.StoreDriver).
		Msg("Starting Moments backend")

	// JSON prices as numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	var (
		moments   momentRepo.MomentRepository
		users     userRepo.UserRepository
		nonces    signingService.NonceStore
		events    momentService.EventPublisher
		readiness []func(context.Context) error
	)

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		moments, users = store, store
		nonces = memory.NewNonceStore()
		logger.Warn().Msg("Using in-memory store; data is lost on restart")

	default:
		postgresClient, err := postgres.NewClient(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer postgresClient.Close()

		if cfg.Postgres.AutoMigrate {
			if err := postgresClient.Migrate(ctx); err != nil {
				logger.Fatal().Err(err).Msg("Failed to run migrations")
			}
		}

		redisClient, err := redis.Open(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		cacheService := cache.NewCacheService(redisClient)

		moments = momentPostgres.NewPostgresRepository(postgresClient.GetDB())
		users = userPostgres.NewPostgresRepository(postgresClient.GetDB())
		nonces = signingRedis.NewRepository(cacheService)
		events = momentRedis.NewEventStream(redisClient, cfg.Redis.EventStream, cfg.Redis.EventStreamMaxLen)

		readiness = append(readiness,
			postgresClient.HealthCheck,
			func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		)
	}

	var objects mediaService.ObjectStore
	if cfg.Storage.Endpoint != "" || cfg.Storage.AccessKey != "" {
		s3Client, err := s3.NewClient(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize object storage")
		}
		objects = s3Client
	} else {
		logger.Warn().Msg("Object storage is not configured; media upload is disabled")
	}

	signer := signingService.NewService(nonces, cfg.Signing.NonceTTL, cfg.Signing.RequireNonce)
	momentSvc := momentService.NewMomentService(moments, signer, events)
	userSvc := userService.NewUserService(users, identity.NewClient(cfg))
	mediaSvc := mediaService.NewMediaService(objects, cfg.Storage.MaxUploadBytes)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.Errors())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	momentHTTP.NewMomentHandler(momentSvc).RegisterRoutes(v1)
	userHTTP.NewUserHandler(userSvc).RegisterRoutes(v1)
	mediaHTTP.NewMediaHandler(mediaSvc).RegisterRoutes(v1)

	docs.SwaggerInfo.BasePath = "/api/v1"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	setupProbes(router, cfg.ServiceName, readiness)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func setupProbes(router *gin.Engine, service string, checks []func(context.Context) error) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   service,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// ready pings postgres and redis when they are in use
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for _, check := range checks {
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   service,
		})
	})
}
