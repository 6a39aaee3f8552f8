package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/princekumarofficial/assets-service/docs"
	"github.com/princekumarofficial/assets-service/internal/assets"
	"github.com/princekumarofficial/assets-service/internal/auth"
	"github.com/princekumarofficial/assets-service/internal/cache"
	"github.com/princekumarofficial/assets-service/internal/config"
	"github.com/princekumarofficial/assets-service/internal/events"
	"github.com/princekumarofficial/assets-service/internal/http/handlers/health"
	"github.com/princekumarofficial/assets-service/internal/http/handlers/media"
	wsHandlers "github.com/princekumarofficial/assets-service/internal/http/handlers/websocket"
	"github.com/princekumarofficial/assets-service/internal/http/middleware"
	"github.com/princekumarofficial/assets-service/internal/logger"
	"github.com/princekumarofficial/assets-service/internal/metrics"
	"github.com/princekumarofficial/assets-service/internal/objectstore"
	"github.com/princekumarofficial/assets-service/internal/ratelimit"
	mediaService "github.com/princekumarofficial/assets-service/internal/services/media"
	"github.com/princekumarofficial/assets-service/internal/storage"
	"github.com/princekumarofficial/assets-service/internal/storage/postgres"
	"github.com/princekumarofficial/assets-service/internal/storage/sqlite"
	"github.com/princekumarofficial/assets-service/internal/thumbnails"
	"github.com/princekumarofficial/assets-service/internal/websocket"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Assets Service API
// @version 1.0
// @description Upload and serve video thumbnails and video files for video records.
// @host localhost:8091
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	// load config
	cfg := config.MustLoad()
	appLogger := logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// metadata store
	var store storage.Storage
	var err error
	switch cfg.Metadata.Driver {
	case "sqlite":
		store, err = sqlite.New(cfg.Metadata.SQLitePath)
	default:
		store, err = postgres.NewPostgres(cfg)
	}
	if err != nil {
		log.Fatal("Failed to initialize metadata store:", err)
	}
	defer store.Close()
	slog.Info("Metadata store ready", slog.String("driver", cfg.Metadata.Driver))

	// redis (optional)
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		defer redisClient.Close()
		slog.Info("Connected to Redis", slog.String("addr", cfg.Redis.Addr))

		store = cache.NewCacheService(store, redisClient, cfg.Redis.VideoCacheTTL)
	}

	var thumbnailStore thumbnails.Store = thumbnails.NewMemoryStore()
	if cfg.Thumbnails.Backend == "redis" {
		thumbnailStore = thumbnails.NewRedisStore(redisClient)
	}
	slog.Info("Thumbnail store ready", slog.String("backend", cfg.Thumbnails.Backend))

	objects, err := objectstore.New(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize object store:", err)
	}
	slog.Info("Object store ready",
		slog.String("backend", cfg.ObjectStore.Backend),
		slog.String("bucket", cfg.ObjectStore.Bucket))

	appMetrics := metrics.New()

	// owner notifications
	hub := websocket.NewHub()
	go hub.Run(ctx)

	publishers := events.Multi{events.NewHubPublisher(hub)}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			log.Fatal("Failed to initialize AMQP publisher:", err)
		}
		defer amqpPublisher.Close()
		publishers = append(publishers, amqpPublisher)
	}

	gate := auth.NewGate(cfg.JWTSecret)

	svc := mediaService.NewService(mediaService.Options{
		Auth:       gate,
		Videos:     store,
		Thumbnails: thumbnailStore,
		Objects:    objects,
		Validator: assets.NewValidator(
			assets.Policy{MaxBytes: cfg.Thumbnails.MaxUploadSize},
			assets.Policy{MaxBytes: cfg.Videos.MaxUploadSize, AllowedTypes: cfg.Videos.AllowedMimeTypes},
		),
		ThumbnailBaseURL: cfg.HTTPServer.ThumbnailBaseURL(),
		Publisher:        events.Logged(publishers),
		Metrics:          appMetrics,
		Logger:           appLogger,
	})

	go assets.NewSweeper("", cfg.Spool.SweepInterval, cfg.Spool.MaxAge, appLogger).Start(ctx)

	// setup router
	mediaHandlers := media.NewMediaHandlers(svc, cfg.Thumbnails.MaxUploadSize, cfg.Videos.MaxUploadSize)

	upload := func(h http.HandlerFunc) http.Handler { return h }
	var quota http.HandlerFunc
	if redisClient != nil && cfg.RateLimit.Enabled {
		bucket := ratelimit.NewTokenBucket(redisClient, cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerMinute)
		rateLimits := middleware.NewRateLimitConfig(bucket, appMetrics.RateLimited)
		upload = func(h http.HandlerFunc) http.Handler {
			return rateLimits.RateLimitedHandler(middleware.UploadAction, h)
		}
		quota = rateLimits.QuotaHandler(middleware.UploadAction)
	}

	checks := map[string]health.Checker{"metadata": store}
	if redisClient != nil {
		checks["redis"] = health.CheckerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router := http.NewServeMux()

	router.HandleFunc("GET /assets/thumbnails/{videoID}", mediaHandlers.GetThumbnail())
	router.Handle("POST /assets/thumbnails/{videoID}", upload(mediaHandlers.UploadThumbnail()))
	router.Handle("POST /assets/videos/{videoID}", upload(mediaHandlers.UploadVideo()))
	if quota != nil {
		router.HandleFunc("GET /assets/uploads/quota", quota)
	}
	router.HandleFunc("GET /ws", wsHandlers.WebSocketHandler(hub, gate))
	router.HandleFunc("GET /health", health.Health(checks))
	router.Handle("GET /metrics", appMetrics.Handler())
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	server := http.Server{
		Addr:              cfg.HTTPServer.Address,
		Handler:           middleware.Logging(appLogger, appMetrics)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("server started", slog.String("address", cfg.HTTPServer.Address))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	err = server.Shutdown(shutdownCtx)
	cancel()
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
