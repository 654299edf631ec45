package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/catalog"
	"storefront/internal/dispatch"
	"storefront/internal/imagestore"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront", zap.String("shop", cfg.Shop.Name))

	tp, err := util.InitTracer("storefront", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	ctx := context.Background()
	readiness := map[string]api.ReadinessCheck{}

	var catalogStore catalog.Store
	switch cfg.Catalog.Backend {
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.Catalog.FilePath), 0o755); err != nil {
			logger.Fatal("Failed to create catalog directory", zap.Error(err))
		}
		catalogStore = store.NewFileStore(cfg.Catalog.FilePath)
		logger.Info("Using file catalog", zap.String("path", cfg.Catalog.FilePath))
	case "postgres":
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to apply database schema", zap.Error(err))
		}
		catalogStore = db
		readiness["database"] = db.Ping
		logger.Info("Database connected")
	default:
		logger.Fatal("Unknown catalog backend", zap.String("backend", cfg.Catalog.Backend))
	}

	redisClient, err := redisclient.NewClient(
		cfg.Redis.Addr,
		cfg.Redis.Password,
		cfg.Redis.DB,
		time.Duration(cfg.Redis.SessionTTLMinutes)*time.Minute,
	)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	readiness["redis"] = redisClient.Ping
	logger.Info("Redis connected")

	// left nil when Kafka is disabled
	var catalogPublisher catalog.Publisher
	var orderPublisher dispatch.Publisher
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		eventPublisher := broker.NewEventPublisher(producer)
		catalogPublisher = eventPublisher
		orderPublisher = eventPublisher
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicEvents))
	}

	catalogService := catalog.NewService(catalogStore, catalogPublisher)
	if err := catalogService.Load(ctx); err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}

	settings := dispatch.NewSettings(
		cfg.Shop.Name,
		cfg.Shop.WhatsAppNumber,
		cfg.Shop.ChatBaseURL,
		cfg.Shop.Currency,
		cfg.Shop.Locale,
	)
	dispatcher := dispatch.NewDispatcher(settings, orderPublisher)
	orderingService := service.NewOrderingService(redisClient, catalogService, dispatcher)

	images := imagestore.New(imagestore.Options{
		Dir:             cfg.Upload.Dir,
		PublicBaseURL:   cfg.Upload.PublicBaseURL,
		MaxBytes:        cfg.Upload.MaxUploadBytes,
		CompressAbove:   cfg.Upload.CompressAbove,
		MaxWidth:        cfg.Upload.MaxWidth,
		DefaultCategory: cfg.Upload.DefaultCategory,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var catalogWorker *worker.CatalogWorker
	if cfg.Kafka.Enabled {
		// every instance needs to see every replace, so each gets its own group
		groupID := fmt.Sprintf("%s-%s", cfg.Kafka.ConsumerGroup, catalogService.InstanceID())
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, groupID)
		catalogWorker = worker.NewCatalogWorker(consumer, catalogService)
		go func() {
			if err := catalogWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Catalog worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxUploadBytes + (1 << 20)
	handler := api.NewHandler(catalogService, orderingService, images, cfg.Shop.AdminPassword, cfg.Upload.PublicBaseURL)
	for name, check := range readiness {
		handler.AddReadinessCheck(name, check)
	}
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if catalogWorker != nil {
		if err := catalogWorker.Stop(); err != nil {
			logger.Warn("Error stopping catalog worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
