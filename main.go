package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog"

	"catalogo/internal/config"
	"catalogo/internal/handlers"
	"catalogo/internal/repositories"
	"catalogo/internal/services"
	"catalogo/internal/storage"
	"catalogo/pkg/logging"
	"catalogo/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()
	log := logging.New(os.Stderr, zerolog.InfoLevel)

	ctx := context.Background()

	// --- Store and bucket clients ---
	// Both clients are constructed once here and shared read-only by the
	// components that need them. Without a project ID the process runs
	// against its in-memory store, which is enough for local development.
	var (
		productRepo repositories.ProductRepository
		objectStore storage.ObjectStore
	)
	if cfg.GoogleProjectID != "" {
		if cfg.GCSBucket == "" {
			log.Fatal().Msg("GCS_BUCKET must be set when GOOGLE_PROJECT_ID is set")
		}
		fsClient, err := firestore.NewClient(ctx, cfg.GoogleProjectID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Firestore client")
		}
		defer fsClient.Close()

		gcsClient, err := gcs.NewClient(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Cloud Storage client")
		}
		defer gcsClient.Close()

		productRepo = repositories.NewFirestoreProductRepository(fsClient, cfg.FirestoreCollection)
		objectStore = storage.NewGCSStore(gcsClient, cfg.GCSBucket)
	} else {
		log.Warn().Msg("GOOGLE_PROJECT_ID not set, running with in-memory store")
		productRepo = repositories.NewMockProductRepository()
		objectStore = storage.NewMemoryStore()
	}

	// --- RabbitMQ client (optional) ---
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		var err error
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
		log.Info().Msg("RabbitMQ client connected, catalog events enabled")
	}

	// --- Services ---
	catalogService := services.NewCatalogService(productRepo)
	productService := services.NewProductService(productRepo, objectStore, mqClient, cfg.SignedURLTTL, log)
	reportService := services.NewReportService(productRepo, services.NewHTTPImageFetcher(0), log)

	// --- Handlers ---
	productHandler := handlers.NewProductHandler(catalogService, productService, reportService, log)

	// --- Fiber app ---
	app := fiber.New(fiber.Config{
		BodyLimit: 16 * 1024 * 1024, // image uploads
	})
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")
	productHandler.RegisterRoutes(apiV1)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP server with graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.AppPort).Msg("starting server")
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	log.Info().Msg("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped")
}
