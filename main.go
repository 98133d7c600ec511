package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/Ananth-NQI/market-analyst-backend/database"
	"github.com/Ananth-NQI/market-analyst-backend/internal/config"
	"github.com/Ananth-NQI/market-analyst-backend/internal/handlers"
	"github.com/Ananth-NQI/market-analyst-backend/internal/logger"
	"github.com/Ananth-NQI/market-analyst-backend/internal/metrics"
	"github.com/Ananth-NQI/market-analyst-backend/internal/middleware"
	"github.com/Ananth-NQI/market-analyst-backend/internal/routes"
	"github.com/Ananth-NQI/market-analyst-backend/internal/services"
	"github.com/Ananth-NQI/market-analyst-backend/internal/storage"
)

const version = "1.0.0"

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			_ = godotenv.Load("environments/.env.development")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Options{
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		Development: cfg.IsDevelopment(),
	})
	m := metrics.New()

	ctx := context.Background()

	// MongoDB holds the analytics collections in every mode and the chat
	// memory when it is the selected driver.
	var (
		mongoClient *mongo.Client
		mongoDB     *mongo.Database
		pgDB        *gorm.DB
	)
	mongoClient, mongoDB, err = database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	if err != nil {
		if cfg.StorageDriver == config.StorageMongo {
			log.Fatal().Err(err).Msg("MongoDB is required for the chat store")
		}
		log.Warn().Err(err).Msg("MongoDB unavailable - analytics endpoints disabled")
	}

	// Initialize storage
	var store storage.ChatStore
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn().Msg("Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	case config.StoragePostgres:
		pgDB, err = database.ConnectPostgres(cfg.PostgresDSN(), cfg.IsDevelopment(), log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		dbStore := storage.NewDatabaseStore(pgDB)
		if err := dbStore.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		log.Info().Msg("Database migrations completed")
		store = dbStore
	default:
		mongoStore := storage.NewMongoStore(mongoDB)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create chat indexes")
		}
		store = mongoStore
	}

	systemPrompt, err := services.LoadSystemPrompt(cfg.SystemPromptPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load system prompt")
	}
	reports, err := services.NewReportLibrary(cfg.ReportsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open reports directory")
	}

	// Initialize all services
	model := services.NewModelService(
		services.OpenAILoader(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.ModelProbe),
		systemPrompt, cfg.ModelTimeout, log, m,
	)
	chatbot := services.NewChatbotService(store, model, reports, cfg.StorageTimeout, log, m)

	h := routes.Handlers{
		Chat:    handlers.NewChatHandler(chatbot, log),
		Reports: handlers.NewReportHandler(reports, log),
	}
	if mongoDB != nil {
		agg := storage.NewMongoAggregator(mongoDB)
		h.Analytics = handlers.NewAnalyticsHandler(services.NewOrdersService(agg, cfg.StorageTimeout, log, m))
		h.Health = handlers.NewHealthHandler(version, cfg.Environment, cfg.StorageType(), store, model, agg)
	} else {
		h.Health = handlers.NewHealthHandler(version, cfg.Environment, cfg.StorageType(), store, model, nil)
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Market Analyst Backend v" + version,
		ErrorHandler: errorHandler(log),
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.APIKeyHeader,
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(middleware.RequestMetrics(m))

	routes.SetupRoutes(app, h, m, cfg.AnalyticsAPIKey)

	// Handle graceful shutdown
	done := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer close(done)
		<-sig
		log.Info().Msg("Gracefully shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
		if mongoClient != nil {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoClient.Disconnect(disconnectCtx); err != nil {
				log.Error().Err(err).Msg("failed to disconnect MongoDB")
			}
		}
		if pgDB != nil {
			if err := database.ClosePostgres(pgDB); err != nil {
				log.Error().Err(err).Msg("failed to close database")
			}
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("storage", cfg.StorageType()).
		Str("environment", cfg.Environment).
		Str("model", cfg.OpenAIModel).
		Bool("analytics", h.Analytics != nil).
		Msg("Market Analyst Backend starting")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	<-done
}

// errorHandler answers with the fiber error code, or 500 for anything else.
func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
			return c.Status(code).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
