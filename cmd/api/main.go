package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/homework-assistant-api/internal/config"
	"github.com/noah-isme/homework-assistant-api/internal/database"
	"github.com/noah-isme/homework-assistant-api/internal/handler"
	"github.com/noah-isme/homework-assistant-api/internal/middleware"
	"github.com/noah-isme/homework-assistant-api/internal/repository"
	"github.com/noah-isme/homework-assistant-api/internal/router"
	"github.com/noah-isme/homework-assistant-api/internal/service"
	"github.com/noah-isme/homework-assistant-api/pkg/ai"
	cloud "github.com/noah-isme/homework-assistant-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	tokenStore := repository.NewMemoryTokenStore()
	history := ai.HistoryFor(redisClient, cfg.AIHistoryTurns, cfg.AIHistoryTTL)
	if redisClient != nil {
		tokenStore = repository.NewRedisTokenStore(redisClient, "homework:revoked")
	} else {
		logger.Warn().Msg("redis not configured; token revocation and assistant history stay in process")
	}

	var uploader service.FileUploader
	if cfg.CloudinaryEnabled() {
		store, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = store
	}

	assistant, err := ai.NewOpenAIAssistant(ai.OpenAIConfig{
		APIKey:  cfg.AIAPIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
		History: history,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create assistant: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	events := service.NewNATSPublisher(natsConn, cfg.EventSubjectPrefix, logger)

	userRepo := repository.NewUserRepository(db)
	homeworkRepo := repository.NewHomeworkRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	interactionRepo := repository.NewAIInteractionRepository(db)

	authService := service.NewAuthService(userRepo, validate, service.AuthConfig{
		Secret:     cfg.SessionSecret,
		TokenTTL:   cfg.TokenTTL,
		Revocation: tokenStore,
	}, logger)
	assignmentService := service.NewAssignmentService(homeworkRepo, validate, events, logger)
	interactionLog := service.NewInteractionLog(interactionRepo, logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Homework:     homeworkRepo,
		Submissions:  submissionRepo,
		Interactions: interactionRepo,
		Uploader:     uploader,
		Events:       events,
	}, validate, logger)
	aiHelpService := service.NewAIHelpService(homeworkRepo, interactionLog, assistant, validate, service.AIHelpOptions{
		EnforceOwnership: cfg.AIEnforceOwnership,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    16 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: true})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		AIHelpHandler:     handler.NewAIHelpHandler(aiHelpService, cfg.AIRateLimit, logger),
		HealthHandler:     handler.HealthCheck(cfg, db),
		JWTMiddleware:     middleware.JWTProtected(cfg.SessionSecret, tokenStore),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
