package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/fittracker/fittracker-bot/internal/api"
	"github.com/fittracker/fittracker-bot/internal/bot"
	"github.com/fittracker/fittracker-bot/internal/bot/handlers"
	"github.com/fittracker/fittracker-bot/internal/bot/state"
	"github.com/fittracker/fittracker-bot/internal/config"
	"github.com/fittracker/fittracker-bot/internal/database"
	"github.com/fittracker/fittracker-bot/internal/logger"
	"github.com/fittracker/fittracker-bot/internal/repository"
	"github.com/fittracker/fittracker-bot/internal/services"
)

func main() {
	// Missing .env is fine in production where vars come from the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init()
		logger.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		logger.Init()
		logger.Fatalf("Failed to init logger: %v", err)
	}
	logger.Info("Starting FitTracker bot...")

	db, err := database.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Info("Database connection established and migrations completed")

	// Scratch store: Redis when configured, in-memory otherwise
	var scratch state.ScratchStore
	if cfg.Redis.Host != "" {
		redisManager, err := state.NewRedisManager(cfg.Redis.Host, cfg.Redis.Port)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisManager.Close()
		scratch = redisManager
		logger.Info("Using Redis scratch store")
	} else {
		scratch = state.NewManager()
		logger.Info("Using in-memory scratch store")
	}

	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	programRepo := repository.NewProgramRepository(db)
	workoutRepo := repository.NewWorkoutRepository(db)
	exerciseRepo := repository.NewExerciseRepository(db)

	aiService := services.NewAIService(cfg.OpenAIAPIKey, cfg.GeminiAPIKey)
	userService := services.NewUserService(userRepo)
	trainerService := services.NewTrainerService(clientRepo, userRepo)
	programService := services.NewProgramService(aiService, programRepo)
	progressionService := services.NewProgressionService(aiService, workoutRepo)
	workoutService := services.NewWorkoutService(workoutRepo, userRepo, clientRepo, progressionService)
	logger.Info("Services initialized successfully")

	deps := handlers.Dependencies{
		UserService:    userService,
		TrainerService: trainerService,
		ProgramService: programService,
		WorkoutService: workoutService,
		WebAppURL:      cfg.PublicURL,
	}

	telegramBot, err := bot.New(cfg.TelegramToken, deps, scratch)
	if err != nil {
		logger.Fatalf("Failed to create bot: %v", err)
	}
	workoutService.SetNotifier(telegramBot)
	logger.Info("Bot initialized successfully")

	router := api.NewRouter(cfg, api.Services{
		Users:     userService,
		Trainers:  trainerService,
		Programs:  programService,
		Workouts:  workoutService,
		Exercises: exerciseRepo,
	}, telegramBot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Production receives updates on the webhook endpoint; everything else
	// long-polls so local runs need no public URL.
	if cfg.IsProduction() && cfg.PublicURL != "" {
		webhookURL := strings.TrimRight(cfg.PublicURL, "/") + "/webhook"
		if err := telegramBot.SetWebhook(webhookURL); err != nil {
			logger.Fatalf("Failed to set webhook: %v", err)
		}
		logger.Infof("Webhook registered at %s", webhookURL)
	} else {
		if err := telegramBot.RemoveWebhook(); err != nil {
			logger.Warningf("Failed to remove webhook: %v", err)
		}
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Bot stopped with error: %v", err)
				stop()
			}
		}()
		logger.Info("Long polling started")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("HTTP server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}
	logger.Info("Shutdown complete")
}
