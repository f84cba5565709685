package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/fittracker/fittracker-bot/internal/config"
	"github.com/fittracker/fittracker-bot/internal/interfaces"
	"github.com/fittracker/fittracker-bot/internal/repository"
)

// Services bundles everything the HTTP layer needs.
type Services struct {
	Users     interfaces.UserServiceInterface
	Trainers  interfaces.TrainerServiceInterface
	Programs  interfaces.ProgramServiceInterface
	Workouts  interfaces.WorkoutServiceInterface
	Exercises repository.ExerciseRepository
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(cfg *config.Config, svc Services, processor UpdateProcessor) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: false,
	}))

	webhookHandler := NewWebhookHandler(processor)
	healthHandler := NewHealthHandler(cfg)
	userHandler := NewUserHandler(svc.Users)
	clientHandler := NewClientHandler(svc.Trainers)
	programHandler := NewProgramHandler(svc.Programs)
	workoutHandler := NewWorkoutHandler(svc.Workouts)
	exerciseHandler := NewExerciseHandler(svc.Exercises)

	router.POST("/webhook", webhookHandler.Handle)

	api := router.Group("/api")
	{
		api.GET("/health", healthHandler.Handle)
		api.GET("/user/:telegramId", userHandler.GetByTelegramID)

		api.GET("/clients/:trainerId", clientHandler.List)
		api.POST("/clients", clientHandler.Add)

		api.GET("/program/:clientId", programHandler.GetActive)
		api.POST("/parse-program", programHandler.Parse)

		api.POST("/workout/set", workoutHandler.UpsertSet)
		api.POST("/workout/:id/complete", workoutHandler.Complete)
		api.GET("/progress/:userId/:exerciseId", workoutHandler.Progress)

		api.GET("/exercises", exerciseHandler.List)
	}

	return router
}
