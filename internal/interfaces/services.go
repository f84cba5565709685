package interfaces

import (
	"context"

	"github.com/fittracker/fittracker-bot/internal/domain"
	"github.com/fittracker/fittracker-bot/internal/services"
)

// UserServiceInterface defines the contract for user operations
type UserServiceInterface interface {
	RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	SetRole(ctx context.Context, userID uint, role string) error
	SetState(ctx context.Context, userID uint, st string) error
}

// TrainerServiceInterface defines the contract for roster operations
type TrainerServiceInterface interface {
	AddClient(ctx context.Context, trainerID uint, name, username, goal, notes string) (*domain.TrainerClient, error)
	ListClients(ctx context.Context, trainerID uint) ([]domain.TrainerClient, error)
	CountClients(ctx context.Context, trainerID uint) (int64, error)
	GetClient(ctx context.Context, trainerID, clientID uint) (*domain.TrainerClient, error)
	ArchiveClient(ctx context.Context, trainerID, clientID uint) error
	LinkClient(ctx context.Context, trainerID, clientID uint, username string) (*domain.TrainerClient, error)
	ClientForUser(ctx context.Context, userID uint) (*domain.TrainerClient, error)
	TrainerForClient(ctx context.Context, clientID uint) (*domain.User, error)
}

// ProgramServiceInterface defines the contract for program parsing and storage
type ProgramServiceInterface interface {
	Parse(ctx context.Context, text string) (*domain.Program, error)
	SaveProgram(ctx context.Context, clientID uint, program *domain.Program) (*domain.Program, error)
	ParseAndSave(ctx context.Context, clientID uint, text string) (*domain.Program, error)
	GetActiveProgram(ctx context.Context, clientID uint) (*domain.Program, error)
}

// WorkoutServiceInterface defines the contract for workout tracking
type WorkoutServiceInterface interface {
	UpsertSet(ctx context.Context, set *domain.WorkoutSet) error
	CompleteWorkout(ctx context.Context, workoutID uint, rpe *float64, feedback string) (*domain.Workout, error)
	Progress(ctx context.Context, userID, exerciseID uint) ([]domain.WorkoutSet, error)
	RecentCompleted(ctx context.Context, userID uint, limit int) ([]domain.Workout, error)
}

// ProgressionServiceInterface defines the contract for AI progression analysis
type ProgressionServiceInterface interface {
	Analyze(ctx context.Context, workout *domain.Workout) (*services.ProgressionSuggestion, error)
}
