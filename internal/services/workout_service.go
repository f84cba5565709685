package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/fittracker/fittracker-bot/internal/errors"

	"github.com/fittracker/fittracker-bot/internal/domain"
	"github.com/fittracker/fittracker-bot/internal/logger"
	"github.com/fittracker/fittracker-bot/internal/repository"
	"gorm.io/gorm"
)

// notifyTimeout bounds the fire-and-forget work after a completed workout.
const notifyTimeout = 90 * time.Second

// Notifier pushes a plain-text message to a chat. The bot implements it.
type Notifier interface {
	Notify(chatID int64, text string) error
}

// WorkoutService records set results and completes sessions.
type WorkoutService struct {
	workouts    repository.WorkoutRepository
	users       repository.UserRepository
	clients     repository.ClientRepository
	progression *ProgressionService
	notifier    Notifier
}

func NewWorkoutService(
	workouts repository.WorkoutRepository,
	users repository.UserRepository,
	clients repository.ClientRepository,
	progression *ProgressionService,
) *WorkoutService {
	return &WorkoutService{
		workouts:    workouts,
		users:       users,
		clients:     clients,
		progression: progression,
	}
}

// SetNotifier wires the outbound messaging channel. The bot is constructed
// after the services, so this is set late in startup.
func (s *WorkoutService) SetNotifier(n Notifier) {
	s.notifier = n
}

// TotalVolume sums actual weight times actual reps over completed working
// sets. Incomplete sets contribute nothing.
func TotalVolume(sets []domain.WorkoutSet) float64 {
	var volume float64
	for _, set := range sets {
		if set.Completed {
			volume += set.ActualWeight * float64(set.ActualReps)
		}
	}
	return volume
}

// UpsertSet records one set's actual results; sets arrive incrementally
// during a session.
func (s *WorkoutService) UpsertSet(ctx context.Context, set *domain.WorkoutSet) error {
	if set.WorkoutExerciseID == 0 || set.SetNumber < 1 {
		return apperrors.NewValidationError("workout exercise and set number are required")
	}
	if err := s.workouts.UpsertSet(ctx, set); err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// CompleteWorkout aggregates the session's volume and marks it completed,
// then kicks off the progression analysis and trainer notification in the
// background. Those are best-effort: their failure never rolls back the
// completion.
func (s *WorkoutService) CompleteWorkout(ctx context.Context, workoutID uint, rpe *float64, feedback string) (*domain.Workout, error) {
	workout, err := s.workouts.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	sets, err := s.workouts.SetsByWorkout(ctx, workout.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	workout.Status = domain.WorkoutStatusCompleted
	workout.TotalVolume = TotalVolume(sets)
	if rpe != nil {
		workout.RPE = rpe
	}
	if feedback != "" {
		workout.Feedback = feedback
	}
	if err := s.workouts.Save(ctx, workout); err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	go s.afterCompletion(*workout)

	return workout, nil
}

// Progress returns the chronological completed-set history for one exercise.
func (s *WorkoutService) Progress(ctx context.Context, userID, exerciseID uint) ([]domain.WorkoutSet, error) {
	sets, err := s.workouts.SetHistory(ctx, userID, exerciseID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return sets, nil
}

// RecentCompleted lists the user's latest completed sessions for progress
// views.
func (s *WorkoutService) RecentCompleted(ctx context.Context, userID uint, limit int) ([]domain.Workout, error) {
	workouts, err := s.workouts.ListRecentCompleted(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return workouts, nil
}

// afterCompletion runs detached from the request that completed the workout,
// with its own deadline and isolated failure handling.
func (s *WorkoutService) afterCompletion(workout domain.Workout) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	var suggestion *ProgressionSuggestion
	if s.progression != nil {
		var err error
		suggestion, err = s.progression.Analyze(ctx, &workout)
		if err != nil {
			// No suggestion available; the trainer still gets notified.
			logger.Warningf("Progression analysis failed for workout %d: %v", workout.ID, err)
			suggestion = nil
		}
	}

	if s.notifier == nil {
		return
	}

	trainer, clientName, err := s.resolveTrainer(ctx, workout.UserID)
	if err != nil {
		logger.Warningf("No trainer to notify for workout %d: %v", workout.ID, err)
		return
	}

	text := fmt.Sprintf("🏁 %s завершил(а) тренировку.\n💪 Объём: %.0f кг", clientName, workout.TotalVolume)
	if workout.RPE != nil {
		text += fmt.Sprintf("\n📈 RPE: %.1f", *workout.RPE)
	}
	if suggestion != nil && len(suggestion.Recommendations) > 0 {
		text += "\n\n🤖 Рекомендации:\n• " + strings.Join(suggestion.Recommendations, "\n• ")
	}

	if err := s.notifier.Notify(trainer.TelegramID, text); err != nil {
		logger.Errorf("Failed to notify trainer %d: %v", trainer.ID, err)
	}
}

// resolveTrainer walks workout user → linked roster entry → owning trainer.
func (s *WorkoutService) resolveTrainer(ctx context.Context, userID uint) (*domain.User, string, error) {
	client, err := s.clients.FindByLinkedUser(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("user %d has no linked roster entry: %w", userID, err)
	}
	trainer, err := s.users.GetByID(ctx, client.TrainerID)
	if err != nil {
		return nil, "", fmt.Errorf("trainer %d not found: %w", client.TrainerID, err)
	}
	return trainer, client.ClientName, nil
}
