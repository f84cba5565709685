package repository

import (
	"context"
	"time"

	"github.com/fittracker/fittracker-bot/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkoutRepository handles workout sessions and their execution records
type WorkoutRepository interface {
	CreateWorkout(ctx context.Context, workout *domain.Workout) error
	GetByID(ctx context.Context, id uint) (*domain.Workout, error)
	Save(ctx context.Context, workout *domain.Workout) error
	ListRecentCompleted(ctx context.Context, userID uint, limit int) ([]domain.Workout, error)
	ListCompletedOnWeekday(ctx context.Context, userID uint, weekday time.Weekday, limit int) ([]domain.Workout, error)
	ExercisesByWorkout(ctx context.Context, workoutID uint) ([]domain.WorkoutExercise, error)
	SetsByWorkout(ctx context.Context, workoutID uint) ([]domain.WorkoutSet, error)
	UpsertSet(ctx context.Context, set *domain.WorkoutSet) error
	SetHistory(ctx context.Context, userID, exerciseID uint) ([]domain.WorkoutSet, error)
}

type workoutRepo struct {
	db *gorm.DB
}

func NewWorkoutRepository(db *gorm.DB) WorkoutRepository {
	return &workoutRepo{db: db}
}

func (r *workoutRepo) CreateWorkout(ctx context.Context, workout *domain.Workout) error {
	return r.db.WithContext(ctx).Create(workout).Error
}

func (r *workoutRepo) GetByID(ctx context.Context, id uint) (*domain.Workout, error) {
	var workout domain.Workout
	if err := r.db.WithContext(ctx).First(&workout, id).Error; err != nil {
		return nil, err
	}
	return &workout, nil
}

func (r *workoutRepo) Save(ctx context.Context, workout *domain.Workout) error {
	return r.db.WithContext(ctx).Save(workout).Error
}

func (r *workoutRepo) ListRecentCompleted(ctx context.Context, userID uint, limit int) ([]domain.Workout, error) {
	var workouts []domain.Workout
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.WorkoutStatusCompleted).
		Order("scheduled_at DESC").
		Limit(limit).
		Find(&workouts).Error
	return workouts, err
}

// ListCompletedOnWeekday returns completed sessions that fall on the given
// weekday, newest first. The progression analyzer compares like with like:
// Monday squats against previous Monday squats.
func (r *workoutRepo) ListCompletedOnWeekday(ctx context.Context, userID uint, weekday time.Weekday, limit int) ([]domain.Workout, error) {
	var workouts []domain.Workout
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND EXTRACT(DOW FROM scheduled_at) = ?",
			userID, domain.WorkoutStatusCompleted, int(weekday)).
		Order("scheduled_at DESC").
		Limit(limit).
		Find(&workouts).Error
	return workouts, err
}

func (r *workoutRepo) ExercisesByWorkout(ctx context.Context, workoutID uint) ([]domain.WorkoutExercise, error) {
	var exercises []domain.WorkoutExercise
	err := r.db.WithContext(ctx).
		Where("workout_id = ?", workoutID).
		Order("sequence ASC").
		Find(&exercises).Error
	return exercises, err
}

func (r *workoutRepo) SetsByWorkout(ctx context.Context, workoutID uint) ([]domain.WorkoutSet, error) {
	var sets []domain.WorkoutSet
	err := r.db.WithContext(ctx).
		Joins("JOIN workout_exercises ON workout_exercises.id = workout_sets.workout_exercise_id").
		Where("workout_exercises.workout_id = ?", workoutID).
		Order("workout_exercises.sequence ASC, workout_sets.set_number ASC").
		Find(&sets).Error
	return sets, err
}

// UpsertSet inserts the record for (exercise, set number) or overwrites its
// results on conflict. Sets arrive incrementally during a session and a
// retried delivery may post the same set twice, so the write is a single
// atomic statement against the unique index.
func (r *workoutRepo) UpsertSet(ctx context.Context, set *domain.WorkoutSet) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "workout_exercise_id"}, {Name: "set_number"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"planned_weight", "planned_reps",
				"actual_weight", "actual_reps",
				"rpe", "completed", "updated_at",
			}),
		}).
		Create(set).Error
}

// SetHistory returns the user's completed sets for one library exercise in
// chronological order, for progress charts.
func (r *workoutRepo) SetHistory(ctx context.Context, userID, exerciseID uint) ([]domain.WorkoutSet, error) {
	var sets []domain.WorkoutSet
	err := r.db.WithContext(ctx).
		Joins("JOIN workout_exercises ON workout_exercises.id = workout_sets.workout_exercise_id").
		Joins("JOIN workouts ON workouts.id = workout_exercises.workout_id").
		Where("workouts.user_id = ? AND workout_exercises.exercise_id = ? AND workout_sets.completed = ?",
			userID, exerciseID, true).
		Order("workout_sets.created_at ASC").
		Find(&sets).Error
	return sets, err
}
