package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fittracker/fittracker-bot/internal/domain"
	"gorm.io/gorm"
)

// fakeWorkoutRepo serves canned workouts and records saves.
type fakeWorkoutRepo struct {
	workouts map[uint]*domain.Workout
	sets     map[uint][]domain.WorkoutSet
	saved    []domain.Workout
	upserted []domain.WorkoutSet
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{
		workouts: make(map[uint]*domain.Workout),
		sets:     make(map[uint][]domain.WorkoutSet),
	}
}

func (f *fakeWorkoutRepo) CreateWorkout(ctx context.Context, w *domain.Workout) error {
	f.workouts[w.ID] = w
	return nil
}

func (f *fakeWorkoutRepo) GetByID(ctx context.Context, id uint) (*domain.Workout, error) {
	w, ok := f.workouts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *w
	return &copied, nil
}

func (f *fakeWorkoutRepo) Save(ctx context.Context, w *domain.Workout) error {
	f.saved = append(f.saved, *w)
	f.workouts[w.ID] = w
	return nil
}

func (f *fakeWorkoutRepo) ListRecentCompleted(ctx context.Context, userID uint, limit int) ([]domain.Workout, error) {
	return nil, nil
}

func (f *fakeWorkoutRepo) ListCompletedOnWeekday(ctx context.Context, userID uint, weekday time.Weekday, limit int) ([]domain.Workout, error) {
	return nil, nil
}

func (f *fakeWorkoutRepo) ExercisesByWorkout(ctx context.Context, workoutID uint) ([]domain.WorkoutExercise, error) {
	return nil, nil
}

func (f *fakeWorkoutRepo) SetsByWorkout(ctx context.Context, workoutID uint) ([]domain.WorkoutSet, error) {
	return f.sets[workoutID], nil
}

func (f *fakeWorkoutRepo) UpsertSet(ctx context.Context, set *domain.WorkoutSet) error {
	f.upserted = append(f.upserted, *set)
	return nil
}

func (f *fakeWorkoutRepo) SetHistory(ctx context.Context, userID, exerciseID uint) ([]domain.WorkoutSet, error) {
	return nil, nil
}

// fakeClientRepo resolves linked users to a fixed roster entry.
type fakeClientRepo struct {
	byLinkedUser map[uint]*domain.TrainerClient
}

func (f *fakeClientRepo) Create(ctx context.Context, client *domain.TrainerClient) error { return nil }
func (f *fakeClientRepo) GetByID(ctx context.Context, id uint) (*domain.TrainerClient, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeClientRepo) FindByTrainerAndUsername(ctx context.Context, trainerID uint, username string) (*domain.TrainerClient, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeClientRepo) FindByLinkedUser(ctx context.Context, userID uint) (*domain.TrainerClient, error) {
	c, ok := f.byLinkedUser[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}
func (f *fakeClientRepo) ListActiveByTrainer(ctx context.Context, trainerID uint) ([]domain.TrainerClient, error) {
	return nil, nil
}
func (f *fakeClientRepo) CountActiveByTrainer(ctx context.Context, trainerID uint) (int64, error) {
	return 0, nil
}
func (f *fakeClientRepo) Update(ctx context.Context, client *domain.TrainerClient) error { return nil }
func (f *fakeClientRepo) Archive(ctx context.Context, id uint) error                     { return nil }

// fakeUserRepo serves users by primary key.
type fakeUserRepo struct {
	byID map[uint]*domain.User
}

func (f *fakeUserRepo) GetOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName string) (*domain.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}
func (f *fakeUserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) UpdateRole(ctx context.Context, userID uint, role string) error   { return nil }
func (f *fakeUserRepo) UpdateState(ctx context.Context, userID uint, state string) error { return nil }

// fakeNotifier signals when the completion flow reaches it.
type fakeNotifier struct {
	messages chan string
}

func (f *fakeNotifier) Notify(chatID int64, text string) error {
	f.messages <- text
	return nil
}

func TestTotalVolume(t *testing.T) {
	sets := []domain.WorkoutSet{
		{ActualWeight: 100, ActualReps: 5, Completed: true},
		{ActualWeight: 0, ActualReps: 5, Completed: false},
		{ActualWeight: 80, ActualReps: 8, Completed: true},
	}
	assert.InDelta(t, 1140.0, TotalVolume(sets), 0.001)
}

func TestTotalVolumeEmpty(t *testing.T) {
	assert.Zero(t, TotalVolume(nil))
	assert.Zero(t, TotalVolume([]domain.WorkoutSet{{ActualWeight: 50, ActualReps: 10}}))
}

func TestCompleteWorkoutAggregatesVolume(t *testing.T) {
	repo := newFakeWorkoutRepo()
	workout := &domain.Workout{UserID: 1, Status: domain.WorkoutStatusInProgress, ScheduledAt: time.Now()}
	workout.ID = 10
	repo.workouts[10] = workout
	repo.sets[10] = []domain.WorkoutSet{
		{ActualWeight: 100, ActualReps: 5, Completed: true},
		{ActualWeight: 80, ActualReps: 8, Completed: true},
		{ActualWeight: 60, ActualReps: 12, Completed: false},
	}

	svc := NewWorkoutService(repo, &fakeUserRepo{}, &fakeClientRepo{}, nil)

	rpe := 8.5
	completed, err := svc.CompleteWorkout(context.Background(), 10, &rpe, "тяжело")
	require.NoError(t, err)

	assert.Equal(t, domain.WorkoutStatusCompleted, completed.Status)
	assert.InDelta(t, 1140.0, completed.TotalVolume, 0.001)
	require.NotNil(t, completed.RPE)
	assert.InDelta(t, 8.5, *completed.RPE, 0.001)
	assert.Equal(t, "тяжело", completed.Feedback)
	require.NotEmpty(t, repo.saved)
}

func TestCompleteWorkoutNotFound(t *testing.T) {
	svc := NewWorkoutService(newFakeWorkoutRepo(), &fakeUserRepo{}, &fakeClientRepo{}, nil)

	_, err := svc.CompleteWorkout(context.Background(), 99, nil, "")
	require.Error(t, err)
}

func TestCompleteWorkoutNotifiesTrainer(t *testing.T) {
	repo := newFakeWorkoutRepo()
	workout := &domain.Workout{UserID: 5, Status: domain.WorkoutStatusInProgress, ScheduledAt: time.Now()}
	workout.ID = 11
	repo.workouts[11] = workout
	repo.sets[11] = []domain.WorkoutSet{{ActualWeight: 100, ActualReps: 5, Completed: true}}

	trainer := &domain.User{TelegramID: 777}
	trainer.ID = 3
	roster := &domain.TrainerClient{TrainerID: 3, ClientName: "Иван Петров"}
	linked := uint(5)
	roster.LinkedUserID = &linked

	svc := NewWorkoutService(
		repo,
		&fakeUserRepo{byID: map[uint]*domain.User{3: trainer}},
		&fakeClientRepo{byLinkedUser: map[uint]*domain.TrainerClient{5: roster}},
		nil,
	)
	notifier := &fakeNotifier{messages: make(chan string, 1)}
	svc.SetNotifier(notifier)

	_, err := svc.CompleteWorkout(context.Background(), 11, nil, "")
	require.NoError(t, err)

	select {
	case text := <-notifier.messages:
		assert.True(t, strings.Contains(text, "Иван Петров"))
		assert.True(t, strings.Contains(text, "500"))
	case <-time.After(2 * time.Second):
		t.Fatal("trainer was not notified")
	}
}

func TestUpsertSetValidation(t *testing.T) {
	svc := NewWorkoutService(newFakeWorkoutRepo(), &fakeUserRepo{}, &fakeClientRepo{}, nil)

	err := svc.UpsertSet(context.Background(), &domain.WorkoutSet{SetNumber: 0})
	require.Error(t, err)

	repo := newFakeWorkoutRepo()
	svc = NewWorkoutService(repo, &fakeUserRepo{}, &fakeClientRepo{}, nil)
	err = svc.UpsertSet(context.Background(), &domain.WorkoutSet{WorkoutExerciseID: 1, SetNumber: 1, ActualWeight: 50, ActualReps: 10, Completed: true})
	require.NoError(t, err)
	assert.Len(t, repo.upserted, 1)
}
