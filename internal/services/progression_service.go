package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/fittracker/fittracker-bot/internal/errors"

	"github.com/fittracker/fittracker-bot/internal/domain"
	"github.com/fittracker/fittracker-bot/internal/logger"
	"github.com/fittracker/fittracker-bot/internal/repository"
)

// historyDepth is how many previous same-weekday sessions accompany the
// completed workout in the analyzer prompt.
const historyDepth = 4

const progressionSystemPrompt = `You are a strength coach reviewing a client's completed workout. Compare it with the recent history of the same weekday session and suggest how to progress next time.

PROGRESSION RUBRIC:
- RPE below 8 with all planned reps completed: increase the load
- RPE of 8 with planned reps completed: hold the load, optionally add a set
- RPE above 8, or planned reps missed: hold or reduce the load

REQUIREMENTS:
- Base every recommendation only on the data provided
- Recommendations and analysis text must be in Russian
- Keep the analysis short and concrete

CRITICAL JSON FORMAT REQUIREMENTS:
- Your response MUST be a valid JSON object with no surrounding text
- The JSON must have these exact fields:
  {
    "analysis": "short analysis in Russian",
    "recommendations": ["recommendation 1", "recommendation 2"],
    "next_session": [
      {"name": "exercise name", "weight_delta": 2.5, "note": ""}
    ]
  }`

// ExerciseSuggestion is a per-exercise load adjustment for the next session.
type ExerciseSuggestion struct {
	Name        string  `json:"name"`
	WeightDelta float64 `json:"weight_delta"`
	Note        string  `json:"note,omitempty"`
}

// ProgressionSuggestion is the analyzer's structured output. The Analysis
// text is also stored on the workout as an auditable annotation; the program
// itself is never mutated here.
type ProgressionSuggestion struct {
	Analysis        string               `json:"analysis"`
	Recommendations []string             `json:"recommendations"`
	NextSession     []ExerciseSuggestion `json:"next_session"`
}

// ProgressionService requests structured progression recommendations for
// completed workouts.
type ProgressionService struct {
	ai       Completer
	workouts repository.WorkoutRepository
}

func NewProgressionService(ai Completer, workouts repository.WorkoutRepository) *ProgressionService {
	return &ProgressionService{
		ai:       ai,
		workouts: workouts,
	}
}

// Analyze reviews a completed workout against up to the last four sessions on
// the same weekday. Any completion or decoding failure returns an error the
// caller must treat as "no suggestion available"; it must never block the
// rest of the completion flow.
func (s *ProgressionService) Analyze(ctx context.Context, workout *domain.Workout) (*ProgressionSuggestion, error) {
	if workout.Status != domain.WorkoutStatusCompleted {
		return nil, apperrors.NewValidationError("workout is not completed")
	}

	payload, err := s.buildPayload(ctx, workout)
	if err != nil {
		return nil, err
	}

	raw, err := s.ai.Complete(ctx, progressionSystemPrompt, payload)
	if err != nil {
		return nil, apperrors.NewExternalAPIError(err, "completion")
	}

	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return nil, apperrors.NewMalformedCompletionError(fmt.Errorf("no JSON object in completion output"))
	}

	var suggestion ProgressionSuggestion
	if err := json.Unmarshal([]byte(jsonStr), &suggestion); err != nil {
		return nil, apperrors.NewMalformedCompletionError(err)
	}
	if strings.TrimSpace(suggestion.Analysis) == "" {
		return nil, apperrors.NewMalformedCompletionError(fmt.Errorf("completion output has no analysis text"))
	}

	workout.AIAnalysis = suggestion.Analysis
	if err := s.workouts.Save(ctx, workout); err != nil {
		// The suggestion is still usable; losing the annotation is logged,
		// not fatal.
		logger.Errorf("Failed to store analysis on workout %d: %v", workout.ID, err)
	}

	return &suggestion, nil
}

// buildPayload serializes the workout and its same-weekday history for the
// prompt.
func (s *ProgressionService) buildPayload(ctx context.Context, workout *domain.Workout) (string, error) {
	type setPayload struct {
		Exercise      string   `json:"exercise"`
		SetNumber     int      `json:"set_number"`
		PlannedWeight *float64 `json:"planned_weight"`
		PlannedReps   string   `json:"planned_reps"`
		ActualWeight  float64  `json:"actual_weight"`
		ActualReps    int      `json:"actual_reps"`
		RPE           *float64 `json:"rpe"`
		Completed     bool     `json:"completed"`
	}
	type workoutPayload struct {
		Date        string       `json:"date"`
		TotalVolume float64      `json:"total_volume"`
		RPE         *float64     `json:"rpe"`
		Feedback    string       `json:"feedback,omitempty"`
		Sets        []setPayload `json:"sets,omitempty"`
	}

	collectSets := func(workoutID uint) ([]setPayload, error) {
		exercises, err := s.workouts.ExercisesByWorkout(ctx, workoutID)
		if err != nil {
			return nil, apperrors.NewDatabaseError(err)
		}
		names := make(map[uint]string, len(exercises))
		for _, ex := range exercises {
			names[ex.ID] = ex.Name
		}

		sets, err := s.workouts.SetsByWorkout(ctx, workoutID)
		if err != nil {
			return nil, apperrors.NewDatabaseError(err)
		}
		out := make([]setPayload, 0, len(sets))
		for _, set := range sets {
			out = append(out, setPayload{
				Exercise:      names[set.WorkoutExerciseID],
				SetNumber:     set.SetNumber,
				PlannedWeight: set.PlannedWeight,
				PlannedReps:   set.PlannedReps,
				ActualWeight:  set.ActualWeight,
				ActualReps:    set.ActualReps,
				RPE:           set.RPE,
				Completed:     set.Completed,
			})
		}
		return out, nil
	}

	current := workoutPayload{
		Date:        workout.ScheduledAt.Format("2006-01-02"),
		TotalVolume: workout.TotalVolume,
		RPE:         workout.RPE,
		Feedback:    workout.Feedback,
	}
	var err error
	if current.Sets, err = collectSets(workout.ID); err != nil {
		return "", err
	}

	previous, err := s.workouts.ListCompletedOnWeekday(ctx, workout.UserID, workout.ScheduledAt.Weekday(), historyDepth+1)
	if err != nil {
		return "", apperrors.NewDatabaseError(err)
	}
	history := make([]workoutPayload, 0, historyDepth)
	for _, prev := range previous {
		if prev.ID == workout.ID {
			continue
		}
		if len(history) == historyDepth {
			break
		}
		history = append(history, workoutPayload{
			Date:        prev.ScheduledAt.Format("2006-01-02"),
			TotalVolume: prev.TotalVolume,
			RPE:         prev.RPE,
			Feedback:    prev.Feedback,
		})
	}

	payload, err := json.Marshal(struct {
		Workout workoutPayload   `json:"completed_workout"`
		History []workoutPayload `json:"recent_same_weekday"`
	}{current, history})
	if err != nil {
		return "", fmt.Errorf("failed to marshal analyzer payload: %w", err)
	}
	return string(payload), nil
}
