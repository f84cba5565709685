package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/fittracker/fittracker-bot/internal/errors"

	"github.com/fittracker/fittracker-bot/internal/domain"
	"github.com/fittracker/fittracker-bot/internal/repository"
	"gorm.io/gorm"
)

const programSystemPrompt = `You are an experienced strength coach. Convert a free-text workout program written by a trainer (usually in Russian) into structured JSON.

TASK:
1. Identify the program name, the number of training days per week and the ordered training days
2. For every day list the exercises in order with sets, reps, working weight, rest and notes
3. Return ONLY a JSON object, nothing else

PARSING CONVENTIONS:
- A token of the form "<weight>x<reps>x<sets>" (separators x, х or *) decomposes in exactly that order: "80x8x3" means weight 80, reps "8", 3 sets
- A token without a weight component (bodyweight work, e.g. "x8x3" or "8x3") must produce "weight": null
- A rep range written "a-b" (e.g. "8-10") must be preserved as the literal string, never averaged or evaluated
- Warm-up sets, a top-end single and an RPE target range are optional; include them only when the text mentions them
- Keep exercise names as the trainer wrote them

CRITICAL JSON FORMAT REQUIREMENTS:
- Your response MUST be a valid JSON object
- Do not include any markdown formatting or explanatory text before or after the JSON
- The JSON must have these exact fields:
  {
    "name": "program name",
    "days_per_week": 3,
    "days": [
      {
        "name": "day name",
        "exercises": [
          {
            "name": "exercise name",
            "sets": 3,
            "reps": "8-10",
            "weight": 80.0,
            "rest": "2 min",
            "warmup_sets": 2,
            "top_single": false,
            "rpe_range": "7-8",
            "notes": ""
          }
        ]
      }
    ]
  }`

// parsedProgram is the JSON shape expected from the completion.
type parsedProgram struct {
	Name        string             `json:"name"`
	DaysPerWeek int                `json:"days_per_week"`
	Days        domain.ProgramDays `json:"days"`
}

// ProgramService turns free-text workout descriptions into structured
// programs and owns program persistence.
type ProgramService struct {
	ai       Completer
	programs repository.ProgramRepository
}

func NewProgramService(ai Completer, programs repository.ProgramRepository) *ProgramService {
	return &ProgramService{
		ai:       ai,
		programs: programs,
	}
}

// Parse converts free text into an unsaved program. The completion output is
// untrusted: it is fence-stripped, JSON-decoded and schema-validated, and any
// violation surfaces as a malformed-completion error with nothing persisted.
// Parse failures are never retried.
func (s *ProgramService) Parse(ctx context.Context, text string) (*domain.Program, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("program text is empty")
	}

	raw, err := s.ai.Complete(ctx, programSystemPrompt, text)
	if err != nil {
		return nil, apperrors.NewExternalAPIError(err, "completion")
	}

	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return nil, apperrors.NewMalformedCompletionError(fmt.Errorf("no JSON object in completion output"))
	}

	var parsed parsedProgram
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, apperrors.NewMalformedCompletionError(err)
	}

	program := &domain.Program{
		Name:        strings.TrimSpace(parsed.Name),
		DaysPerWeek: parsed.DaysPerWeek,
		Days:        parsed.Days,
		Active:      true,
	}
	normalizeProgram(program)
	if err := validateProgram(program); err != nil {
		return nil, apperrors.NewMalformedCompletionError(err)
	}

	return program, nil
}

// SaveProgram activates a program for a client: prior active rows are
// deactivated, then the new row is inserted active. The two steps are not
// atomic; a crash in between leaves the client with zero active programs,
// which re-sending the program recovers.
func (s *ProgramService) SaveProgram(ctx context.Context, clientID uint, program *domain.Program) (*domain.Program, error) {
	if err := s.programs.DeactivateByClient(ctx, clientID); err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	program.ID = 0
	program.ClientID = clientID
	program.Active = true
	if err := s.programs.Create(ctx, program); err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	return program, nil
}

// ParseAndSave is the one-shot path used by the REST endpoint.
func (s *ProgramService) ParseAndSave(ctx context.Context, clientID uint, text string) (*domain.Program, error) {
	program, err := s.Parse(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.SaveProgram(ctx, clientID, program)
}

// GetActiveProgram returns the single program currently in effect.
func (s *ProgramService) GetActiveProgram(ctx context.Context, clientID uint) (*domain.Program, error) {
	program, err := s.programs.GetActiveByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProgramNotFound
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return program, nil
}

// normalizeProgram applies the deterministic token conventions on the way
// out: a combined load token left in the reps field is decomposed into
// weight, reps and sets.
func normalizeProgram(program *domain.Program) {
	for di := range program.Days {
		for ei := range program.Days[di].Exercises {
			ex := &program.Days[di].Exercises[ei]
			ex.Name = strings.TrimSpace(ex.Name)
			ex.Reps = strings.TrimSpace(ex.Reps)

			if weight, reps, sets, err := ParseLoadToken(ex.Reps); err == nil {
				if ex.Weight == nil {
					ex.Weight = weight
				}
				ex.Reps = reps
				if ex.Sets == 0 {
					ex.Sets = sets
				}
			}
		}
	}
	if program.DaysPerWeek == 0 {
		program.DaysPerWeek = len(program.Days)
	}
}

// validateProgram enforces the schema contract on completion output.
func validateProgram(program *domain.Program) error {
	if program.Name == "" {
		return fmt.Errorf("program name is empty")
	}
	if program.DaysPerWeek < 1 || program.DaysPerWeek > 7 {
		return fmt.Errorf("days_per_week %d out of range", program.DaysPerWeek)
	}
	if len(program.Days) == 0 {
		return fmt.Errorf("program has no days")
	}
	for di, day := range program.Days {
		if len(day.Exercises) == 0 {
			return fmt.Errorf("day %d has no exercises", di+1)
		}
		for ei, ex := range day.Exercises {
			if ex.Name == "" {
				return fmt.Errorf("day %d exercise %d has no name", di+1, ei+1)
			}
			if ex.Sets < 1 {
				return fmt.Errorf("day %d exercise %q has no sets", di+1, ex.Name)
			}
			if ex.Weight != nil && *ex.Weight < 0 {
				return fmt.Errorf("day %d exercise %q has negative weight", di+1, ex.Name)
			}
		}
	}
	return nil
}

var loadTokenSeparators = strings.NewReplacer("×", "x", "х", "x", "*", "x", "Х", "x", "X", "x")

// ParseLoadToken decomposes a "<weight>x<reps>x<sets>" token in that fixed
// order: "80x8x3" → (80, "8", 3). A two-part token ("8x3") or an empty first
// component ("x8x3") is bodyweight work and yields a nil weight. Rep ranges
// ("8-10") are preserved as the literal string.
func ParseLoadToken(token string) (weight *float64, reps string, sets int, err error) {
	normalized := loadTokenSeparators.Replace(strings.TrimSpace(token))
	parts := strings.Split(normalized, "x")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 3:
		reps = parts[1]
		sets, err = strconv.Atoi(parts[2])
		if err != nil {
			return nil, "", 0, fmt.Errorf("invalid sets component %q: %w", parts[2], err)
		}
		if parts[0] != "" {
			w, werr := strconv.ParseFloat(strings.ReplaceAll(parts[0], ",", "."), 64)
			if werr != nil {
				return nil, "", 0, fmt.Errorf("invalid weight component %q: %w", parts[0], werr)
			}
			weight = &w
		}
	case 2:
		reps = parts[0]
		sets, err = strconv.Atoi(parts[1])
		if err != nil {
			return nil, "", 0, fmt.Errorf("invalid sets component %q: %w", parts[1], err)
		}
	default:
		return nil, "", 0, fmt.Errorf("token %q is not a load token", token)
	}

	if reps == "" {
		return nil, "", 0, fmt.Errorf("token %q has no reps component", token)
	}
	return weight, reps, sets, nil
}
