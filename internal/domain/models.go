package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleUnset   = ""
	RoleClient  = "client"
	RoleTrainer = "trainer"
)

// TrainerClient statuses
const (
	ClientStatusActive   = "active"
	ClientStatusArchived = "archived"
)

// Workout statuses
const (
	WorkoutStatusScheduled  = "scheduled"
	WorkoutStatusInProgress = "in_progress"
	WorkoutStatusCompleted  = "completed"
)

// FreeTierClientLimit caps the roster size on the free plan.
const FreeTierClientLimit = 3

// User represents a telegram identity using the bot. Created on first inbound
// update, never deleted. State holds the current conversation step.
type User struct {
	gorm.Model
	TelegramID int64 `gorm:"uniqueIndex"`
	Username   string
	FirstName  string
	LastName   string
	Role       string `gorm:"default:''"`
	State      string `gorm:"default:'none'"`
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return fmt.Sprintf("id%d", u.TelegramID)
}

// TrainerClient is a trainer's roster entry. LinkedUserID is set once the
// client's real telegram identity is known; a linked client gets read access
// to its own program and progress. Removal archives the row, it is never
// deleted.
type TrainerClient struct {
	gorm.Model
	TrainerID      uint   `gorm:"index;uniqueIndex:idx_trainer_client_username"`
	ClientName     string
	// Without leading @. Empty when the trainer skipped the username, so
	// the uniqueness is partial: any number of skipped entries may coexist.
	ClientUsername string `gorm:"uniqueIndex:idx_trainer_client_username,where:client_username <> ''"`
	LinkedUserID   *uint
	Status         string `gorm:"default:'active'"`
	Goal           string
	Notes          string
}

// ProgramExercise is one exercise inside a program day. Reps is kept as a
// literal string so ranges like "8-10" survive round-trips. A nil Weight
// means bodyweight.
type ProgramExercise struct {
	Name       string   `json:"name"`
	Sets       int      `json:"sets"`
	Reps       string   `json:"reps"`
	Weight     *float64 `json:"weight"`
	Rest       string   `json:"rest,omitempty"`
	WarmupSets int      `json:"warmup_sets,omitempty"`
	TopSingle  bool     `json:"top_single,omitempty"`
	RPERange   string   `json:"rpe_range,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// ProgramDay is one named training day with its ordered exercises.
type ProgramDay struct {
	Name      string            `json:"name"`
	Exercises []ProgramExercise `json:"exercises"`
}

// ProgramDays is stored as a single jsonb column.
type ProgramDays []ProgramDay

func (d ProgramDays) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *ProgramDays) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ProgramDays", value)
	}
	return json.Unmarshal(data, d)
}

// Program is a structured training plan. At most one active program per
// client, enforced by deactivating prior rows before inserting the new one.
type Program struct {
	gorm.Model
	ClientID    uint `gorm:"index"`
	Name        string
	DaysPerWeek int
	Days        ProgramDays `gorm:"type:jsonb"`
	Active      bool        `gorm:"default:true;index"`
}

// Workout is one scheduled or completed training session. AIAnalysis keeps
// the raw progression-analysis text as an auditable annotation.
type Workout struct {
	gorm.Model
	UserID      uint `gorm:"index"`
	ProgramID   *uint
	ScheduledAt time.Time
	Status      string `gorm:"default:'scheduled'"`
	TotalVolume float64
	RPE         *float64
	Feedback    string
	AIAnalysis  string
}

// WorkoutExercise is one planned exercise inside a session.
type WorkoutExercise struct {
	gorm.Model
	WorkoutID     uint `gorm:"index"`
	ExerciseID    *uint
	Name          string
	Sequence      int
	PlannedSets   int
	PlannedReps   string
	PlannedWeight *float64
}

// WorkoutSet records one set's planned versus actual execution. Volume only
// counts sets with Completed set.
type WorkoutSet struct {
	gorm.Model
	WorkoutExerciseID uint `gorm:"uniqueIndex:idx_exercise_set_number"`
	SetNumber         int  `gorm:"uniqueIndex:idx_exercise_set_number"`
	PlannedWeight     *float64
	PlannedReps       string
	ActualWeight      float64
	ActualReps        int
	RPE               *float64
	Completed         bool
}

// Exercise is an entry in the public exercise library.
type Exercise struct {
	gorm.Model
	Name        string `gorm:"index"`
	MuscleGroup string
	Description string
	VideoURL    string
}
