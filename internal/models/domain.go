package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutStatus is the lifecycle state of a workout. The transition is
// one-way: in_progress → completed.
type WorkoutStatus string

const (
	WorkoutInProgress WorkoutStatus = "in_progress"
	WorkoutCompleted  WorkoutStatus = "completed"
)

// PRCategory identifies one of the six personal record categories.
type PRCategory string

const (
	PROneRepMax PRCategory = "1RM"
	PRThreeRM   PRCategory = "3RM"
	PRFiveRM    PRCategory = "5RM"
	PRTenRM     PRCategory = "10RM"
	PRTopSet    PRCategory = "TopSet"
	PRVolume    PRCategory = "Volume"
)

// RepTargets are the rep counts checked for rep-specific PR categories.
// A set qualifies for a target when its rep count is within ±2 of it.
var RepTargets = map[PRCategory]int{
	PRThreeRM: 3,
	PRFiveRM:  5,
	PRTenRM:   10,
}

// ExerciseRow is a catalog entry. Read-only from the core's perspective.
type ExerciseRow struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	PrimaryMuscle string     `json:"primary_muscle"`
	Equipment     string     `json:"equipment"`
	IsBodyweight  bool       `json:"is_bodyweight"`
	IsFavorite    bool       `json:"is_favorite"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// WorkoutRow is one training session. Totals are cached aggregates,
// recomputed after any set mutation and finalized on completion.
type WorkoutRow struct {
	ID          uuid.UUID     `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	EndedAt     *time.Time    `json:"ended_at,omitempty"`
	DurationSec *int64        `json:"duration_sec,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	TotalVolume float64       `json:"total_volume"`
	TotalSets   int           `json:"total_sets"`
	TotalReps   int           `json:"total_reps"`
	Status      WorkoutStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// WorkoutExerciseRow is an exercise instance within one workout. It owns
// its sets exclusively; deleting the row cascades to them.
type WorkoutExerciseRow struct {
	ID         int64     `json:"id"`
	WorkoutID  uuid.UUID `json:"workout_id"`
	ExerciseID int64     `json:"exercise_id"`
	OrderIndex int       `json:"order_index"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SetRow is one performed set. Only sets with Completed true and Warmup
// false count toward PR calculations; workout volume totals additionally
// include completed warmups.
type SetRow struct {
	ID                int64     `json:"id"`
	WorkoutExerciseID int64     `json:"workout_exercise_id"`
	SetNumber         int       `json:"set_number"`
	Reps              int       `json:"reps"`
	Weight            float64   `json:"weight"`
	RPE               *int      `json:"rpe,omitempty"`
	Warmup            bool      `json:"is_warmup"`
	Completed         bool      `json:"is_completed"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// PersonalRecordRow is an achievement record. Rows are immutable once
// created; the current best for an (exercise, category) pair is derived
// by query, and multiple rows per pair form a history.
type PersonalRecordRow struct {
	ID         int64      `json:"id"`
	ExerciseID int64      `json:"exercise_id"`
	Category   PRCategory `json:"category"`
	Value      float64    `json:"value"`
	Reps       *int       `json:"reps,omitempty"`
	WorkoutID  uuid.UUID  `json:"workout_id"`
	AchievedAt time.Time  `json:"achieved_at"`
}
