// Package snapshot defines the JSON export format the mobile app produces
// and applies such snapshots to storage. Imports are idempotent: workouts
// already present (by ID) are skipped, and record rows are deduplicated
// against existing history.
package snapshot

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
)

// Payload is one full app export.
type Payload struct {
	ExportedAt time.Time         `json:"exported_at"`
	Settings   map[string]string `json:"settings,omitempty"`
	Workouts   []Workout         `json:"workouts"`
	Records    []Record          `json:"personal_records,omitempty"`
}

// Workout is one training session with its nested exercises and sets.
type Workout struct {
	ID          uuid.UUID  `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	DurationSec *int64     `json:"duration_sec,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Status      string     `json:"status"`
	Exercises   []Exercise `json:"exercises"`
}

// Exercise references the catalog by name so snapshots survive id
// remapping between devices.
type Exercise struct {
	Name          string `json:"name"`
	PrimaryMuscle string `json:"primary_muscle,omitempty"`
	Equipment     string `json:"equipment,omitempty"`
	Bodyweight    bool   `json:"is_bodyweight,omitempty"`
	OrderIndex    int    `json:"order_index"`
	Notes         string `json:"notes,omitempty"`
	Sets          []Set  `json:"sets"`
}

// Set is one performed set.
type Set struct {
	SetNumber int       `json:"set_number"`
	Reps      int       `json:"reps"`
	Weight    float64   `json:"weight"`
	RPE       *int      `json:"rpe,omitempty"`
	Warmup    bool      `json:"is_warmup,omitempty"`
	Completed bool      `json:"is_completed"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Record is one personal record row, referencing its exercise by name.
type Record struct {
	ExerciseName string    `json:"exercise_name"`
	Category     string    `json:"category"`
	Value        float64   `json:"value"`
	Reps         *int      `json:"reps,omitempty"`
	WorkoutID    uuid.UUID `json:"workout_id"`
	AchievedAt   time.Time `json:"achieved_at"`
}

// Validate checks the payload for shapes the importer cannot apply.
func (p *Payload) Validate() error {
	for i, w := range p.Workouts {
		if w.ID == uuid.Nil {
			return fmt.Errorf("workout %d: missing id", i)
		}
		if w.StartedAt.IsZero() {
			return fmt.Errorf("workout %s: missing started_at", w.ID)
		}
		switch models.WorkoutStatus(w.Status) {
		case models.WorkoutInProgress, models.WorkoutCompleted:
		default:
			return fmt.Errorf("workout %s: unknown status %q", w.ID, w.Status)
		}
		for j, e := range w.Exercises {
			if e.Name == "" {
				return fmt.Errorf("workout %s exercise %d: missing name", w.ID, j)
			}
		}
	}
	for i, r := range p.Records {
		if r.ExerciseName == "" {
			return fmt.Errorf("record %d: missing exercise name", i)
		}
		switch models.PRCategory(r.Category) {
		case models.PROneRepMax, models.PRThreeRM, models.PRFiveRM,
			models.PRTenRM, models.PRTopSet, models.PRVolume:
		default:
			return fmt.Errorf("record %d: unknown category %q", i, r.Category)
		}
	}
	return nil
}
