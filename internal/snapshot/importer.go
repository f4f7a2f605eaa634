package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
)

// Store is what the importer needs from storage.
type Store interface {
	UpsertExercise(ctx context.Context, name, primaryMuscle, equipment string, bodyweight bool) (*models.ExerciseRow, error)
	InsertWorkoutFull(ctx context.Context, w models.WorkoutRow) (bool, error)
	InsertWorkoutExerciseAt(ctx context.Context, workoutID uuid.UUID, exerciseID int64, orderIndex int, notes string) (int64, error)
	InsertSetFull(ctx context.Context, workoutExerciseID int64, s models.SetRow) error
	RecalculateTotals(ctx context.Context, workoutID uuid.UUID) error
	HasPR(ctx context.Context, r models.PersonalRecordRow) (bool, error)
	InsertPRFull(ctx context.Context, r models.PersonalRecordRow) error
	PutSetting(ctx context.Context, key, value string) error
}

// Result summarizes one applied snapshot.
type Result struct {
	WorkoutsImported int `json:"workouts_imported"`
	WorkoutsSkipped  int `json:"workouts_skipped"`
	SetsImported     int `json:"sets_imported"`
	RecordsImported  int `json:"records_imported"`
	SettingsApplied  int `json:"settings_applied"`
}

// Importer applies snapshot payloads to storage.
type Importer struct {
	store Store
	log   *slog.Logger
}

// NewImporter creates an Importer over the given store.
func NewImporter(store Store, log *slog.Logger) *Importer {
	return &Importer{store: store, log: log}
}

// Apply validates and applies a payload. Workouts whose ID already exists
// are skipped whole; cached totals are recomputed for every workout that
// was inserted. Records are matched against existing rows so re-applying
// the same snapshot adds nothing.
func (im *Importer) Apply(ctx context.Context, p *Payload) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validating snapshot: %w", err)
	}

	res := &Result{}
	exerciseIDs := make(map[string]int64)

	for _, w := range p.Workouts {
		inserted, err := im.store.InsertWorkoutFull(ctx, models.WorkoutRow{
			ID:          w.ID,
			StartedAt:   w.StartedAt,
			EndedAt:     w.EndedAt,
			DurationSec: w.DurationSec,
			Notes:       w.Notes,
			Status:      models.WorkoutStatus(w.Status),
		})
		if err != nil {
			return res, err
		}
		if !inserted {
			res.WorkoutsSkipped++
			continue
		}
		res.WorkoutsImported++

		for _, e := range w.Exercises {
			exerciseID, err := im.resolveExercise(ctx, exerciseIDs, e)
			if err != nil {
				return res, err
			}
			weID, err := im.store.InsertWorkoutExerciseAt(ctx, w.ID, exerciseID, e.OrderIndex, e.Notes)
			if err != nil {
				return res, err
			}
			for _, s := range e.Sets {
				err := im.store.InsertSetFull(ctx, weID, models.SetRow{
					SetNumber: s.SetNumber,
					Reps:      s.Reps,
					Weight:    s.Weight,
					RPE:       s.RPE,
					Warmup:    s.Warmup,
					Completed: s.Completed,
					Notes:     s.Notes,
					CreatedAt: s.CreatedAt,
				})
				if err != nil {
					return res, err
				}
				res.SetsImported++
			}
		}

		if err := im.store.RecalculateTotals(ctx, w.ID); err != nil {
			return res, err
		}
	}

	for _, r := range p.Records {
		exerciseID, err := im.resolveExercise(ctx, exerciseIDs, Exercise{Name: r.ExerciseName})
		if err != nil {
			return res, err
		}
		row := models.PersonalRecordRow{
			ExerciseID: exerciseID,
			Category:   models.PRCategory(r.Category),
			Value:      r.Value,
			Reps:       r.Reps,
			WorkoutID:  r.WorkoutID,
			AchievedAt: r.AchievedAt,
		}
		exists, err := im.store.HasPR(ctx, row)
		if err != nil {
			return res, err
		}
		if exists {
			continue
		}
		if err := im.store.InsertPRFull(ctx, row); err != nil {
			return res, err
		}
		res.RecordsImported++
	}

	for key, value := range p.Settings {
		if err := im.store.PutSetting(ctx, key, value); err != nil {
			return res, err
		}
		res.SettingsApplied++
	}

	im.log.Info("snapshot applied",
		"workouts", res.WorkoutsImported,
		"skipped", res.WorkoutsSkipped,
		"sets", res.SetsImported,
		"records", res.RecordsImported,
	)
	return res, nil
}

// resolveExercise maps an exercise name to its catalog id, upserting on
// first sight and caching for the rest of the apply.
func (im *Importer) resolveExercise(ctx context.Context, cache map[string]int64, e Exercise) (int64, error) {
	if id, ok := cache[e.Name]; ok {
		return id, nil
	}
	row, err := im.store.UpsertExercise(ctx, e.Name, e.PrimaryMuscle, e.Equipment, e.Bodyweight)
	if err != nil {
		return 0, err
	}
	cache[e.Name] = row.ID
	return row.ID, nil
}
