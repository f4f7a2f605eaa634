// Package pr detects newly-achieved personal records when a workout is
// completed. It compares a workout's qualifying sets against the best
// historical record per (exercise, category) and persists every new record
// through the Store.
package pr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/metrics"
	"github.com/meltforce/ironlog/internal/models"
)

// Store is the persistence contract the engine needs. The storage layer
// implements it; tests use an in-memory fake.
type Store interface {
	// BestPR returns the highest-value record for the pair, or nil.
	BestPR(ctx context.Context, exerciseID int64, category models.PRCategory) (*models.PersonalRecordRow, error)
	// MostRecentPR returns the latest-achieved record for the pair, or nil.
	// Only the Volume category compares against this.
	MostRecentPR(ctx context.Context, exerciseID int64, category models.PRCategory) (*models.PersonalRecordRow, error)
	// SavePR persists a new immutable record row and returns it.
	SavePR(ctx context.Context, workoutID uuid.UUID, exerciseID int64, category models.PRCategory, value float64, reps *int) (*models.PersonalRecordRow, error)
}

// ExerciseSets is one workout-exercise entry with its sets, in ascending
// set-number order.
type ExerciseSets struct {
	ExerciseID int64
	Sets       []models.SetRow
}

// Engine evaluates completed workouts for new records. It holds no state
// between calls; concurrent evaluations of the same workout must be
// serialized by the caller.
type Engine struct {
	store Store
	log   *slog.Logger
}

// NewEngine creates an Engine backed by the given store.
func NewEngine(store Store, log *slog.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// candidate is one potential record. The category-specific constructors
// below keep the value/reps combinations that are valid per category
// explicit instead of spreading nullable fields around.
type candidate struct {
	category models.PRCategory
	value    float64
	reps     *int
}

func oneRepMaxCandidate(value float64) candidate {
	return candidate{category: models.PROneRepMax, value: value}
}

func topSetCandidate(weight float64, reps int) candidate {
	return candidate{category: models.PRTopSet, value: weight, reps: &reps}
}

func volumeCandidate(value float64) candidate {
	return candidate{category: models.PRVolume, value: value}
}

// repTargetCandidate records the Epley estimate under the TARGET rep
// count, not the actual reps of the qualifying set.
func repTargetCandidate(category models.PRCategory, estimate float64, target int) candidate {
	return candidate{category: category, value: estimate, reps: &target}
}

// EvaluateWorkout checks every exercise of a finished workout for new
// records and persists each one it finds. Each category check is
// independent: a storage failure aborts the evaluation and is returned to
// the caller, but records already written stay written. Running the same
// evaluation twice yields no new records, except that the Volume category
// compares against the most recent rather than the highest record and can
// re-trigger.
func (e *Engine) EvaluateWorkout(ctx context.Context, workoutID uuid.UUID, exercises []ExerciseSets) ([]models.PersonalRecordRow, error) {
	var newPRs []models.PersonalRecordRow

	for _, entry := range exercises {
		working := qualifyingSets(entry.Sets)
		if len(working) == 0 {
			continue
		}

		for _, cand := range e.candidates(working) {
			beaten, err := e.beatsPrevious(ctx, entry.ExerciseID, cand)
			if err != nil {
				return newPRs, err
			}
			if !beaten {
				continue
			}

			row, err := e.store.SavePR(ctx, workoutID, entry.ExerciseID, cand.category, cand.value, cand.reps)
			if err != nil {
				return newPRs, fmt.Errorf("saving %s record for exercise %d: %w", cand.category, entry.ExerciseID, err)
			}
			e.log.Info("new personal record",
				"exercise_id", entry.ExerciseID,
				"category", cand.category,
				"value", cand.value,
			)
			newPRs = append(newPRs, *row)
		}
	}

	return newPRs, nil
}

// candidates derives every potential record from the qualifying sets.
func (e *Engine) candidates(working []models.SetRow) []candidate {
	var cands []candidate

	if best := metrics.BestEstimatedOneRepMax(working); best > 0 {
		cands = append(cands, oneRepMaxCandidate(best))
	}

	if top := metrics.TopSet(working); top != nil {
		cands = append(cands, topSetCandidate(top.Weight, top.Reps))
	}

	// Volume candidate covers this exercise's qualifying sets only. The
	// workout-wide cached total also counts completed warmups; this one
	// does not.
	if vol := metrics.TotalVolume(working); vol > 0 {
		cands = append(cands, volumeCandidate(vol))
	}

	for _, category := range []models.PRCategory{models.PRThreeRM, models.PRFiveRM, models.PRTenRM} {
		target := models.RepTargets[category]
		if best := bestSetForReps(working, target); best != nil {
			est := metrics.EstimatedOneRepMax(best.Weight, best.Reps)
			cands = append(cands, repTargetCandidate(category, est, target))
		}
	}

	return cands
}

// beatsPrevious compares a candidate against the prior record for its
// category. Volume uses the most recently achieved record rather than the
// highest ever, so a volume record can regress and later re-trigger even
// when a higher historical value exists. The other five categories use
// highest-ever semantics.
func (e *Engine) beatsPrevious(ctx context.Context, exerciseID int64, cand candidate) (bool, error) {
	var prev *models.PersonalRecordRow
	var err error

	if cand.category == models.PRVolume {
		prev, err = e.store.MostRecentPR(ctx, exerciseID, cand.category)
	} else {
		prev, err = e.store.BestPR(ctx, exerciseID, cand.category)
	}
	if err != nil {
		return false, fmt.Errorf("looking up previous %s record for exercise %d: %w", cand.category, exerciseID, err)
	}

	return prev == nil || cand.value > prev.Value, nil
}

// qualifyingSets filters to completed, non-warmup sets.
func qualifyingSets(sets []models.SetRow) []models.SetRow {
	var out []models.SetRow
	for _, s := range sets {
		if s.Completed && !s.Warmup {
			out = append(out, s)
		}
	}
	return out
}

// bestSetForReps returns the heaviest set whose rep count is within ±2 of
// the target, or nil if none qualifies. Ties go to the earlier set.
func bestSetForReps(sets []models.SetRow, target int) *models.SetRow {
	var best *models.SetRow
	for i := range sets {
		s := &sets[i]
		if s.Reps < target-2 || s.Reps > target+2 {
			continue
		}
		if best == nil || s.Weight > best.Weight {
			best = s
		}
	}
	return best
}
