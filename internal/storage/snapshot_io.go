package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
)

// InsertWorkoutFull inserts a workout row with all fields as given, for
// snapshot imports. Returns false when the ID already exists.
func (db *DB) InsertWorkoutFull(ctx context.Context, w models.WorkoutRow) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO workouts (id, started_at, ended_at, duration_sec, notes,
		 total_volume, total_sets, total_reps, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		w.ID, w.StartedAt, w.EndedAt, w.DurationSec, w.Notes,
		w.TotalVolume, w.TotalSets, w.TotalReps, w.Status)
	if err != nil {
		return false, fmt.Errorf("inserting workout %s: %w", w.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// InsertWorkoutExerciseAt inserts an exercise instance at an explicit
// order index, for snapshot imports. Returns the new ID.
func (db *DB) InsertWorkoutExerciseAt(ctx context.Context, workoutID uuid.UUID, exerciseID int64, orderIndex int, notes string) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO workout_exercises (workout_id, exercise_id, order_index, notes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		workoutID, exerciseID, orderIndex, notes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting workout exercise: %w", err)
	}
	return id, nil
}

// InsertSetFull inserts a set with all fields as given, for snapshot
// imports.
func (db *DB) InsertSetFull(ctx context.Context, workoutExerciseID int64, s models.SetRow) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO sets (workout_exercise_id, set_number, reps, weight, rpe,
		 is_warmup, is_completed, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))`,
		workoutExerciseID, s.SetNumber, s.Reps, s.Weight, s.RPE,
		s.Warmup, s.Completed, s.Notes, nilIfZeroTime(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting set: %w", err)
	}
	return nil
}

// HasPR reports whether an identical record row already exists, so
// re-importing a snapshot does not duplicate history.
func (db *DB) HasPR(ctx context.Context, r models.PersonalRecordRow) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM personal_records
		   WHERE exercise_id = $1 AND category = $2 AND value = $3
		     AND workout_id = $4 AND achieved_at = $5
		 )`,
		r.ExerciseID, r.Category, r.Value, r.WorkoutID, r.AchievedAt).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking record existence: %w", err)
	}
	return exists, nil
}

// InsertPRFull inserts a record row with its original achieved-at
// timestamp, for snapshot imports.
func (db *DB) InsertPRFull(ctx context.Context, r models.PersonalRecordRow) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO personal_records (exercise_id, category, value, reps, workout_id, achieved_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ExerciseID, r.Category, r.Value, r.Reps, r.WorkoutID, r.AchievedAt)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

func nilIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
