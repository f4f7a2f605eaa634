package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/ironlog/internal/models"
)

const setColumns = `id, workout_exercise_id, set_number, reps, weight, rpe,
	 is_warmup, is_completed, notes, created_at`

// AddSet appends a set to a workout exercise at the next set number. New
// sets start uncompleted; they only count once the lifter checks them off.
func (db *DB) AddSet(ctx context.Context, workoutExerciseID int64, reps int, weight float64, rpe *int, warmup bool, notes string) (*models.SetRow, error) {
	row := db.Pool.QueryRow(ctx,
		`INSERT INTO sets (workout_exercise_id, set_number, reps, weight, rpe, is_warmup, notes)
		 VALUES ($1,
		         (SELECT COALESCE(MAX(set_number), 0) + 1 FROM sets WHERE workout_exercise_id = $1),
		         $2, $3, $4, $5, $6)
		 RETURNING `+setColumns,
		workoutExerciseID, reps, weight, rpe, warmup, notes)

	s, err := scanSet(row)
	if err != nil {
		return nil, fmt.Errorf("inserting set: %w", err)
	}
	return s, nil
}

// SetUpdate carries the mutable fields of a set; nil fields are left
// unchanged.
type SetUpdate struct {
	Reps      *int     `json:"reps,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
	RPE       *int     `json:"rpe,omitempty"`
	Warmup    *bool    `json:"is_warmup,omitempty"`
	Completed *bool    `json:"is_completed,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
}

// UpdateSet applies the non-nil fields of the update and returns the new
// row. Callers recalculate the owning workout's totals afterwards.
func (db *DB) UpdateSet(ctx context.Context, id int64, upd SetUpdate) (*models.SetRow, error) {
	row := db.Pool.QueryRow(ctx,
		`UPDATE sets SET
		   reps         = COALESCE($2, reps),
		   weight       = COALESCE($3, weight),
		   rpe          = COALESCE($4, rpe),
		   is_warmup    = COALESCE($5, is_warmup),
		   is_completed = COALESCE($6, is_completed),
		   notes        = COALESCE($7, notes)
		 WHERE id = $1
		 RETURNING `+setColumns,
		id, upd.Reps, upd.Weight, upd.RPE, upd.Warmup, upd.Completed, upd.Notes)

	s, err := scanSet(row)
	if err != nil {
		return nil, fmt.Errorf("updating set %d: %w", id, err)
	}
	return s, nil
}

// DeleteSet removes a set. Callers recalculate the owning workout's totals
// afterwards.
func (db *DB) DeleteSet(ctx context.Context, id int64) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM sets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting set %d: %w", id, err)
	}
	return nil
}

// SetsForWorkoutExercise returns an exercise instance's sets in ascending
// set-number order.
func (db *DB) SetsForWorkoutExercise(ctx context.Context, workoutExerciseID int64) ([]models.SetRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+setColumns+`
		 FROM sets
		 WHERE workout_exercise_id = $1
		 ORDER BY set_number ASC`,
		workoutExerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	var result []models.SetRow
	for rows.Next() {
		var s models.SetRow
		if err := rows.Scan(&s.ID, &s.WorkoutExerciseID, &s.SetNumber, &s.Reps, &s.Weight,
			&s.RPE, &s.Warmup, &s.Completed, &s.Notes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// WorkoutIDForSet resolves the workout owning a set, for total
// recalculation after a set mutation.
func (db *DB) WorkoutIDForSet(ctx context.Context, setID int64) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`SELECT we.workout_id
		 FROM sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 WHERE s.id = $1`,
		setID).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolving workout for set %d: %w", setID, err)
	}
	return id, nil
}

func scanSet(row pgx.Row) (*models.SetRow, error) {
	var s models.SetRow
	err := row.Scan(&s.ID, &s.WorkoutExerciseID, &s.SetNumber, &s.Reps, &s.Weight,
		&s.RPE, &s.Warmup, &s.Completed, &s.Notes, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
