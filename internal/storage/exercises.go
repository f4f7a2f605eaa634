package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/progress"
)

const exerciseColumns = `id, name, primary_muscle, equipment, is_bodyweight,
	 is_favorite, last_used_at, created_at`

// ListExercises returns the catalog ordered by name.
func (db *DB) ListExercises(ctx context.Context) ([]models.ExerciseRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseRow
	for rows.Next() {
		var e models.ExerciseRow
		if err := scanExercise(rows, &e); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetExercise retrieves a catalog entry by ID.
func (db *DB) GetExercise(ctx context.Context, id int64) (*models.ExerciseRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id)
	var e models.ExerciseRow
	if err := scanExercise(row, &e); err != nil {
		return nil, fmt.Errorf("querying exercise %d: %w", id, err)
	}
	return &e, nil
}

// UpsertExercise inserts a catalog entry by name or returns the existing
// one. Used by snapshot imports.
func (db *DB) UpsertExercise(ctx context.Context, name, primaryMuscle, equipment string, bodyweight bool) (*models.ExerciseRow, error) {
	row := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (name, primary_muscle, equipment, is_bodyweight)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING `+exerciseColumns,
		name, primaryMuscle, equipment, bodyweight)
	var e models.ExerciseRow
	if err := scanExercise(row, &e); err != nil {
		return nil, fmt.Errorf("upserting exercise %q: %w", name, err)
	}
	return &e, nil
}

// ExerciseName resolves an exercise id to its display name, or "" when the
// exercise is unknown. Part of the progress DataSource contract.
func (db *DB) ExerciseName(ctx context.Context, exerciseID int64) (string, error) {
	var name string
	err := db.Pool.QueryRow(ctx,
		`SELECT name FROM exercises WHERE id = $1`, exerciseID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving exercise name %d: %w", exerciseID, err)
	}
	return name, nil
}

// TopExercisesByUsage ranks exercises by the number of distinct workouts
// they appear in, then by total set count. The ranking is computed here;
// the progress aggregator forwards it unchanged.
func (db *DB) TopExercisesByUsage(ctx context.Context, limit int) ([]progress.TopExerciseItem, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT e.id, e.name, e.primary_muscle, e.equipment, e.is_bodyweight,
		        e.is_favorite, e.last_used_at, e.created_at,
		        COUNT(DISTINCT we.workout_id)::int AS workout_count,
		        COUNT(s.id)::int AS set_count
		 FROM exercises e
		 JOIN workout_exercises we ON we.exercise_id = e.id
		 LEFT JOIN sets s ON s.workout_exercise_id = we.id
		 GROUP BY e.id
		 ORDER BY workout_count DESC, set_count DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying top exercises: %w", err)
	}
	defer rows.Close()

	var result []progress.TopExerciseItem
	for rows.Next() {
		var item progress.TopExerciseItem
		e := &item.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.PrimaryMuscle, &e.Equipment, &e.IsBodyweight,
			&e.IsFavorite, &e.LastUsedAt, &e.CreatedAt, &item.WorkoutCount, &item.SetCount); err != nil {
			return nil, fmt.Errorf("scanning top exercise: %w", err)
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// TouchExerciseLastUsed stamps last_used_at when an exercise is added to a
// workout.
func (db *DB) TouchExerciseLastUsed(ctx context.Context, id int64) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE exercises SET last_used_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touching exercise %d: %w", id, err)
	}
	return nil
}

func scanExercise(row pgx.Row, e *models.ExerciseRow) error {
	if err := row.Scan(&e.ID, &e.Name, &e.PrimaryMuscle, &e.Equipment, &e.IsBodyweight,
		&e.IsFavorite, &e.LastUsedAt, &e.CreatedAt); err != nil {
		return fmt.Errorf("scanning exercise: %w", err)
	}
	return nil
}
