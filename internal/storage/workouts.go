package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/ironlog/internal/models"
)

const workoutColumns = `id, started_at, ended_at, duration_sec, notes,
	 total_volume, total_sets, total_reps, status, created_at, updated_at`

// ErrAlreadyCompleted is returned when completing a workout twice; the
// in_progress → completed transition is one-way.
var ErrAlreadyCompleted = errors.New("workout already completed")

// CreateWorkout starts a new in_progress workout and returns it.
func (db *DB) CreateWorkout(ctx context.Context, startedAt time.Time, notes string) (*models.WorkoutRow, error) {
	row := db.Pool.QueryRow(ctx,
		`INSERT INTO workouts (id, started_at, notes, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+workoutColumns,
		uuid.New(), startedAt, notes, models.WorkoutInProgress)
	w, err := scanWorkout(row)
	if err != nil {
		return nil, fmt.Errorf("inserting workout: %w", err)
	}
	return w, nil
}

// GetWorkout retrieves a single workout by ID.
func (db *DB) GetWorkout(ctx context.Context, id uuid.UUID) (*models.WorkoutRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1`, id)
	w, err := scanWorkout(row)
	if err != nil {
		return nil, fmt.Errorf("querying workout %s: %w", id, err)
	}
	return w, nil
}

// QueryWorkouts retrieves workouts whose start falls in [start, end),
// newest first.
func (db *DB) QueryWorkouts(ctx context.Context, start, end time.Time) ([]models.WorkoutRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+`
		 FROM workouts
		 WHERE started_at >= $1 AND started_at < $2
		 ORDER BY started_at DESC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	return scanWorkoutRows(rows)
}

// CompletedWorkouts returns every completed workout, newest first. This is
// the progress aggregator's primary input.
func (db *DB) CompletedWorkouts(ctx context.Context) ([]models.WorkoutRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+`
		 FROM workouts
		 WHERE status = $1
		 ORDER BY started_at DESC`,
		models.WorkoutCompleted)
	if err != nil {
		return nil, fmt.Errorf("querying completed workouts: %w", err)
	}
	defer rows.Close()

	return scanWorkoutRows(rows)
}

// AddWorkoutExercise appends an exercise instance to a workout at the next
// order index.
func (db *DB) AddWorkoutExercise(ctx context.Context, workoutID uuid.UUID, exerciseID int64, notes string) (*models.WorkoutExerciseRow, error) {
	var we models.WorkoutExerciseRow
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO workout_exercises (workout_id, exercise_id, order_index, notes)
		 VALUES ($1, $2,
		         (SELECT COALESCE(MAX(order_index), -1) + 1 FROM workout_exercises WHERE workout_id = $1),
		         $3)
		 RETURNING id, workout_id, exercise_id, order_index, notes, created_at`,
		workoutID, exerciseID, notes).
		Scan(&we.ID, &we.WorkoutID, &we.ExerciseID, &we.OrderIndex, &we.Notes, &we.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("adding exercise %d to workout %s: %w", exerciseID, workoutID, err)
	}
	return &we, nil
}

// WorkoutExerciseDetail is one exercise instance with its display name and
// its sets in ascending set-number order.
type WorkoutExerciseDetail struct {
	models.WorkoutExerciseRow
	ExerciseName string          `json:"exercise_name"`
	Sets         []models.SetRow `json:"sets"`
}

// WorkoutExercises returns a workout's exercise instances, ordered by
// their position, each with its sets ordered by set number. The stable set
// order keeps top-set tie-breaking deterministic.
func (db *DB) WorkoutExercises(ctx context.Context, workoutID uuid.UUID) ([]WorkoutExerciseDetail, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT we.id, we.workout_id, we.exercise_id, we.order_index, we.notes, we.created_at, e.name
		 FROM workout_exercises we
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE we.workout_id = $1
		 ORDER BY we.order_index ASC`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	defer rows.Close()

	var details []WorkoutExerciseDetail
	for rows.Next() {
		var d WorkoutExerciseDetail
		if err := rows.Scan(&d.ID, &d.WorkoutID, &d.ExerciseID, &d.OrderIndex, &d.Notes, &d.CreatedAt, &d.ExerciseName); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range details {
		sets, err := db.SetsForWorkoutExercise(ctx, details[i].ID)
		if err != nil {
			return nil, err
		}
		details[i].Sets = sets
	}
	return details, nil
}

// RecalculateTotals recomputes a workout's cached totals from its sets.
// Called after every set mutation and again on completion. Completed
// warmup sets count toward these totals, unlike in PR detection.
func (db *DB) RecalculateTotals(ctx context.Context, workoutID uuid.UUID) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE workouts SET
		   total_sets   = t.sets,
		   total_reps   = t.reps,
		   total_volume = t.volume,
		   updated_at   = NOW()
		 FROM (
		   SELECT COUNT(s.id)::int AS sets,
		          COALESCE(SUM(s.reps), 0)::int AS reps,
		          COALESCE(SUM(s.reps * s.weight), 0) AS volume
		   FROM workout_exercises we
		   LEFT JOIN sets s ON s.workout_exercise_id = we.id AND s.is_completed
		   WHERE we.workout_id = $1
		 ) t
		 WHERE workouts.id = $1`,
		workoutID)
	if err != nil {
		return fmt.Errorf("recalculating totals for workout %s: %w", workoutID, err)
	}
	return nil
}

// CompleteWorkout transitions a workout to completed, deriving its
// duration from the start and end timestamps, then finalizes the cached
// totals. Completing an already-completed workout returns
// ErrAlreadyCompleted.
func (db *DB) CompleteWorkout(ctx context.Context, id uuid.UUID, endedAt time.Time) (*models.WorkoutRow, error) {
	row := db.Pool.QueryRow(ctx,
		`UPDATE workouts SET
		   ended_at     = $2,
		   duration_sec = EXTRACT(EPOCH FROM ($2 - started_at))::bigint,
		   status       = $3,
		   updated_at   = NOW()
		 WHERE id = $1 AND status = $4
		 RETURNING `+workoutColumns,
		id, endedAt, models.WorkoutCompleted, models.WorkoutInProgress)

	// The scanned row is discarded: totals are finalized below, so the
	// workout is re-read afterwards.
	_, err := scanWorkout(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either missing or already completed; disambiguate for the caller.
		if _, getErr := db.GetWorkout(ctx, id); getErr == nil {
			return nil, ErrAlreadyCompleted
		}
		return nil, fmt.Errorf("completing workout %s: %w", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("completing workout %s: %w", id, err)
	}

	if err := db.RecalculateTotals(ctx, id); err != nil {
		return nil, err
	}
	return db.GetWorkout(ctx, id)
}

func scanWorkout(row pgx.Row) (*models.WorkoutRow, error) {
	var w models.WorkoutRow
	err := row.Scan(&w.ID, &w.StartedAt, &w.EndedAt, &w.DurationSec, &w.Notes,
		&w.TotalVolume, &w.TotalSets, &w.TotalReps, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func scanWorkoutRows(rows pgx.Rows) ([]models.WorkoutRow, error) {
	var result []models.WorkoutRow
	for rows.Next() {
		var w models.WorkoutRow
		if err := rows.Scan(&w.ID, &w.StartedAt, &w.EndedAt, &w.DurationSec, &w.Notes,
			&w.TotalVolume, &w.TotalSets, &w.TotalReps, &w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}
