package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/ironlog/internal/models"
)

const prColumns = `id, exercise_id, category, value, reps, workout_id, achieved_at`

// BestPR returns the highest-value record for an (exercise, category)
// pair, or nil if none exists. Five of the six categories compare against
// this.
func (db *DB) BestPR(ctx context.Context, exerciseID int64, category models.PRCategory) (*models.PersonalRecordRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+prColumns+`
		 FROM personal_records
		 WHERE exercise_id = $1 AND category = $2
		 ORDER BY value DESC
		 LIMIT 1`,
		exerciseID, category)
	return scanOptionalPR(row, exerciseID, category)
}

// MostRecentPR returns the latest-achieved record for an (exercise,
// category) pair, or nil if none exists. Only the Volume category compares
// against this.
func (db *DB) MostRecentPR(ctx context.Context, exerciseID int64, category models.PRCategory) (*models.PersonalRecordRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+prColumns+`
		 FROM personal_records
		 WHERE exercise_id = $1 AND category = $2
		 ORDER BY achieved_at DESC
		 LIMIT 1`,
		exerciseID, category)
	return scanOptionalPR(row, exerciseID, category)
}

// SavePR persists a new immutable record row. Rows are never updated; the
// history per pair accumulates.
func (db *DB) SavePR(ctx context.Context, workoutID uuid.UUID, exerciseID int64, category models.PRCategory, value float64, reps *int) (*models.PersonalRecordRow, error) {
	row := db.Pool.QueryRow(ctx,
		`INSERT INTO personal_records (exercise_id, category, value, reps, workout_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+prColumns,
		exerciseID, category, value, reps, workoutID)

	var r models.PersonalRecordRow
	if err := scanPR(row, &r); err != nil {
		return nil, fmt.Errorf("inserting %s record for exercise %d: %w", category, exerciseID, err)
	}
	return &r, nil
}

// RecentPRs returns the most recently achieved records across all
// exercises and categories.
func (db *DB) RecentPRs(ctx context.Context, limit int) ([]models.PersonalRecordRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+prColumns+`
		 FROM personal_records
		 ORDER BY achieved_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent records: %w", err)
	}
	defer rows.Close()

	return collectPRs(rows)
}

// PRsForExercise returns an exercise's full record history, newest first.
func (db *DB) PRsForExercise(ctx context.Context, exerciseID int64) ([]models.PersonalRecordRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+prColumns+`
		 FROM personal_records
		 WHERE exercise_id = $1
		 ORDER BY achieved_at DESC`,
		exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying records for exercise %d: %w", exerciseID, err)
	}
	defer rows.Close()

	return collectPRs(rows)
}

// PRsForWorkout returns the records achieved in one workout, by category.
func (db *DB) PRsForWorkout(ctx context.Context, workoutID uuid.UUID) ([]models.PersonalRecordRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+prColumns+`
		 FROM personal_records
		 WHERE workout_id = $1
		 ORDER BY category ASC`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying records for workout %s: %w", workoutID, err)
	}
	defer rows.Close()

	return collectPRs(rows)
}

func scanOptionalPR(row pgx.Row, exerciseID int64, category models.PRCategory) (*models.PersonalRecordRow, error) {
	var r models.PersonalRecordRow
	err := scanPR(row, &r)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s record for exercise %d: %w", category, exerciseID, err)
	}
	return &r, nil
}

func scanPR(row pgx.Row, r *models.PersonalRecordRow) error {
	return row.Scan(&r.ID, &r.ExerciseID, &r.Category, &r.Value, &r.Reps, &r.WorkoutID, &r.AchievedAt)
}

func collectPRs(rows pgx.Rows) ([]models.PersonalRecordRow, error) {
	var result []models.PersonalRecordRow
	for rows.Next() {
		var r models.PersonalRecordRow
		if err := scanPR(rows, &r); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
