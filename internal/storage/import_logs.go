package storage

import (
	"context"
	"fmt"
	"time"
)

// ImportLog records one snapshot import operation's result.
type ImportLog struct {
	ID               int64     `json:"id"`
	Source           string    `json:"source"`
	Status           string    `json:"status"`
	WorkoutsImported int       `json:"workouts_imported"`
	SetsImported     int       `json:"sets_imported"`
	RecordsImported  int       `json:"records_imported"`
	DurationMs       *int      `json:"duration_ms,omitempty"`
	ErrorMessage     *string   `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// InsertImportLog records an import operation. Returns the log ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (source, status, workouts_imported, sets_imported,
		 records_imported, duration_ms, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		log.Source, log.Status, log.WorkoutsImported, log.SetsImported,
		log.RecordsImported, log.DurationMs, log.ErrorMessage).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// QueryImportLogs returns recent import logs, newest first.
func (db *DB) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, source, status, workouts_imported, sets_imported,
		 records_imported, duration_ms, error_message, created_at
		 FROM import_logs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var l ImportLog
		if err := rows.Scan(&l.ID, &l.Source, &l.Status, &l.WorkoutsImported, &l.SetsImported,
			&l.RecordsImported, &l.DurationMs, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
