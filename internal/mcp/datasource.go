package mcp

import (
	"context"
	"time"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/progress"
	"github.com/meltforce/ironlog/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB
// (local) and HTTPClient (remote via REST API) satisfy this interface. It
// embeds the progress aggregator's contract so the dashboard tools can run
// against either backend.
type DataSource interface {
	progress.DataSource
	QueryWorkouts(ctx context.Context, start, end time.Time) ([]models.WorkoutRow, error)
	PRsForExercise(ctx context.Context, exerciseID int64) ([]models.PersonalRecordRow, error)
	ListExercises(ctx context.Context) ([]models.ExerciseRow, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
