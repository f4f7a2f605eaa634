package storage

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/ironlog/internal/models"
)

// fakeRow implements pgx.Row for scan helper tests.
type fakeRow struct {
	err    error
	values []any
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations, %d values", len(dest), len(r.values))
	}
	for i, v := range r.values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

// TestScanWorkoutNoRows verifies that a missing row surfaces pgx.ErrNoRows
// unwrapped, which CompleteWorkout relies on to tell "already completed"
// apart from other failures.
func TestScanWorkoutNoRows(t *testing.T) {
	w, err := scanWorkout(fakeRow{err: pgx.ErrNoRows})
	if w != nil {
		t.Errorf("workout = %+v, want nil", w)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("error = %v, want pgx.ErrNoRows", err)
	}
}

// TestScanWorkoutFields verifies the column-to-field mapping, including the
// nullable ended_at and duration_sec columns.
func TestScanWorkoutFields(t *testing.T) {
	id := uuid.MustParse("0d4e1f3a-bb5e-4a0f-9f3a-111111111111")
	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	ended := started.Add(45 * time.Minute)
	duration := int64(2700)

	w, err := scanWorkout(fakeRow{values: []any{
		id, started, &ended, &duration, "leg day",
		1250.5, 12, 96, models.WorkoutCompleted, started, ended,
	}})
	if err != nil {
		t.Fatal(err)
	}

	if w.ID != id {
		t.Errorf("id = %s, want %s", w.ID, id)
	}
	if w.EndedAt == nil || !w.EndedAt.Equal(ended) {
		t.Errorf("ended_at = %v, want %v", w.EndedAt, ended)
	}
	if w.DurationSec == nil || *w.DurationSec != duration {
		t.Errorf("duration_sec = %v, want %d", w.DurationSec, duration)
	}
	if w.TotalVolume != 1250.5 || w.TotalSets != 12 || w.TotalReps != 96 {
		t.Errorf("totals = (%.1f, %d, %d), want (1250.5, 12, 96)",
			w.TotalVolume, w.TotalSets, w.TotalReps)
	}
	if w.Status != models.WorkoutCompleted {
		t.Errorf("status = %q, want %q", w.Status, models.WorkoutCompleted)
	}

	// In-progress workouts have no end timestamp or duration yet.
	w, err = scanWorkout(fakeRow{values: []any{
		id, started, (*time.Time)(nil), (*int64)(nil), "",
		0.0, 0, 0, models.WorkoutInProgress, started, started,
	}})
	if err != nil {
		t.Fatal(err)
	}
	if w.EndedAt != nil || w.DurationSec != nil {
		t.Errorf("in-progress workout: ended_at = %v, duration_sec = %v, want nil",
			w.EndedAt, w.DurationSec)
	}
}
