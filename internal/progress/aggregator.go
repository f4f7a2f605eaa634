// Package progress builds the dashboard aggregates: weekly volume series,
// streak, weekly consistency, recent records and top exercises. It reads
// through a DataSource and never mutates stored data.
package progress

import (
	"context"
	"log/slog"
	"time"

	"github.com/meltforce/ironlog/internal/metrics"
	"github.com/meltforce/ironlog/internal/models"
)

// DefaultWeeks is how many weekly buckets the volume series covers when
// the caller does not say otherwise.
const DefaultWeeks = 8

const recentPRLimit = 10

// TopExerciseItem is one entry of the usage ranking. The ranking itself
// (workout count, then set count) is computed by the data source; the
// aggregator only forwards it.
type TopExerciseItem struct {
	Exercise     models.ExerciseRow `json:"exercise"`
	WorkoutCount int                `json:"workout_count"`
	SetCount     int                `json:"set_count"`
}

// DataSource is the read-only contract the aggregator needs. The storage
// layer implements it; tests use an in-memory fake.
type DataSource interface {
	CompletedWorkouts(ctx context.Context) ([]models.WorkoutRow, error)
	RecentPRs(ctx context.Context, limit int) ([]models.PersonalRecordRow, error)
	// ExerciseName resolves an exercise id to its display name, or "" with
	// a nil error when the exercise is unknown.
	ExerciseName(ctx context.Context, exerciseID int64) (string, error)
	TopExercisesByUsage(ctx context.Context, limit int) ([]TopExerciseItem, error)
}

// WeeklyVolumePoint is one bucket of the volume series.
type WeeklyVolumePoint struct {
	WeekStart time.Time `json:"week_start"`
	Label     string    `json:"label"`
	Volume    float64   `json:"volume"`
}

// EnrichedPR is a personal record carrying its exercise's display name.
type EnrichedPR struct {
	models.PersonalRecordRow
	ExerciseName string `json:"exercise_name,omitempty"`
}

// State is the aggregator call lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateErrored State = "errored"
)

// Snapshot is one fully-computed dashboard result.
type Snapshot struct {
	WeeklyTarget   int                 `json:"weekly_target"`
	WeeklyCount    int                 `json:"weekly_count"`
	ConsistencyPct float64             `json:"consistency_pct"`
	Streak         int                 `json:"streak"`
	WeeklyVolume   []WeeklyVolumePoint `json:"weekly_volume"`
	RecentPRs      []EnrichedPR        `json:"recent_prs"`
	TopExercises   []TopExerciseItem   `json:"top_exercises"`
}

// Options tune one Load call.
type Options struct {
	// Weeks is the number of weekly buckets; DefaultWeeks when <= 0.
	Weeks int
	// WeeklyTarget is the configured workouts-per-week goal.
	WeeklyTarget int
	// Now anchors the current week and the streak; time.Now when zero.
	Now time.Time
}

// Aggregator loads dashboard snapshots. It keeps the last good snapshot so
// a failed reload leaves previously displayed values in place. It has no
// internal locking; overlapping Load calls must be serialized by the
// caller.
type Aggregator struct {
	source DataSource
	log    *slog.Logger

	state State
	last  Snapshot
	err   error
}

// NewAggregator creates an idle Aggregator over the given source.
func NewAggregator(source DataSource, log *slog.Logger) *Aggregator {
	return &Aggregator{source: source, log: log, state: StateIdle}
}

// State reports the current lifecycle state.
func (a *Aggregator) State() State { return a.state }

// Err returns the error from the last failed Load, or nil.
func (a *Aggregator) Err() error { return a.err }

// Snapshot returns the last successfully loaded snapshot. After a failed
// Load this still holds the previous values.
func (a *Aggregator) Snapshot() Snapshot { return a.last }

// Load computes a fresh snapshot. On any fetch error the previous snapshot
// is retained, the state moves to errored and the error is returned;
// nothing half-computed is applied. Load may be called again from either
// the ready or the errored state.
func (a *Aggregator) Load(ctx context.Context, opts Options) (Snapshot, error) {
	a.state = StateLoading

	snap, err := a.build(ctx, opts)
	if err != nil {
		a.state = StateErrored
		a.err = err
		a.log.Error("progress load failed", "error", err)
		return a.last, err
	}

	a.state = StateReady
	a.err = nil
	a.last = snap
	return snap, nil
}

func (a *Aggregator) build(ctx context.Context, opts Options) (Snapshot, error) {
	weeks := opts.Weeks
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	completed, err := a.source.CompletedWorkouts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	rawPRs, err := a.source.RecentPRs(ctx, recentPRLimit)
	if err != nil {
		return Snapshot{}, err
	}
	topExercises, err := a.source.TopExercisesByUsage(ctx, 5)
	if err != nil {
		return Snapshot{}, err
	}

	weekStart := metrics.StartOfWeek(now)
	nextWeekStart := weekStart.AddDate(0, 0, 7)

	weeklyCount := 0
	for _, w := range completed {
		if !w.StartedAt.Before(weekStart) && w.StartedAt.Before(nextWeekStart) {
			weeklyCount++
		}
	}

	starts := make([]time.Time, len(completed))
	for i, w := range completed {
		starts[i] = w.StartedAt
	}

	series := make([]WeeklyVolumePoint, 0, weeks)
	for i := weeks - 1; i >= 0; i-- {
		start := weekStart.AddDate(0, 0, -7*i)
		end := start.AddDate(0, 0, 7)
		var vol float64
		for _, w := range completed {
			if !w.StartedAt.Before(start) && w.StartedAt.Before(end) {
				vol += w.TotalVolume
			}
		}
		series = append(series, WeeklyVolumePoint{
			WeekStart: start,
			Label:     metrics.WeekLabel(start),
			Volume:    vol,
		})
	}

	enriched, err := a.enrichPRs(ctx, rawPRs)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		WeeklyTarget:   opts.WeeklyTarget,
		WeeklyCount:    weeklyCount,
		ConsistencyPct: metrics.WeeklyConsistencyPercent(weeklyCount, opts.WeeklyTarget),
		Streak:         metrics.DayStreak(starts, now),
		WeeklyVolume:   series,
		RecentPRs:      enriched,
		TopExercises:   topExercises,
	}, nil
}

// enrichPRs resolves exercise display names, looking each distinct id up
// once per call.
func (a *Aggregator) enrichPRs(ctx context.Context, rows []models.PersonalRecordRow) ([]EnrichedPR, error) {
	names := make(map[int64]string)
	enriched := make([]EnrichedPR, 0, len(rows))
	for _, row := range rows {
		name, ok := names[row.ExerciseID]
		if !ok {
			var err error
			name, err = a.source.ExerciseName(ctx, row.ExerciseID)
			if err != nil {
				return nil, err
			}
			names[row.ExerciseID] = name
		}
		enriched = append(enriched, EnrichedPR{PersonalRecordRow: row, ExerciseName: name})
	}
	return enriched, nil
}
