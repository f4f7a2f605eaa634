package pr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
)

// fakeStore is an in-memory Store that appends rows like the real table
// does, so BestPR and MostRecentPR exercise the same order-by semantics.
type fakeStore struct {
	rows    []models.PersonalRecordRow
	nextID  int64
	saveErr error
	findErr error
}

func (f *fakeStore) BestPR(_ context.Context, exerciseID int64, category models.PRCategory) (*models.PersonalRecordRow, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var best *models.PersonalRecordRow
	for i := range f.rows {
		r := &f.rows[i]
		if r.ExerciseID != exerciseID || r.Category != category {
			continue
		}
		if best == nil || r.Value > best.Value {
			best = r
		}
	}
	return best, nil
}

func (f *fakeStore) MostRecentPR(_ context.Context, exerciseID int64, category models.PRCategory) (*models.PersonalRecordRow, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var latest *models.PersonalRecordRow
	for i := range f.rows {
		r := &f.rows[i]
		if r.ExerciseID != exerciseID || r.Category != category {
			continue
		}
		if latest == nil || r.AchievedAt.After(latest.AchievedAt) {
			latest = r
		}
	}
	return latest, nil
}

func (f *fakeStore) SavePR(_ context.Context, workoutID uuid.UUID, exerciseID int64, category models.PRCategory, value float64, reps *int) (*models.PersonalRecordRow, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.nextID++
	row := models.PersonalRecordRow{
		ID:         f.nextID,
		ExerciseID: exerciseID,
		Category:   category,
		Value:      value,
		Reps:       reps,
		WorkoutID:  workoutID,
		AchievedAt: time.Now().Add(time.Duration(f.nextID) * time.Millisecond),
	}
	f.rows = append(f.rows, row)
	return &row, nil
}

func newTestEngine(store *fakeStore) *Engine {
	return NewEngine(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func workingSet(num, reps int, weight float64) models.SetRow {
	return models.SetRow{SetNumber: num, Reps: reps, Weight: weight, Completed: true}
}

func byCategory(rows []models.PersonalRecordRow) map[models.PRCategory]models.PersonalRecordRow {
	m := make(map[models.PRCategory]models.PersonalRecordRow, len(rows))
	for _, r := range rows {
		m[r.Category] = r
	}
	return m
}

// TestEvaluateWorkoutFirstRecords verifies that a single 5x100 working set
// with no history yields 1RM, TopSet, Volume, 5RM and 3RM records with the
// expected values. 5 reps sits within ±2 of both the 5 and 3 targets but
// outside the 10 target, so no 10RM record appears.
func TestEvaluateWorkoutFirstRecords(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(store)

	got, err := engine.EvaluateWorkout(context.Background(), uuid.New(), []ExerciseSets{
		{ExerciseID: 7, Sets: []models.SetRow{workingSet(1, 5, 100)}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prs := byCategory(got)

	oneRM, ok := prs[models.PROneRepMax]
	if !ok {
		t.Fatal("missing 1RM record")
	}
	if math.Abs(oneRM.Value-116.6667) > 0.01 {
		t.Errorf("1RM value = %v, want ≈116.67", oneRM.Value)
	}

	topSet, ok := prs[models.PRTopSet]
	if !ok {
		t.Fatal("missing TopSet record")
	}
	if topSet.Value != 100 {
		t.Errorf("TopSet value = %v, want 100", topSet.Value)
	}
	if topSet.Reps == nil || *topSet.Reps != 5 {
		t.Errorf("TopSet reps = %v, want 5", topSet.Reps)
	}

	volume, ok := prs[models.PRVolume]
	if !ok {
		t.Fatal("missing Volume record")
	}
	if volume.Value != 500 {
		t.Errorf("Volume value = %v, want 500", volume.Value)
	}

	// 5 reps qualifies for both the 5RM target and the 3RM target (±2),
	// but not 10RM.
	fiveRM, ok := prs[models.PRFiveRM]
	if !ok {
		t.Fatal("missing 5RM record")
	}
	if fiveRM.Reps == nil || *fiveRM.Reps != 5 {
		t.Errorf("5RM reps = %v, want the target 5", fiveRM.Reps)
	}
	if math.Abs(fiveRM.Value-116.6667) > 0.01 {
		t.Errorf("5RM value = %v, want ≈116.67", fiveRM.Value)
	}
	if _, ok := prs[models.PRThreeRM]; !ok {
		t.Error("expected 3RM record, 5 reps is within ±2 of 3")
	}
	if _, ok := prs[models.PRTenRM]; ok {
		t.Error("unexpected 10RM record, 5 reps is outside ±2 of 10")
	}
}

// TestEvaluateWorkoutSecondRunIsQuiet documents the near-idempotence of
// re-evaluating an already-evaluated workout: no category improves, so no
// new rows. Volume compares against the most recent record rather than the
// highest and only stays quiet here because the value is equal, not greater.
func TestEvaluateWorkoutSecondRunIsQuiet(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(store)
	workoutID := uuid.New()
	exercises := []ExerciseSets{
		{ExerciseID: 3, Sets: []models.SetRow{workingSet(1, 5, 100), workingSet(2, 3, 110)}},
	}

	first, err := engine.EvaluateWorkout(context.Background(), workoutID, exercises)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("first run produced no records")
	}

	second, err := engine.EvaluateWorkout(context.Background(), workoutID, exercises)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second run produced %d records, want 0: %+v", len(second), second)
	}
}

// TestVolumeComparesMostRecent pins the intentional asymmetry: Volume is
// compared against the most recently achieved record, so after a lighter
// session a later medium session re-triggers a Volume record even though a
// higher historical volume exists. Highest-ever categories stay quiet.
func TestVolumeComparesMostRecent(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(store)
	ctx := context.Background()

	// Session 1: 10x100 = 1000 volume.
	heavy := []ExerciseSets{{ExerciseID: 1, Sets: []models.SetRow{workingSet(1, 10, 100)}}}
	if _, err := engine.EvaluateWorkout(ctx, uuid.New(), heavy); err != nil {
		t.Fatalf("session 1: %v", err)
	}

	// Session 2: 8x50 = 400 volume. Every category is below its previous
	// record (8 reps only falls in the 10RM window), so nothing fires.
	light := []ExerciseSets{{ExerciseID: 1, Sets: []models.SetRow{workingSet(1, 8, 50)}}}
	got, err := engine.EvaluateWorkout(ctx, uuid.New(), light)
	if err != nil {
		t.Fatalf("session 2: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("light session produced records: %+v", got)
	}

	// Force a lower most-recent Volume row, as the history can hold after
	// an administrative edit.
	lowVol, err := store.SavePR(ctx, uuid.New(), 1, models.PRVolume, 400, nil)
	if err != nil {
		t.Fatal(err)
	}
	lowVol.AchievedAt = time.Now().Add(time.Hour)
	store.rows[len(store.rows)-1] = *lowVol

	// Session 3: 12x50 = 600 volume. Beats the most recent 400 even though
	// 1000 exists in history; the other categories do not fire.
	medium := []ExerciseSets{{ExerciseID: 1, Sets: []models.SetRow{workingSet(1, 12, 50)}}}
	got, err = engine.EvaluateWorkout(ctx, uuid.New(), medium)
	if err != nil {
		t.Fatalf("session 3: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("medium session produced %d records, want 1 (Volume): %+v", len(got), got)
	}
	if got[0].Category != models.PRVolume || got[0].Value != 600 {
		t.Errorf("record = %+v, want Volume 600", got[0])
	}
}

// TestWarmupAndIncompleteSetsIgnored verifies the qualifying-set filter:
// an exercise whose sets are all warmups or incomplete is skipped entirely.
func TestWarmupAndIncompleteSetsIgnored(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(store)

	sets := []models.SetRow{
		{SetNumber: 1, Reps: 10, Weight: 60, Completed: true, Warmup: true},
		{SetNumber: 2, Reps: 5, Weight: 100, Completed: false},
	}
	got, err := engine.EvaluateWorkout(context.Background(), uuid.New(), []ExerciseSets{
		{ExerciseID: 9, Sets: sets},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records, want 0: %+v", len(got), got)
	}
	if len(store.rows) != 0 {
		t.Errorf("store has %d rows, want 0", len(store.rows))
	}
}

// TestRepTargetUsesHeaviestInWindow verifies the ±2 window picks the
// heaviest qualifying set and records under the target rep count.
func TestRepTargetUsesHeaviestInWindow(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(store)

	// Reps 8 and 12 both sit within ±2 of the 10 target; the window picks
	// the heavier 8x90 set, by weight rather than by estimate.
	sets := []models.SetRow{
		workingSet(1, 8, 90),
		workingSet(2, 12, 80),
	}
	got, err := engine.EvaluateWorkout(context.Background(), uuid.New(), []ExerciseSets{
		{ExerciseID: 4, Sets: sets},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tenRM, ok := byCategory(got)[models.PRTenRM]
	if !ok {
		t.Fatal("missing 10RM record")
	}
	want := 90 * (1 + 8.0/30)
	if math.Abs(tenRM.Value-want) > 0.01 {
		t.Errorf("10RM value = %v, want %v (Epley of the heavier 8x90)", tenRM.Value, want)
	}
	if tenRM.Reps == nil || *tenRM.Reps != 10 {
		t.Errorf("10RM reps = %v, want the target 10, not the set's 8", tenRM.Reps)
	}
}

// TestStorageErrorKeepsEarlierRecords verifies partial-progress semantics:
// a save failure propagates, and records written before it remain.
func TestStorageErrorKeepsEarlierRecords(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(store)
	ctx := context.Background()

	// First exercise succeeds fully.
	_, err := engine.EvaluateWorkout(ctx, uuid.New(), []ExerciseSets{
		{ExerciseID: 1, Sets: []models.SetRow{workingSet(1, 5, 100)}},
	})
	if err != nil {
		t.Fatalf("setup run: %v", err)
	}
	written := len(store.rows)

	boom := errors.New("connection reset")
	store.saveErr = boom
	got, err := engine.EvaluateWorkout(ctx, uuid.New(), []ExerciseSets{
		{ExerciseID: 2, Sets: []models.SetRow{workingSet(1, 5, 120)}},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if len(got) != 0 {
		t.Errorf("failed run returned %d records, want 0", len(got))
	}
	if len(store.rows) != written {
		t.Errorf("store rows = %d, want %d untouched", len(store.rows), written)
	}
}
