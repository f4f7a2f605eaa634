package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// TestEstimatedOneRepMax verifies the Epley estimate and its two special
// cases: one rep returns the weight exactly, zero reps returns zero.
func TestEstimatedOneRepMax(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		reps   int
		want   float64
	}{
		{"100kg x 5", 100, 5, 116.6667}, // 100 * (1 + 5/30)
		{"80kg x 10", 80, 10, 106.6667}, // 80 * (1 + 10/30)
		{"single rep is the weight", 142.5, 1, 142.5},
		{"zero reps", 100, 0, 0},
		{"negative reps treated as zero", 100, -3, 0},
		{"zero weight", 0, 8, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimatedOneRepMax(tt.weight, tt.reps)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("EstimatedOneRepMax(%v, %d) = %v, want %v", tt.weight, tt.reps, got, tt.want)
			}
		})
	}
}

// TestEstimatedOneRepMaxBrzycki checks the alternative formula stays in
// its domain and matches Epley's special cases.
func TestEstimatedOneRepMaxBrzycki(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		reps   int
		want   float64
	}{
		{"100kg x 5", 100, 5, 112.5}, // 100 * (36/32)
		{"single rep is the weight", 100, 1, 100},
		{"zero reps", 100, 0, 0},
		{"out of domain", 50, 37, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimatedOneRepMaxBrzycki(tt.weight, tt.reps)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("EstimatedOneRepMaxBrzycki(%v, %d) = %v, want %v", tt.weight, tt.reps, got, tt.want)
			}
		})
	}
}

func set(num, reps int, weight float64, completed, warmup bool) models.SetRow {
	return models.SetRow{SetNumber: num, Reps: reps, Weight: weight, Completed: completed, Warmup: warmup}
}

// TestTotalVolume verifies that incomplete sets are excluded while
// completed warmups still count toward workout volume.
func TestTotalVolume(t *testing.T) {
	sets := []models.SetRow{
		set(1, 5, 100, true, false),
		set(2, 5, 100, false, false), // not completed, excluded
		set(3, 3, 120, true, false),
	}
	if got := TotalVolume(sets); got != 860 {
		t.Errorf("TotalVolume = %v, want 860", got)
	}

	// A completed warmup counts here, unlike in the PR functions.
	withWarmup := append(sets, set(4, 10, 40, true, true))
	if got := TotalVolume(withWarmup); got != 1260 {
		t.Errorf("TotalVolume with warmup = %v, want 1260", got)
	}

	if got := TotalVolume(nil); got != 0 {
		t.Errorf("TotalVolume(nil) = %v, want 0", got)
	}
}

func TestTotalReps(t *testing.T) {
	sets := []models.SetRow{
		set(1, 5, 100, true, false),
		set(2, 8, 80, false, false),
		set(3, 3, 120, true, true),
	}
	if got := TotalReps(sets); got != 8 {
		t.Errorf("TotalReps = %d, want 8", got)
	}
}

// TestBestEstimatedOneRepMax verifies warmup and incomplete sets are
// filtered before picking the best estimate.
func TestBestEstimatedOneRepMax(t *testing.T) {
	tests := []struct {
		name string
		sets []models.SetRow
		want float64
	}{
		{"empty", nil, 0},
		{
			"single working set",
			[]models.SetRow{set(1, 5, 100, true, false)},
			116.6667,
		},
		{
			"warmup heavier but excluded",
			[]models.SetRow{
				set(1, 1, 200, true, true),
				set(2, 5, 100, true, false),
			},
			116.6667,
		},
		{
			"incomplete excluded",
			[]models.SetRow{
				set(1, 5, 150, false, false),
				set(2, 5, 100, true, false),
			},
			116.6667,
		},
		{
			"best across sets",
			[]models.SetRow{
				set(1, 10, 80, true, false),  // 106.67
				set(2, 3, 120, true, false),  // 132
				set(3, 1, 130, true, false),  // 130
			},
			132,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BestEstimatedOneRepMax(tt.sets)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("BestEstimatedOneRepMax = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestTopSet verifies the heaviest qualifying set wins and ties go to the
// earlier set number.
func TestTopSet(t *testing.T) {
	if got := TopSet(nil); got != nil {
		t.Fatalf("TopSet(nil) = %+v, want nil", got)
	}

	onlyWarmups := []models.SetRow{set(1, 10, 60, true, true)}
	if got := TopSet(onlyWarmups); got != nil {
		t.Fatalf("TopSet(warmups only) = %+v, want nil", got)
	}

	sets := []models.SetRow{
		set(1, 8, 90, true, false),
		set(2, 5, 100, true, false),
		set(3, 3, 100, true, false), // tie, first wins
		set(4, 1, 110, false, false),
	}
	got := TopSet(sets)
	if got == nil {
		t.Fatal("TopSet = nil, want set 2")
	}
	if got.SetNumber != 2 {
		t.Errorf("TopSet picked set %d, want 2 (first of the tie)", got.SetNumber)
	}
	if got.Weight != 100 {
		t.Errorf("TopSet weight = %v, want 100", got.Weight)
	}
}

func TestWeeklyConsistencyPercent(t *testing.T) {
	tests := []struct {
		count, target int
		want          float64
	}{
		{2, 4, 50},
		{4, 4, 100},
		{6, 4, 100}, // capped
		{0, 4, 0},
		{3, 0, 0}, // zero target
	}

	for _, tt := range tests {
		got := WeeklyConsistencyPercent(tt.count, tt.target)
		if got != tt.want {
			t.Errorf("WeeklyConsistencyPercent(%d, %d) = %v, want %v", tt.count, tt.target, got, tt.want)
		}
	}
}

// TestDayStreak covers the calendar-day walk: broken streaks, same-day
// duplicates, and streaks anchored at today or yesterday.
func TestDayStreak(t *testing.T) {
	now := time.Date(2025, 11, 14, 18, 30, 0, 0, time.Local)
	day := func(daysAgo int, hour int) time.Time {
		return time.Date(2025, 11, 14-daysAgo, hour, 0, 0, 0, time.Local)
	}

	tests := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"empty", nil, 0},
		{"two days ago only", []time.Time{day(2, 9)}, 0},
		{"yesterday only", []time.Time{day(1, 9)}, 1},
		{"today only", []time.Time{day(0, 7)}, 1},
		{"today and yesterday", []time.Time{day(0, 7), day(1, 19)}, 2},
		{
			"three day run ending yesterday",
			[]time.Time{day(1, 9), day(2, 9), day(3, 9)},
			3,
		},
		{
			"gap stops the walk",
			[]time.Time{day(0, 7), day(1, 7), day(3, 7), day(4, 7)},
			2,
		},
		{
			"same day duplicates do not double count",
			[]time.Time{day(0, 7), day(0, 19), day(1, 9)},
			2,
		},
		{
			"unsorted input",
			[]time.Time{day(2, 9), day(0, 9), day(1, 9)},
			3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayStreak(tt.dates, now); got != tt.want {
				t.Errorf("DayStreak = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestStartOfWeek verifies Monday 00:00 local is the week anchor.
func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			"wednesday",
			time.Date(2025, 11, 12, 15, 4, 0, 0, time.Local),
			time.Date(2025, 11, 10, 0, 0, 0, 0, time.Local),
		},
		{
			"monday maps to itself",
			time.Date(2025, 11, 10, 0, 0, 0, 0, time.Local),
			time.Date(2025, 11, 10, 0, 0, 0, 0, time.Local),
		},
		{
			"sunday maps to previous monday",
			time.Date(2025, 11, 16, 23, 59, 0, 0, time.Local),
			time.Date(2025, 11, 10, 0, 0, 0, 0, time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StartOfWeek(tt.in); !got.Equal(tt.want) {
				t.Errorf("StartOfWeek(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWeekLabel(t *testing.T) {
	got := WeekLabel(time.Date(2025, 10, 28, 0, 0, 0, 0, time.Local))
	if got != "Oct 28" {
		t.Errorf("WeekLabel = %q, want %q", got, "Oct 28")
	}
}

// TestConvertWeight round-trips kg↔lb and leaves same-unit values alone.
func TestConvertWeight(t *testing.T) {
	if got := ConvertWeight(100, "kg", "lb"); math.Abs(got-220.46) > 0.01 {
		t.Errorf("kg→lb = %v, want ≈220.46", got)
	}
	if got := ConvertWeight(225, "lb", "kg"); math.Abs(got-102.06) > 0.01 {
		t.Errorf("lb→kg = %v, want ≈102.06", got)
	}
	if got := ConvertWeight(80, "kg", "kg"); got != 80 {
		t.Errorf("same unit = %v, want 80", got)
	}
	roundTrip := LbToKg(KgToLb(123.4))
	if math.Abs(roundTrip-123.4) > 1e-9 {
		t.Errorf("round trip = %v, want 123.4", roundTrip)
	}
}
