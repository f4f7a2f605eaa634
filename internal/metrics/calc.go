// Package metrics holds the pure calculation functions behind PR detection
// and progress aggregation. Nothing here touches storage; callers pass in
// set and workout data and get numbers back.
package metrics

import (
	"sort"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// KgToLbFactor converts kilograms to pounds.
const KgToLbFactor = 2.20462262185

// EstimatedOneRepMax estimates a one-rep max from a set using the Epley
// formula: weight * (1 + reps/30). A single rep returns the weight exactly,
// avoiding formula rounding. Zero or negative reps return 0; callers are
// expected to validate inputs, treating negatives as zero is defensive only.
func EstimatedOneRepMax(weight float64, reps int) float64 {
	if reps == 1 {
		return weight
	}
	if reps <= 0 {
		return 0
	}
	return weight * (1 + float64(reps)/30)
}

// EstimatedOneRepMaxBrzycki is an alternative estimator using the Brzycki
// formula: weight * (36 / (37 - reps)). Display-only; PR detection uses
// Epley. Reps of 37 or more fall outside the formula's domain and return 0.
func EstimatedOneRepMaxBrzycki(weight float64, reps int) float64 {
	if reps == 1 {
		return weight
	}
	if reps <= 0 || reps > 36 {
		return 0
	}
	return weight * (36 / float64(37-reps))
}

// SetVolume is weight * reps for a single set, regardless of the completed
// and warmup flags. Flag filtering happens in the aggregate functions.
func SetVolume(s models.SetRow) float64 {
	return s.Weight * float64(s.Reps)
}

// TotalVolume sums SetVolume over completed sets. Warmups are NOT excluded
// here: total workout volume counts completed warmups, while the PR
// functions below exclude them. That asymmetry is intentional.
func TotalVolume(sets []models.SetRow) float64 {
	var total float64
	for _, s := range sets {
		if s.Completed {
			total += SetVolume(s)
		}
	}
	return total
}

// TotalReps sums reps over completed sets.
func TotalReps(sets []models.SetRow) int {
	var total int
	for _, s := range sets {
		if s.Completed {
			total += s.Reps
		}
	}
	return total
}

// BestEstimatedOneRepMax returns the highest Epley estimate across
// completed, non-warmup sets, or 0 if there are none.
func BestEstimatedOneRepMax(sets []models.SetRow) float64 {
	var best float64
	for _, s := range sets {
		if !s.Completed || s.Warmup {
			continue
		}
		if est := EstimatedOneRepMax(s.Weight, s.Reps); est > best {
			best = est
		}
	}
	return best
}

// TopSet returns the heaviest completed, non-warmup set, or nil if there
// are none. Ties go to the first set in iteration order, so callers should
// pass sets in ascending set-number order for deterministic results.
func TopSet(sets []models.SetRow) *models.SetRow {
	var top *models.SetRow
	for i := range sets {
		s := &sets[i]
		if !s.Completed || s.Warmup {
			continue
		}
		if top == nil || s.Weight > top.Weight {
			top = s
		}
	}
	return top
}

// WeeklyConsistencyPercent is the percentage of the weekly workout target
// met, capped at 100. A target of 0 yields 0.
func WeeklyConsistencyPercent(workoutsThisWeek, weeklyTarget int) float64 {
	if weeklyTarget == 0 {
		return 0
	}
	pct := float64(workoutsThisWeek) / float64(weeklyTarget) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// DayStreak counts consecutive calendar days ending today or yesterday
// with at least one workout per day. Dates are normalized to local
// midnight; multiple workouts on the same day neither extend nor break the
// streak. If the most recent workout day is more than one day before now,
// the streak is 0.
func DayStreak(dates []time.Time, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	days := make([]time.Time, len(dates))
	for i, d := range dates {
		days[i] = startOfDay(d.In(now.Location()))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today := startOfDay(now)
	mostRecent := days[0]
	if daysBetween(mostRecent, today) > 1 {
		return 0
	}

	streak := 1
	anchor := mostRecent
	for _, day := range days[1:] {
		switch daysBetween(day, anchor) {
		case 0:
			// Same day, keep walking.
		case 1:
			streak++
			anchor = day
		default:
			return streak
		}
	}
	return streak
}

// StartOfWeek returns local Monday 00:00 for the week containing t.
func StartOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	// time.Weekday has Sunday=0; shift so Monday=0.
	diffToMonday := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -diffToMonday)
}

// WeekLabel formats a week start as a short chart label, e.g. "Oct 28".
func WeekLabel(t time.Time) string {
	return t.Format("Jan 2")
}

// KgToLb converts kilograms to pounds.
func KgToLb(kg float64) float64 {
	return kg * KgToLbFactor
}

// LbToKg converts pounds to kilograms.
func LbToKg(lb float64) float64 {
	return lb / KgToLbFactor
}

// ConvertWeight converts between "kg" and "lb". Unknown or equal units
// return the weight unchanged. Display-only; calculations stay in the
// stored unit.
func ConvertWeight(weight float64, from, to string) float64 {
	if from == to {
		return weight
	}
	switch {
	case from == "kg" && to == "lb":
		return KgToLb(weight)
	case from == "lb" && to == "kg":
		return LbToKg(weight)
	default:
		return weight
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from earlier a to later b.
// AddDate handles DST transitions where a naive division by 24h would not.
func daysBetween(a, b time.Time) int {
	days := 0
	for t := a; t.Before(b); t = t.AddDate(0, 0, 1) {
		days++
	}
	return days
}
