package snapshot

import (
	"context"
	"time"

	"github.com/meltforce/ironlog/internal/storage"
)

// Export assembles a full snapshot payload from storage, the same shape
// the mobile app produces, so a server backup can be re-imported anywhere.
func Export(ctx context.Context, db *storage.DB) (*Payload, error) {
	settings, err := db.AllSettings(ctx)
	if err != nil {
		return nil, err
	}

	// All workouts regardless of status; an in_progress session survives
	// a device migration too.
	workouts, err := db.QueryWorkouts(ctx, time.Time{}, time.Now().AddDate(1, 0, 0))
	if err != nil {
		return nil, err
	}

	p := &Payload{
		ExportedAt: time.Now(),
		Settings:   settings,
	}

	exerciseNames := make(map[int64]string)

	for _, w := range workouts {
		details, err := db.WorkoutExercises(ctx, w.ID)
		if err != nil {
			return nil, err
		}

		sw := Workout{
			ID:          w.ID,
			StartedAt:   w.StartedAt,
			EndedAt:     w.EndedAt,
			DurationSec: w.DurationSec,
			Notes:       w.Notes,
			Status:      string(w.Status),
		}
		for _, d := range details {
			exerciseNames[d.ExerciseID] = d.ExerciseName
			se := Exercise{
				Name:       d.ExerciseName,
				OrderIndex: d.OrderIndex,
				Notes:      d.Notes,
			}
			if ex, err := db.GetExercise(ctx, d.ExerciseID); err == nil {
				se.PrimaryMuscle = ex.PrimaryMuscle
				se.Equipment = ex.Equipment
				se.Bodyweight = ex.IsBodyweight
			}
			for _, s := range d.Sets {
				se.Sets = append(se.Sets, Set{
					SetNumber: s.SetNumber,
					Reps:      s.Reps,
					Weight:    s.Weight,
					RPE:       s.RPE,
					Warmup:    s.Warmup,
					Completed: s.Completed,
					Notes:     s.Notes,
					CreatedAt: s.CreatedAt,
				})
			}
			sw.Exercises = append(sw.Exercises, se)
		}
		p.Workouts = append(p.Workouts, sw)
	}

	// Record history, oldest first so re-imports replay in order.
	recent, err := db.RecentPRs(ctx, 100000)
	if err != nil {
		return nil, err
	}
	for i := len(recent) - 1; i >= 0; i-- {
		r := recent[i]
		name, ok := exerciseNames[r.ExerciseID]
		if !ok {
			name, err = db.ExerciseName(ctx, r.ExerciseID)
			if err != nil {
				return nil, err
			}
			exerciseNames[r.ExerciseID] = name
		}
		p.Records = append(p.Records, Record{
			ExerciseName: name,
			Category:     string(r.Category),
			Value:        r.Value,
			Reps:         r.Reps,
			WorkoutID:    r.WorkoutID,
			AchievedAt:   r.AchievedAt,
		})
	}

	return p, nil
}
