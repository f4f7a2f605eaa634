package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/pr"
	"github.com/meltforce/ironlog/internal/storage"
)

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartedAt *time.Time `json:"started_at"`
		Notes     string     `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	startedAt := time.Now()
	if req.StartedAt != nil {
		startedAt = *req.StartedAt
	}

	workout, err := s.db.CreateWorkout(r.Context(), startedAt, req.Notes)
	if err != nil {
		s.log.Error("create workout error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, workout)
}

func (s *Server) handleQueryWorkouts(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	workouts, err := s.db.QueryWorkouts(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

// workoutDetail is a workout with its exercise instances and sets.
type workoutDetail struct {
	models.WorkoutRow
	Exercises []storage.WorkoutExerciseDetail `json:"exercises"`
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := mustWorkoutID(w, r)
	if !ok {
		return
	}

	workout, err := s.db.GetWorkout(r.Context(), workoutID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	exercises, err := s.db.WorkoutExercises(r.Context(), workoutID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, workoutDetail{WorkoutRow: *workout, Exercises: exercises})
}

// handleCompleteWorkout finalizes a workout and runs record detection over
// its sets. The response carries the finalized workout plus any records
// achieved in it.
func (s *Server) handleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := mustWorkoutID(w, r)
	if !ok {
		return
	}

	workout, err := s.db.CompleteWorkout(r.Context(), workoutID, time.Now())
	if errors.Is(err, storage.ErrAlreadyCompleted) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "workout already completed"})
		return
	}
	if err != nil {
		s.log.Error("complete workout error", "workout", workoutID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	details, err := s.db.WorkoutExercises(r.Context(), workoutID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	exercises := make([]pr.ExerciseSets, 0, len(details))
	for _, d := range details {
		exercises = append(exercises, pr.ExerciseSets{ExerciseID: d.ExerciseID, Sets: d.Sets})
	}

	records, err := s.engine.EvaluateWorkout(r.Context(), workoutID, exercises)
	if err != nil {
		// Records saved before the failure are kept; report what landed.
		s.log.Error("record evaluation incomplete", "workout", workoutID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"workout":     workout,
		"new_records": records,
	})
}

func (s *Server) handleAddWorkoutExercise(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := mustWorkoutID(w, r)
	if !ok {
		return
	}
	var req struct {
		ExerciseID int64  `json:"exercise_id"`
		Notes      string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.ExerciseID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise_id is required"})
		return
	}

	entry, err := s.db.AddWorkoutExercise(r.Context(), workoutID, req.ExerciseID, req.Notes)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := s.db.TouchExerciseLastUsed(r.Context(), req.ExerciseID); err != nil {
		s.log.Error("touch exercise error", "exercise", req.ExerciseID, "error", err)
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleWorkoutPRs(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := mustWorkoutID(w, r)
	if !ok {
		return
	}
	records, err := s.db.PRsForWorkout(r.Context(), workoutID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	weID, ok := mustInt64Param(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Reps   int     `json:"reps"`
		Weight float64 `json:"weight"`
		RPE    *int    `json:"rpe"`
		Warmup bool    `json:"is_warmup"`
		Notes  string  `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Reps < 0 || req.Weight < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reps and weight must be non-negative"})
		return
	}

	set, err := s.db.AddSet(r.Context(), weID, req.Reps, req.Weight, req.RPE, req.Warmup, req.Notes)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	setID, ok := mustInt64Param(w, r, "id")
	if !ok {
		return
	}
	var upd storage.SetUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	set, err := s.db.UpdateSet(r.Context(), setID, upd)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.recalcTotalsForSet(r, setID)
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	setID, ok := mustInt64Param(w, r, "id")
	if !ok {
		return
	}
	// Resolve the owning workout before the row disappears.
	workoutID, err := s.db.WorkoutIDForSet(r.Context(), setID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "set not found"})
		return
	}
	if err := s.db.DeleteSet(r.Context(), setID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := s.db.RecalculateTotals(r.Context(), workoutID); err != nil {
		s.log.Error("recalculate totals error", "workout", workoutID, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.db.ListExercises(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleUpsertExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		PrimaryMuscle string `json:"primary_muscle"`
		Equipment     string `json:"equipment"`
		IsBodyweight  bool   `json:"is_bodyweight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	exercise, err := s.db.UpsertExercise(r.Context(), req.Name, req.PrimaryMuscle, req.Equipment, req.IsBodyweight)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, exercise)
}

func (s *Server) handleTopExercises(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	items, err := s.db.TopExercisesByUsage(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleExercisePRs(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := mustInt64Param(w, r, "id")
	if !ok {
		return
	}
	records, err := s.db.PRsForExercise(r.Context(), exerciseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleRecentPRs(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	records, err := s.db.RecentPRs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// recalcTotalsForSet refreshes the owning workout's cached totals after a
// set mutation. Failures are logged, not surfaced; the set change itself
// already landed.
func (s *Server) recalcTotalsForSet(r *http.Request, setID int64) {
	workoutID, err := s.db.WorkoutIDForSet(r.Context(), setID)
	if err != nil {
		s.log.Error("resolve workout for set error", "set", setID, "error", err)
		return
	}
	if err := s.db.RecalculateTotals(r.Context(), workoutID); err != nil {
		s.log.Error("recalculate totals error", "workout", workoutID, "error", err)
	}
}

func mustWorkoutID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return uuid.Nil, false
	}
	return id, true
}

func mustInt64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 30 days
		end = time.Now()
		start = end.AddDate(0, 0, -30)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
