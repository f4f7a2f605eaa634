package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/progress"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestQueryWorkouts verifies the HTTP client sends the time range and
// correctly parses the JSON array response.
func TestQueryWorkouts(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("start"); got == "" {
				t.Error("start param missing")
			}
			writeTestJSON(t, w, []models.WorkoutRow{
				{ID: uuid.New(), Status: models.WorkoutCompleted, TotalVolume: 4200},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	workouts, err := client.QueryWorkouts(context.Background(), start, end)
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 1 {
		t.Fatalf("got %d workouts, want 1", len(workouts))
	}
	if workouts[0].TotalVolume != 4200 {
		t.Errorf("total_volume=%f, want 4200", workouts[0].TotalVolume)
	}
}

// TestCompletedWorkoutsFilters verifies in_progress sessions are dropped
// client-side.
func TestCompletedWorkoutsFilters(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.WorkoutRow{
				{ID: uuid.New(), Status: models.WorkoutCompleted},
				{ID: uuid.New(), Status: models.WorkoutInProgress},
				{ID: uuid.New(), Status: models.WorkoutCompleted},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	workouts, err := client.CompletedWorkouts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 2 {
		t.Fatalf("got %d workouts, want 2", len(workouts))
	}
}

// TestRecentPRs verifies the limit param and record parsing.
func TestRecentPRs(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/prs/recent": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "5" {
				t.Errorf("limit=%q, want 5", got)
			}
			writeTestJSON(t, w, []models.PersonalRecordRow{
				{ID: 1, ExerciseID: 3, Category: models.PROneRepMax, Value: 116.67},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	records, err := client.RecentPRs(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Category != models.PROneRepMax {
		t.Errorf("category=%q, want 1RM", records[0].Category)
	}
}

// TestPRsForExercise verifies the per-exercise record history path.
func TestPRsForExercise(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises/7/prs": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.PersonalRecordRow{
				{ID: 2, ExerciseID: 7, Category: models.PRVolume, Value: 900},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	records, err := client.PRsForExercise(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Value != 900 {
		t.Errorf("records = %+v", records)
	}
}

// TestExerciseNameCaches verifies the catalog is fetched once and reused
// for later lookups, with unknown IDs resolving to "".
func TestExerciseNameCaches(t *testing.T) {
	catalogCalls := 0
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			catalogCalls++
			writeTestJSON(t, w, []models.ExerciseRow{
				{ID: 1, Name: "Back Squat"},
				{ID: 2, Name: "Deadlift"},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)

	name, err := client.ExerciseName(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if name != "Back Squat" {
		t.Errorf("name = %q, want Back Squat", name)
	}

	name, err = client.ExerciseName(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if name != "Deadlift" {
		t.Errorf("name = %q, want Deadlift", name)
	}
	if catalogCalls != 1 {
		t.Errorf("catalog fetched %d times, want 1", catalogCalls)
	}
}

// TestTopExercisesByUsage verifies the ranking endpoint parsing.
func TestTopExercisesByUsage(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises/top": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "3" {
				t.Errorf("limit=%q, want 3", got)
			}
			writeTestJSON(t, w, []progress.TopExerciseItem{
				{Exercise: models.ExerciseRow{ID: 1, Name: "Back Squat"}, WorkoutCount: 12, SetCount: 48},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	items, err := client.TopExercisesByUsage(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].WorkoutCount != 12 {
		t.Errorf("items = %+v", items)
	}
}

// TestHTTPClientServerError verifies the client returns an error on non-200 responses.
func TestHTTPClientServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"database down"}`))
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	_, err := client.ListExercises(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}
