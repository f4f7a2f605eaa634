package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/ironlog/internal/config"
	"github.com/meltforce/ironlog/internal/pr"
	"github.com/meltforce/ironlog/internal/progress"
	"github.com/meltforce/ironlog/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	engine   *pr.Engine
	agg      *progress.Aggregator
	progress config.ProgressConfig
	log      *slog.Logger
	apiKey   string
	router   chi.Router

	// The aggregator keeps the last good snapshot and has no internal
	// locking, so overlapping loads are serialized here.
	aggMu sync.Mutex
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, progressCfg config.ProgressConfig, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		engine:   pr.NewEngine(db, log),
		agg:      progress.NewAggregator(db, log),
		progress: progressCfg,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Sync endpoints (API key required)
	s.router.Route("/api/v1/sync", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/import", s.handleImport)
		r.Get("/export", s.handleExport)
		r.Get("/logs", s.handleImportLogs)
	})

	// Dashboard API endpoints (no auth, tsnet handles access)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/workouts", s.handleCreateWorkout)
		r.Get("/workouts", s.handleQueryWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Post("/workouts/{id}/complete", s.handleCompleteWorkout)
		r.Post("/workouts/{id}/exercises", s.handleAddWorkoutExercise)
		r.Get("/workouts/{id}/prs", s.handleWorkoutPRs)

		r.Post("/workout-exercises/{id}/sets", s.handleAddSet)
		r.Patch("/sets/{id}", s.handleUpdateSet)
		r.Delete("/sets/{id}", s.handleDeleteSet)

		r.Get("/exercises", s.handleListExercises)
		r.Post("/exercises", s.handleUpsertExercise)
		r.Get("/exercises/top", s.handleTopExercises)
		r.Get("/exercises/{id}/prs", s.handleExercisePRs)

		r.Get("/progress", s.handleProgress)
		r.Get("/prs/recent", s.handleRecentPRs)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Get("/stats", s.handleStats)
	})
}
