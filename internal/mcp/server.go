package mcp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/ironlog/internal/progress"
)

// Defaults carries the dashboard defaults used when a tool call omits its
// own parameters.
type Defaults struct {
	WeeklyTarget int
	Weeks        int
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, defaults Defaults, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("IronLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("IronLog workout tracking server. Query training progress, personal records, weekly volume trends, and workout history."),
	)

	h := &handlers{
		ds:       ds,
		agg:      progress.NewAggregator(ds, log),
		defaults: defaults,
		log:      log,
	}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetProgressSummary, Handler: h.getProgressSummary},
		server.ServerTool{Tool: toolGetRecentPRs, Handler: h.getRecentPRs},
		server.ServerTool{Tool: toolGetExercisePRs, Handler: h.getExercisePRs},
		server.ServerTool{Tool: toolGetWeeklyVolume, Handler: h.getWeeklyVolume},
		server.ServerTool{Tool: toolGetTopExercises, Handler: h.getTopExercises},
		server.ServerTool{Tool: toolGetWorkouts, Handler: h.getWorkouts},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resDashboard, Handler: h.dashboard},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds       DataSource
	agg      *progress.Aggregator
	defaults Defaults
	log      *slog.Logger

	// The aggregator has no internal locking; concurrent tool calls are
	// serialized here.
	aggMu sync.Mutex
}

// loadSnapshot runs one aggregator pass with the given overrides.
func (h *handlers) loadSnapshot(ctx context.Context, weeks int) (progress.Snapshot, error) {
	if weeks <= 0 {
		weeks = h.defaults.Weeks
	}
	h.aggMu.Lock()
	defer h.aggMu.Unlock()
	return h.agg.Load(ctx, progress.Options{
		Weeks:        weeks,
		WeeklyTarget: h.defaults.WeeklyTarget,
		Now:          time.Now(),
	})
}

// --- Resource definitions ---

var resDashboard = mcp.NewResource(
	"ironlog://dashboard",
	"Progress Dashboard",
	mcp.WithResourceDescription("Full progress snapshot: weekly volume series, consistency, streak, recent personal records, and top exercises"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"ironlog://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"ironlog://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All known exercises with muscle group, equipment, and bodyweight flag"),
	mcp.WithMIMEType("application/json"),
)
