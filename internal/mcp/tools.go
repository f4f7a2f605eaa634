package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetProgressSummary = mcp.NewTool("get_progress_summary",
	mcp.WithDescription("Full progress summary: weekly workout count vs target, consistency percentage, current day streak, weekly volume series, recent personal records, and most-used exercises."),
	mcp.WithNumber("weeks", mcp.Description("Number of weekly buckets in the volume series. Defaults to the configured dashboard window.")),
)

var toolGetRecentPRs = mcp.NewTool("get_recent_prs",
	mcp.WithDescription("Most recent personal records across all exercises, newest first. Each record carries its category (1RM, 3RM, 5RM, 10RM, TopSet, Volume), value, and exercise name."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of records. Defaults to 10.")),
)

var toolGetExercisePRs = mcp.NewTool("get_exercise_prs",
	mcp.WithDescription("Full personal record history for one exercise, across all categories, newest first."),
	mcp.WithNumber("exercise_id", mcp.Required(), mcp.Description("Exercise catalog ID (see the exercise_catalog resource)")),
)

var toolGetWeeklyVolume = mcp.NewTool("get_weekly_volume",
	mcp.WithDescription("Weekly training volume (sum of reps x weight over completed sets), bucketed into Monday-start weeks, oldest first."),
	mcp.WithNumber("weeks", mcp.Description("Number of weekly buckets. Defaults to the configured dashboard window.")),
)

var toolGetTopExercises = mcp.NewTool("get_top_exercises",
	mcp.WithDescription("Most-used exercises ranked by workout count, then set count."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of exercises. Defaults to 5.")),
)

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("Query workout sessions in a time range. Returns per-session totals including volume, sets, reps, duration, and status."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

// --- Tool handlers ---

func (h *handlers) getProgressSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weeks := req.GetInt("weeks", 0)

	snap, err := h.loadSnapshot(ctx, weeks)
	if err != nil {
		h.log.Error("mcp get_progress_summary", "error", err)
		return mcp.NewToolResultError("load failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(snap)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getRecentPRs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)

	records, err := h.ds.RecentPRs(ctx, limit)
	if err != nil {
		h.log.Error("mcp get_recent_prs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	// Attach display names; a missing exercise keeps the record with an
	// empty name rather than dropping it.
	type namedRecord struct {
		ExerciseName string `json:"exercise_name"`
		Record       any    `json:"record"`
	}
	names := make(map[int64]string)
	out := make([]namedRecord, 0, len(records))
	for _, r := range records {
		name, ok := names[r.ExerciseID]
		if !ok {
			name, err = h.ds.ExerciseName(ctx, r.ExerciseID)
			if err != nil {
				h.log.Error("mcp get_recent_prs name lookup", "exercise", r.ExerciseID, "error", err)
				return mcp.NewToolResultError("query failed: " + err.Error()), nil
			}
			names[r.ExerciseID] = name
		}
		out = append(out, namedRecord{ExerciseName: name, Record: r})
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExercisePRs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := req.RequireInt("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}

	records, err := h.ds.PRsForExercise(ctx, int64(exerciseID))
	if err != nil {
		h.log.Error("mcp get_exercise_prs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	name, err := h.ds.ExerciseName(ctx, int64(exerciseID))
	if err != nil {
		h.log.Error("mcp get_exercise_prs name lookup", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"exercise_id":   exerciseID,
		"exercise_name": name,
		"records":       records,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWeeklyVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weeks := req.GetInt("weeks", 0)

	snap, err := h.loadSnapshot(ctx, weeks)
	if err != nil {
		h.log.Error("mcp get_weekly_volume", "error", err)
		return mcp.NewToolResultError("load failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(snap.WeeklyVolume)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTopExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 5)

	items, err := h.ds.TopExercisesByUsage(ctx, limit)
	if err != nil {
		h.log.Error("mcp get_top_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(items)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	workouts, err := h.ds.QueryWorkouts(ctx, start, end)
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
