package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/progress"
)

// HTTPClient implements DataSource by calling the IronLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	names map[int64]string
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		names:      make(map[int64]string),
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) QueryWorkouts(ctx context.Context, start, end time.Time) ([]models.WorkoutRow, error) {
	body, err := c.get(ctx, "/api/v1/workouts", timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var workouts []models.WorkoutRow
	if err := json.Unmarshal(body, &workouts); err != nil {
		return nil, fmt.Errorf("httpclient: decode workouts: %w", err)
	}
	return workouts, nil
}

// CompletedWorkouts fetches the full history and filters to completed
// sessions; the REST API has no status filter.
func (c *HTTPClient) CompletedWorkouts(ctx context.Context) ([]models.WorkoutRow, error) {
	all, err := c.QueryWorkouts(ctx, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Now().AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	completed := all[:0]
	for _, w := range all {
		if w.Status == models.WorkoutCompleted {
			completed = append(completed, w)
		}
	}
	return completed, nil
}

func (c *HTTPClient) RecentPRs(ctx context.Context, limit int) ([]models.PersonalRecordRow, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/api/v1/prs/recent", params)
	if err != nil {
		return nil, err
	}

	var records []models.PersonalRecordRow
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("httpclient: decode recent records: %w", err)
	}
	return records, nil
}

func (c *HTTPClient) PRsForExercise(ctx context.Context, exerciseID int64) ([]models.PersonalRecordRow, error) {
	body, err := c.get(ctx, "/api/v1/exercises/"+strconv.FormatInt(exerciseID, 10)+"/prs", nil)
	if err != nil {
		return nil, err
	}

	var records []models.PersonalRecordRow
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("httpclient: decode exercise records: %w", err)
	}
	return records, nil
}

func (c *HTTPClient) ListExercises(ctx context.Context) ([]models.ExerciseRow, error) {
	body, err := c.get(ctx, "/api/v1/exercises", nil)
	if err != nil {
		return nil, err
	}

	var exercises []models.ExerciseRow
	if err := json.Unmarshal(body, &exercises); err != nil {
		return nil, fmt.Errorf("httpclient: decode exercises: %w", err)
	}
	return exercises, nil
}

// ExerciseName resolves a name through a local cache filled from the
// exercise catalog. Unknown IDs return "" without an error.
func (c *HTTPClient) ExerciseName(ctx context.Context, exerciseID int64) (string, error) {
	c.mu.Lock()
	name, ok := c.names[exerciseID]
	c.mu.Unlock()
	if ok {
		return name, nil
	}

	exercises, err := c.ListExercises(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	for _, e := range exercises {
		c.names[e.ID] = e.Name
	}
	name = c.names[exerciseID]
	c.mu.Unlock()
	return name, nil
}

func (c *HTTPClient) TopExercisesByUsage(ctx context.Context, limit int) ([]progress.TopExerciseItem, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/api/v1/exercises/top", params)
	if err != nil {
		return nil, err
	}

	var items []progress.TopExerciseItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("httpclient: decode top exercises: %w", err)
	}
	return items, nil
}
