package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ImportResult mirrors the server's import response without importing the
// snapshot package (which would pull in server-side dependencies).
type ImportResult struct {
	WorkoutsImported int `json:"workouts_imported"`
	WorkoutsSkipped  int `json:"workouts_skipped"`
	SetsImported     int `json:"sets_imported"`
	RecordsImported  int `json:"records_imported"`
	SettingsApplied  int `json:"settings_applied"`
}

// Client sends snapshot payloads to the IronLog server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the IronLog server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SendSnapshot POSTs a raw snapshot JSON document to the server's import
// endpoint. Retries up to 3 times with exponential backoff on transient
// failures; 4xx responses fail immediately since a retry cannot fix the
// payload.
func (c *Client) SendSnapshot(data []byte) (*ImportResult, error) {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost,
			c.serverURL+"/api/v1/sync/import?source=push", bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var result ImportResult
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("decoding import result: %w", err)
			}
			return &result, nil
		}

		lastErr = fmt.Errorf("import failed (status %d): %s", resp.StatusCode, body)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
