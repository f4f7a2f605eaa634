package push

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Stats tracks push progress.
type Stats struct {
	FilesTotal   int
	FilesPushed  int
	FilesSkipped int
	FilesErrored int

	WorkoutsSent int
	RecordsSent  int
	SetsSent     int
}

// snapshotPreview is the minimal shape needed to sanity-check a snapshot
// file before sending it. Full validation happens server-side.
type snapshotPreview struct {
	ExportedAt time.Time         `json:"exported_at"`
	Workouts   []json.RawMessage `json:"workouts"`
	Records    []json.RawMessage `json:"personal_records"`
}

// Pusher walks an export directory, finds snapshot JSON files the server
// has not seen yet, and POSTs them to the import endpoint.
type Pusher struct {
	client *Client
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Pusher.
func New(client *Client, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Pusher {
	return &Pusher{
		client: client,
		state:  state,
		dir:    dir,
		dryRun: dryRun,
		log:    log,
	}
}

// Run executes the push pipeline. Files are processed oldest-export-first
// so the server sees history in order; a send failure stops the run and
// leaves later files unmarked for the next attempt.
func (p *Pusher) Run() (*Stats, error) {
	files, err := filepath.Glob(filepath.Join(p.dir, "*.json"))
	if err != nil {
		return &p.stats, fmt.Errorf("listing %s: %w", p.dir, err)
	}
	sort.Strings(files)

	for _, f := range files {
		p.stats.FilesTotal++

		relPath, _ := filepath.Rel(p.dir, f)
		info, err := os.Stat(f)
		if err != nil {
			p.log.Warn("stat failed", "file", f, "error", err)
			p.stats.FilesErrored++
			continue
		}

		hash, err := HashFile(f)
		if err != nil {
			p.log.Warn("hash failed", "file", f, "error", err)
			p.stats.FilesErrored++
			continue
		}

		pushed, err := p.state.IsPushed(relPath, info.Size(), hash)
		if err != nil {
			p.log.Warn("state check failed", "file", f, "error", err)
			p.stats.FilesErrored++
			continue
		}
		if pushed {
			p.stats.FilesSkipped++
			continue
		}

		data, err := os.ReadFile(f)
		if err != nil {
			p.log.Warn("read failed", "file", f, "error", err)
			p.stats.FilesErrored++
			continue
		}

		var preview snapshotPreview
		if err := json.Unmarshal(data, &preview); err != nil {
			p.log.Warn("parse failed", "file", f, "error", err)
			p.stats.FilesErrored++
			continue
		}
		if len(preview.Workouts) == 0 && len(preview.Records) == 0 {
			p.stats.FilesSkipped++
			// Mark empty exports as pushed so we don't re-check them
			_ = p.state.MarkPushed(relPath, info.Size(), hash)
			continue
		}

		if p.dryRun {
			p.log.Info("dry-run: would push",
				"file", relPath,
				"workouts", len(preview.Workouts),
				"records", len(preview.Records),
			)
			continue
		}

		result, err := p.client.SendSnapshot(data)
		if err != nil {
			return &p.stats, fmt.Errorf("pushing %s: %w", relPath, err)
		}

		p.stats.WorkoutsSent += result.WorkoutsImported
		p.stats.RecordsSent += result.RecordsImported
		p.stats.SetsSent += result.SetsImported

		if err := p.state.MarkPushed(relPath, info.Size(), hash); err != nil {
			p.log.Warn("failed to mark pushed", "file", relPath, "error", err)
		}
		p.stats.FilesPushed++

		p.log.Info("pushed snapshot",
			"file", relPath,
			"workouts", result.WorkoutsImported,
			"skipped", result.WorkoutsSkipped,
			"sets", result.SetsImported,
			"records", result.RecordsImported,
		)
	}

	if !p.dryRun && p.stats.FilesPushed > 0 {
		if err := p.state.SetSyncState("last_push", time.Now().Format(time.RFC3339)); err != nil {
			p.log.Warn("failed to save push state", "error", err)
		}
	}

	return &p.stats, nil
}
