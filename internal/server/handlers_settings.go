package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/meltforce/ironlog/internal/progress"
	"github.com/meltforce/ironlog/internal/storage"
)

// handleProgress computes the dashboard snapshot. Settings rows override
// the configured defaults; the weeks query parameter overrides both.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, err := s.db.GetSettingInt(ctx, storage.SettingWeeklyTargetDays, s.progress.WeeklyTargetDays)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	weeks, err := s.db.GetSettingInt(ctx, storage.SettingProgressWeeks, s.progress.Weeks)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if q := r.URL.Query().Get("weeks"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
			weeks = parsed
		}
	}

	s.aggMu.Lock()
	snap, err := s.agg.Load(ctx, progress.Options{
		Weeks:        weeks,
		WeeklyTarget: target,
		Now:          time.Now(),
	})
	s.aggMu.Unlock()
	if err != nil {
		// The returned snapshot still holds the last good values; serve
		// them with the error so the dashboard can show stale data.
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":    err.Error(),
			"snapshot": snap,
		})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.db.AllSettings(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := validateSettings(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	for key, value := range req {
		if err := s.db.PutSetting(r.Context(), key, value); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}

	settings, err := s.db.AllSettings(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func validateSettings(settings map[string]string) error {
	for key, value := range settings {
		switch key {
		case storage.SettingUnitPreference:
			if value != "kg" && value != "lb" {
				return errBadSetting(key, "must be kg or lb")
			}
		case storage.SettingWeeklyTargetDays:
			if n, err := strconv.Atoi(value); err != nil || n < 0 || n > 7 {
				return errBadSetting(key, "must be an integer between 0 and 7")
			}
		case storage.SettingProgressWeeks:
			if n, err := strconv.Atoi(value); err != nil || n < 1 {
				return errBadSetting(key, "must be a positive integer")
			}
		}
	}
	return nil
}

type settingError struct {
	key, reason string
}

func (e settingError) Error() string { return e.key + " " + e.reason }

func errBadSetting(key, reason string) error { return settingError{key: key, reason: reason} }

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetDataStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
