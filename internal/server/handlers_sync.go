package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/meltforce/ironlog/internal/snapshot"
	"github.com/meltforce/ironlog/internal/storage"
)

// handleImport applies a snapshot payload pushed by the mobile app or the
// push CLI. The outcome is recorded to the import log either way.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var payload snapshot.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	importer := snapshot.NewImporter(s.db, s.log)
	result, err := importer.Apply(r.Context(), &payload)
	durationMs := int(time.Since(started).Milliseconds())
	s.logImport(sourceFromRequest(r), result, err, durationMs)

	if err != nil {
		s.log.Error("import error", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   err.Error(),
			"partial": result,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	payload, err := snapshot.Export(r.Context(), s.db)
	if err != nil {
		s.log.Error("export error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryImportLogs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// logImport records an import operation's result to the import_logs table.
func (s *Server) logImport(source string, result *snapshot.Result, importErr error, durationMs int) {
	status := "success"
	var errMsg *string
	if importErr != nil {
		status = "error"
		msg := importErr.Error()
		errMsg = &msg
	}

	log := storage.ImportLog{
		Source:       source,
		Status:       status,
		DurationMs:   &durationMs,
		ErrorMessage: errMsg,
	}
	if result != nil {
		log.WorkoutsImported = result.WorkoutsImported
		log.SetsImported = result.SetsImported
		log.RecordsImported = result.RecordsImported
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.db.InsertImportLog(ctx, log); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}

func sourceFromRequest(r *http.Request) string {
	if src := r.URL.Query().Get("source"); src != "" {
		return src
	}
	return "api"
}

// contextWithTimeout returns a background context with a 5-second timeout for async logging.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
