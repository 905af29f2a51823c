package http

import (
	"log/slog"
	"net/http"
	"time"

	applog "betmetrics/internal/log"
	"betmetrics/internal/session"
)

// indexData is everything the main page needs: the session's upload
// history plus the current filter options.
type indexData struct {
	Files         []session.FileSummary
	HasRecords    bool
	Markets       []string
	ChosenMarkets []string
	Selections    []string
	MinTime       string
	MaxTime       string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	sessionID := s.ensureSession(w, r)
	markets, selections, minTime, maxTime := s.svc.FilterOptions(sessionID, nil)

	data := indexData{
		Files:      s.sessions.Files(sessionID),
		Markets:    markets,
		Selections: selections,
		MinTime:    formatBound(minTime),
		MaxTime:    formatBound(maxTime),
	}
	data.HasRecords = len(s.sessions.Records(sessionID)) > 0

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// formatBound renders a time for a datetime-local input, empty for the
// zero time.
func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02T15:04")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	sessionID := s.ensureSession(w, r)
	s.sessions.Clear(sessionID)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Session cleared", applog.FieldSessionID, sessionID)

	NewHTMXResponse().
		TriggerSessionCleared().
		TriggerSuccessNotification("Uploaded data cleared").
		BodyHTML(`<div class="success">Session cleared. Upload files to start a new analysis.</div>`).
		Write(w)
}
