package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"betmetrics/internal/services"
	"betmetrics/internal/session"
)

type optionsData struct {
	Markets       []string
	ChosenMarkets []string
	Selections    []string
	MinTime       string
	MaxTime       string
}

// handleFilterOptions renders the filter controls partial. Selections
// depend on the chosen markets, so the partial is re-requested whenever
// the market choice changes.
func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid filter parameters").Write(w)
		return
	}

	sessionID := s.ensureSession(w, r)
	chosen := cleanValues(r.Form["markets"])
	markets, selections, minTime, maxTime := s.svc.FilterOptions(sessionID, chosen)

	data := optionsData{
		Markets:       markets,
		ChosenMarkets: chosen,
		Selections:    selections,
		MinTime:       formatBound(minTime),
		MaxTime:       formatBound(maxTime),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "filter_options.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Filter options template execution failed", "error", err, "template", "filter_options.html")
		InternalServerError("Could not render filter options").Write(w)
	}
}

type resultRow struct {
	Label           string
	UniqueBets      int
	TotalStake      string
	UniqueCustomers int
}

type resultsData struct {
	Rows          []resultRow
	Overall       resultRow
	UnknownSource int
	RowsDropped   int
	FilteredEmpty bool
}

// handleResults computes and renders the per-source metrics table for
// the current filter.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid filter parameters").Write(w)
		return
	}

	sessionID := s.ensureSession(w, r)
	filter, err := parseFilter(r)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	report, err := s.svc.Analyze(r.Context(), sessionID, filter)
	if err != nil {
		if errors.Is(err, session.ErrUnknownSession) {
			UnprocessableEntityError("Session expired, upload files again").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Analysis error", "error", err)
		InternalServerError("Could not compute report").Write(w)
		return
	}

	data := resultsData{UnknownSource: report.UnknownSource}
	for _, row := range report.Rows {
		data.Rows = append(data.Rows, resultRow{
			Label:           row.Source.DisplayName(),
			UniqueBets:      row.UniqueBets,
			TotalStake:      formatPounds(row.TotalStake.Pence),
			UniqueCustomers: row.UniqueCustomers,
		})
	}
	data.Overall = resultRow{
		Label:           "Overall",
		UniqueBets:      report.Overall.UniqueBets,
		TotalStake:      formatPounds(report.Overall.TotalStake.Pence),
		UniqueCustomers: report.Overall.UniqueCustomers,
	}
	data.FilteredEmpty = report.Overall.UniqueBets == 0
	for _, f := range s.sessions.Files(sessionID) {
		data.RowsDropped += f.Dropped
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "results.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Results template execution failed", "error", err, "template", "results.html")
		InternalServerError("Could not render results").Write(w)
	}
}

// handleExport queues the current report for asynchronous export.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid filter parameters").Write(w)
		return
	}

	sessionID := s.ensureSession(w, r)
	filter, err := parseFilter(r)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	exportID, err := s.svc.ExportReport(r.Context(), sessionID, filter)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrExportUnavailable):
			ErrorResponse(http.StatusServiceUnavailable, "Report export is not configured on this instance").Write(w)
		case errors.Is(err, session.ErrUnknownSession):
			UnprocessableEntityError("Session expired, upload files again").Write(w)
		default:
			slog.ErrorContext(r.Context(), "Export error", "error", err)
			InternalServerError("Could not queue export").Write(w)
		}
		return
	}

	NewHTMXResponse().
		TriggerExportQueued(exportID).
		TriggerSuccessNotification("Report export queued").
		BodyHTML(`<div class="success">Export #` + strconv.FormatInt(exportID, 10) + ` queued</div>`).
		Write(w)
}
