// Package services orchestrates ingestion, analysis and export around the
// session store, the audit store and the export queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"betmetrics/internal/amqp"
	"betmetrics/internal/core"
	"betmetrics/internal/ingest"
	applog "betmetrics/internal/log"
	"betmetrics/internal/session"
	"betmetrics/internal/storage"
)

// ErrExportUnavailable is returned when an export is requested but the
// instance runs without an export queue or audit store.
var ErrExportUnavailable = errors.New("report export is not configured")

// AnalysisService orchestrates uploads and report computation. Records
// live only in the session store; SQLite keeps audit metadata and AMQP
// carries export requests, both optional.
type AnalysisService struct {
	reader     ingest.Reader
	sessions   *session.Store
	audit      *storage.AuditRepository
	amqpClient *amqp.Client
}

func NewAnalysisService(reader ingest.Reader, sessions *session.Store, audit *storage.AuditRepository, amqpClient *amqp.Client) *AnalysisService {
	return &AnalysisService{
		reader:     reader,
		sessions:   sessions,
		audit:      audit,
		amqpClient: amqpClient,
	}
}

// IngestFile parses one uploaded file and appends its records to the
// session. The audit row is best effort: a storage failure is logged but
// never fails the upload.
func (s *AnalysisService) IngestFile(ctx context.Context, sessionID, filename string, r io.Reader, brand core.Source) (session.FileSummary, error) {
	result, err := s.reader.Read(ctx, filename, r, brand)
	if err != nil {
		return session.FileSummary{}, err
	}

	summary := session.FileSummary{
		Name:     filename,
		Brand:    brand,
		Rows:     len(result.Records),
		Dropped:  result.RowsDropped,
		Warnings: result.Warnings,
	}

	if err := s.sessions.Append(sessionID, summary, result.Records); err != nil {
		return session.FileSummary{}, fmt.Errorf("append to session: %w", err)
	}

	if s.audit != nil {
		_, auditErr := s.audit.RecordUpload(ctx, storage.UploadAudit{
			FileName:    filename,
			BrandHint:   string(brand),
			RowsLoaded:  len(result.Records),
			RowsDropped: result.RowsDropped,
		})
		if auditErr != nil {
			slog.ErrorContext(ctx, "Failed to record upload audit",
				"file", filename, "error", auditErr)
		}
	}

	fields := applog.NewFields().
		WithComponent(applog.ComponentAnalysis).
		WithOperation(applog.OpUpload).
		WithUpload(filename, len(result.Records), result.RowsDropped)
	fields[applog.FieldSessionID] = sessionID
	slog.InfoContext(ctx, "File ingested", fields.ToSlice()...)

	return summary, nil
}

// Analyze filters the session's records and aggregates them into a
// report. It has no side effects: the same session and filter always
// yield the same report.
func (s *AnalysisService) Analyze(ctx context.Context, sessionID string, f core.Filter) (core.Report, error) {
	if !s.sessions.Lookup(sessionID) {
		return core.Report{}, session.ErrUnknownSession
	}
	records := s.sessions.Records(sessionID)
	return core.Aggregate(f.Apply(records)), nil
}

// FilterOptions returns the distinct markets, the selections available
// under the chosen markets, and the struck-time range of the session's
// records.
func (s *AnalysisService) FilterOptions(sessionID string, chosenMarkets []string) (markets, selections []string, minTime, maxTime time.Time) {
	records := s.sessions.Records(sessionID)
	markets = core.Markets(records)
	selections = core.Selections(records, chosenMarkets)
	minTime, maxTime = core.TimeRange(records)
	return markets, selections, minTime, maxTime
}

// ExportReport computes the report for the filter and queues it for the
// export worker. It returns the export's audit ID for status tracking.
func (s *AnalysisService) ExportReport(ctx context.Context, sessionID string, f core.Filter) (int64, error) {
	if s.audit == nil || s.amqpClient == nil {
		return 0, ErrExportUnavailable
	}

	report, err := s.Analyze(ctx, sessionID, f)
	if err != nil {
		return 0, err
	}

	exportID, err := s.audit.CreateExport(ctx)
	if err != nil {
		return 0, fmt.Errorf("create export record: %w", err)
	}

	msg := amqp.NewReportExportMessage(exportID, filterSummary(f), exportRows(report), report.UnknownSource)
	if err := s.amqpClient.PublishReportExport(ctx, msg); err != nil {
		if markErr := s.audit.MarkExportFailed(ctx, exportID, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record export failure",
				"export_id", exportID, "error", markErr)
		}
		return 0, fmt.Errorf("queue export: %w", err)
	}

	fields := applog.NewFields().
		WithComponent(applog.ComponentAnalysis).
		WithOperation(applog.OpExport)
	fields[applog.FieldExportID] = exportID
	fields[applog.FieldSessionID] = sessionID
	slog.InfoContext(ctx, "Report export queued", fields.ToSlice()...)

	return exportID, nil
}

func exportRows(report core.Report) []amqp.ReportRow {
	rows := make([]amqp.ReportRow, 0, len(report.Rows)+1)
	for _, r := range report.Rows {
		rows = append(rows, amqp.ReportRow{
			Label:           r.Source.DisplayName(),
			UniqueBets:      r.UniqueBets,
			TotalStakePence: r.TotalStake.Pence,
			UniqueCustomers: r.UniqueCustomers,
		})
	}
	rows = append(rows, amqp.ReportRow{
		Label:           "Overall",
		UniqueBets:      report.Overall.UniqueBets,
		TotalStakePence: report.Overall.TotalStake.Pence,
		UniqueCustomers: report.Overall.UniqueCustomers,
	})
	return rows
}

func filterSummary(f core.Filter) string {
	var parts []string
	if len(f.Markets) > 0 {
		parts = append(parts, "markets="+strings.Join(f.Markets, "|"))
	}
	if len(f.Selections) > 0 {
		parts = append(parts, "selections="+strings.Join(f.Selections, "|"))
	}
	if !f.From.IsZero() {
		parts = append(parts, "from="+f.From.Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		parts = append(parts, "to="+f.To.Format(time.RFC3339))
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, " ")
}
