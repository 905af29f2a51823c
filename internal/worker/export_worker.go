// Package worker turns queued report-export requests into xlsx files.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"betmetrics/internal/amqp"
	applog "betmetrics/internal/log"
	"betmetrics/internal/storage"
)

const exportSheetName = "Report"

// ExportWorker writes report workbooks to disk and records the outcome
// in the audit store.
type ExportWorker struct {
	audit     *storage.AuditRepository
	exportDir string
}

func NewExportWorker(audit *storage.AuditRepository, exportDir string) *ExportWorker {
	return &ExportWorker{
		audit:     audit,
		exportDir: exportDir,
	}
}

// HandleExportMessage builds the workbook for one export request. A
// failure is recorded against the export before the error is returned,
// so requeued retries still leave an audit trail.
func (w *ExportWorker) HandleExportMessage(msg *amqp.ReportExportMessage) error {
	ctx := context.Background()

	fields := applog.NewFields().
		WithComponent(applog.ComponentWorker).
		WithOperation(applog.OpExport)
	fields[applog.FieldExportID] = msg.ExportID

	path, err := w.writeWorkbook(msg)
	if err != nil {
		if markErr := w.audit.MarkExportFailed(ctx, msg.ExportID, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record export failure",
				fields.WithError(markErr).ToSlice()...)
		}
		return fmt.Errorf("write workbook for export %d: %w", msg.ExportID, err)
	}

	if err := w.audit.MarkExportDone(ctx, msg.ExportID, path); err != nil {
		return fmt.Errorf("mark export %d done: %w", msg.ExportID, err)
	}

	fields[applog.FieldExportPath] = path
	fields["rows"] = len(msg.Rows)
	slog.InfoContext(ctx, "Report export written", fields.ToSlice()...)

	return nil
}

func (w *ExportWorker) writeWorkbook(msg *amqp.ReportExportMessage) (string, error) {
	if err := os.MkdirAll(w.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), exportSheetName)

	header := []interface{}{"Source", "Unique Bets", "Total Stakes", "Unique Customers"}
	if err := f.SetSheetRow(exportSheetName, "A1", &header); err != nil {
		return "", fmt.Errorf("write header row: %w", err)
	}

	rowNum := 2
	for _, row := range msg.Rows {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return "", fmt.Errorf("compute cell for row %d: %w", rowNum, err)
		}
		values := []interface{}{
			row.Label,
			row.UniqueBets,
			formatPence(row.TotalStakePence),
			row.UniqueCustomers,
		}
		if err := f.SetSheetRow(exportSheetName, cell, &values); err != nil {
			return "", fmt.Errorf("write row %d: %w", rowNum, err)
		}
		rowNum++
	}

	rowNum++ // blank separator line
	if msg.FilterSummary != "" {
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		note := []interface{}{"Filters", msg.FilterSummary}
		if err := f.SetSheetRow(exportSheetName, cell, &note); err != nil {
			return "", fmt.Errorf("write filter note: %w", err)
		}
		rowNum++
	}
	if msg.UnknownSource > 0 {
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		note := []interface{}{"Unknown source bets excluded", msg.UnknownSource}
		if err := f.SetSheetRow(exportSheetName, cell, &note); err != nil {
			return "", fmt.Errorf("write unknown-source note: %w", err)
		}
	}

	fileName := fmt.Sprintf("report_%d_%s.xlsx", msg.ExportID, msg.RequestedAt.Format("20060102_150405"))
	path := filepath.Join(w.exportDir, fileName)

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	return path, nil
}

func formatPence(pence int64) string {
	sign := ""
	if pence < 0 {
		sign = "-"
		pence = -pence
	}
	return fmt.Sprintf("%s£%d.%02d", sign, pence/100, pence%100)
}
