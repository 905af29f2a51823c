package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"betmetrics/internal/core"
	"betmetrics/internal/ingest/excel"
	"betmetrics/internal/session"
	"betmetrics/internal/storage"
)

var header = []string{"BetId", "TotalStakeGBP", "CustomerId", "MarketName", "SelectionName", "TimeBetStruckAt", "Source"}

func buildWorkbook(t *testing.T, rows [][]string) *bytes.Reader {
	t.Helper()
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()
	sheet := xl.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := xl.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}
	buf, err := xl.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func newTestService(t *testing.T, audit *storage.AuditRepository) (*AnalysisService, *session.Store) {
	t.Helper()
	sessions := session.NewStore(10, time.Hour)
	svc := NewAnalysisService(excel.New(), sessions, audit, nil)
	return svc, sessions
}

func TestIngestFileAppendsToSession(t *testing.T) {
	svc, sessions := newTestService(t, nil)
	sess := sessions.Create()

	wb := buildWorkbook(t, [][]string{
		header,
		{"B1", "10.00", "C1", "Match Odds", "Home", "2025-03-01 14:30:00", "BETFAIR"},
		{"B2", "5.00", "C2", "Match Odds", "Away", "2025-03-02 09:00:00", "SKYBET"},
		{"B3", "bad", "C3", "Match Odds", "Draw", "2025-03-03 10:00:00", "BETFAIR"},
	})

	summary, err := svc.IngestFile(context.Background(), sess.ID, "bets.xlsx", wb, core.SourceUnknown)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}
	if summary.Rows != 2 {
		t.Errorf("Rows = %d, want 2", summary.Rows)
	}
	if summary.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", summary.Dropped)
	}
	if got := len(sessions.Records(sess.ID)); got != 2 {
		t.Errorf("session holds %d records, want 2", got)
	}
}

func TestIngestFileUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, nil)

	wb := buildWorkbook(t, [][]string{
		header,
		{"B1", "10.00", "C1", "Match Odds", "Home", "2025-03-01 14:30:00", "BETFAIR"},
	})

	_, err := svc.IngestFile(context.Background(), "sess_missing", "bets.xlsx", wb, core.SourceUnknown)
	if !errors.Is(err, session.ErrUnknownSession) {
		t.Errorf("error = %v, want ErrUnknownSession", err)
	}
}

func TestIngestFileRecordsAudit(t *testing.T) {
	repo, err := storage.NewAuditRepository(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("NewAuditRepository() error = %v", err)
	}
	defer repo.Close()

	svc, sessions := newTestService(t, repo)
	sess := sessions.Create()

	wb := buildWorkbook(t, [][]string{
		header,
		{"B1", "10.00", "C1", "Match Odds", "Home", "2025-03-01 14:30:00", "BETFAIR"},
	})

	if _, err := svc.IngestFile(context.Background(), sess.ID, "bets.xlsx", wb, core.SourceBetfair); err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}

	uploads, err := repo.ListRecentUploads(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListRecentUploads() error = %v", err)
	}
	if len(uploads) != 1 {
		t.Fatalf("got %d audit rows, want 1", len(uploads))
	}
	if uploads[0].FileName != "bets.xlsx" {
		t.Errorf("FileName = %q, want %q", uploads[0].FileName, "bets.xlsx")
	}
	if uploads[0].RowsLoaded != 1 {
		t.Errorf("RowsLoaded = %d, want 1", uploads[0].RowsLoaded)
	}
}

func TestAnalyzeFiltersAndAggregates(t *testing.T) {
	svc, sessions := newTestService(t, nil)
	sess := sessions.Create()

	wb := buildWorkbook(t, [][]string{
		header,
		{"B1", "10.00", "C1", "Match Odds", "Home", "2025-03-01 14:30:00", "BETFAIR"},
		{"B2", "5.00", "C2", "Match Odds", "Away", "2025-03-02 09:00:00", "BETFAIR"},
		{"B3", "2.00", "C3", "Correct Score", "1-0", "2025-03-03 10:00:00", "SKYBET"},
	})
	if _, err := svc.IngestFile(context.Background(), sess.ID, "bets.xlsx", wb, core.SourceUnknown); err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}

	report, err := svc.Analyze(context.Background(), sess.ID, core.Filter{Markets: []string{"Match Odds"}})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Overall.UniqueBets != 2 {
		t.Errorf("Overall.UniqueBets = %d, want 2", report.Overall.UniqueBets)
	}
	if report.Overall.TotalStake.Pence != 1500 {
		t.Errorf("Overall.TotalStake = %d pence, want 1500", report.Overall.TotalStake.Pence)
	}

	if _, err := svc.Analyze(context.Background(), "sess_missing", core.Filter{}); !errors.Is(err, session.ErrUnknownSession) {
		t.Errorf("Analyze(unknown session) error = %v, want ErrUnknownSession", err)
	}
}

func TestFilterOptionsDependentSelections(t *testing.T) {
	svc, sessions := newTestService(t, nil)
	sess := sessions.Create()

	wb := buildWorkbook(t, [][]string{
		header,
		{"B1", "10.00", "C1", "Match Odds", "Home", "2025-03-01 14:30:00", "BETFAIR"},
		{"B2", "5.00", "C2", "Correct Score", "1-0", "2025-03-02 09:00:00", "BETFAIR"},
	})
	if _, err := svc.IngestFile(context.Background(), sess.ID, "bets.xlsx", wb, core.SourceUnknown); err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}

	markets, selections, minTime, maxTime := svc.FilterOptions(sess.ID, []string{"Match Odds"})
	if len(markets) != 2 {
		t.Errorf("got %d markets, want 2", len(markets))
	}
	if len(selections) != 1 || selections[0] != "Home" {
		t.Errorf("selections = %v, want [Home]", selections)
	}
	if minTime.IsZero() || maxTime.IsZero() || !minTime.Before(maxTime) {
		t.Errorf("time range [%v, %v] is not ordered", minTime, maxTime)
	}
}

func TestExportReportUnavailableWithoutQueue(t *testing.T) {
	svc, sessions := newTestService(t, nil)
	sess := sessions.Create()

	if _, err := svc.ExportReport(context.Background(), sess.ID, core.Filter{}); !errors.Is(err, ErrExportUnavailable) {
		t.Errorf("error = %v, want ErrExportUnavailable", err)
	}
}

func TestFilterSummary(t *testing.T) {
	if got := filterSummary(core.Filter{}); got != "no filters" {
		t.Errorf("filterSummary(empty) = %q, want %q", got, "no filters")
	}

	f := core.Filter{
		Markets:    []string{"Match Odds"},
		Selections: []string{"Home", "Away"},
		From:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	got := filterSummary(f)
	want := "markets=Match Odds selections=Home|Away from=2025-03-01T00:00:00Z"
	if got != want {
		t.Errorf("filterSummary() = %q, want %q", got, want)
	}
}
