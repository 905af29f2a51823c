package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *AuditRepository {
	t.Helper()
	repo, err := NewAuditRepository(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRecordAndListUploads(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.RecordUpload(ctx, UploadAudit{FileName: "a.xlsx", BrandHint: "BETFAIR", RowsLoaded: 10, RowsDropped: 1})
	if err != nil {
		t.Fatalf("record upload: %v", err)
	}
	if first == 0 {
		t.Fatalf("expected non-zero id")
	}
	if _, err := repo.RecordUpload(ctx, UploadAudit{FileName: "b.xlsx", RowsLoaded: 5}); err != nil {
		t.Fatalf("record upload: %v", err)
	}

	uploads, err := repo.ListRecentUploads(ctx, 10)
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(uploads) != 2 {
		t.Fatalf("got %d uploads, want 2", len(uploads))
	}
	// Most recent first.
	if uploads[0].FileName != "b.xlsx" || uploads[1].FileName != "a.xlsx" {
		t.Fatalf("unexpected order: %q, %q", uploads[0].FileName, uploads[1].FileName)
	}
	if uploads[1].RowsLoaded != 10 || uploads[1].RowsDropped != 1 || uploads[1].BrandHint != "BETFAIR" {
		t.Fatalf("stored fields mismatch: %+v", uploads[1])
	}
	if uploads[0].UploadedAt.IsZero() {
		t.Fatalf("uploaded_at should be set")
	}
}

func TestExportLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateExport(ctx)
	if err != nil {
		t.Fatalf("create export: %v", err)
	}

	e, err := repo.GetExport(ctx, id)
	if err != nil {
		t.Fatalf("get export: %v", err)
	}
	if e.Status != ExportStatusPending {
		t.Fatalf("status = %q, want pending", e.Status)
	}

	if err := repo.MarkExportDone(ctx, id, "/exports/report_1.xlsx"); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	e, err = repo.GetExport(ctx, id)
	if err != nil {
		t.Fatalf("get export: %v", err)
	}
	if e.Status != ExportStatusDone || e.FilePath != "/exports/report_1.xlsx" || e.Error != "" {
		t.Fatalf("after done: %+v", e)
	}

	if err := repo.MarkExportFailed(ctx, id, "disk full"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	e, err = repo.GetExport(ctx, id)
	if err != nil {
		t.Fatalf("get export: %v", err)
	}
	if e.Status != ExportStatusFailed || e.Error != "disk full" {
		t.Fatalf("after failure: %+v", e)
	}
}

func TestGetExportMissing(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetExport(context.Background(), 9999); err == nil {
		t.Fatalf("expected error for missing export")
	}
}
