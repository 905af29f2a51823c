// Package storage is the audit store: which files were uploaded and which
// report exports ran, kept in SQLite. Bet records themselves never touch
// disk; only this metadata survives a session.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	ExportStatusPending = "pending"
	ExportStatusDone    = "done"
	ExportStatusFailed  = "failed"
)

// UploadAudit is one row of the upload log.
type UploadAudit struct {
	ID          int64
	FileName    string
	BrandHint   string
	RowsLoaded  int
	RowsDropped int
	UploadedAt  time.Time
}

// ReportExport tracks one asynchronous report export.
type ReportExport struct {
	ID          int64
	RequestedAt time.Time
	Status      string
	FilePath    string
	Error       string
}

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(dbPath string) (*AuditRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &AuditRepository{db: db}, nil
}

func (r *AuditRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// RecordUpload logs one uploaded file's outcome and returns the row ID.
func (r *AuditRepository) RecordUpload(ctx context.Context, a UploadAudit) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO upload_audit (file_name, brand_hint, rows_loaded, rows_dropped) VALUES (?, ?, ?, ?)`,
		a.FileName, a.BrandHint, a.RowsLoaded, a.RowsDropped)
	if err != nil {
		return 0, fmt.Errorf("record upload: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("upload audit id: %w", err)
	}

	slog.InfoContext(ctx, "Upload recorded",
		"id", id,
		"file", a.FileName,
		"rows_loaded", a.RowsLoaded,
		"rows_dropped", a.RowsDropped)

	return id, nil
}

// ListRecentUploads returns the newest upload rows, most recent first.
func (r *AuditRepository) ListRecentUploads(ctx context.Context, limit int) ([]UploadAudit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, file_name, brand_hint, rows_loaded, rows_dropped, uploaded_at
		 FROM upload_audit ORDER BY uploaded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent uploads: %w", err)
	}
	defer rows.Close()

	var out []UploadAudit
	for rows.Next() {
		var a UploadAudit
		if err := rows.Scan(&a.ID, &a.FileName, &a.BrandHint, &a.RowsLoaded, &a.RowsDropped, &a.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan upload audit: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateExport registers a pending report export and returns its ID.
func (r *AuditRepository) CreateExport(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO report_exports (status) VALUES (?)`, ExportStatusPending)
	if err != nil {
		return 0, fmt.Errorf("create export: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("export id: %w", err)
	}
	return id, nil
}

// MarkExportDone records where the export worker wrote the report.
func (r *AuditRepository) MarkExportDone(ctx context.Context, id int64, filePath string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE report_exports SET status = ?, file_path = ?, error = '' WHERE id = ?`,
		ExportStatusDone, filePath, id); err != nil {
		return fmt.Errorf("mark export done: %w", err)
	}
	slog.InfoContext(ctx, "Export marked done", "id", id, "path", filePath)
	return nil
}

// MarkExportFailed records the failure reason for an export.
func (r *AuditRepository) MarkExportFailed(ctx context.Context, id int64, errMsg string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE report_exports SET status = ?, error = ? WHERE id = ?`,
		ExportStatusFailed, errMsg, id); err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	slog.WarnContext(ctx, "Export marked failed", "id", id, "error", errMsg)
	return nil
}

// GetExport fetches one export row by ID.
func (r *AuditRepository) GetExport(ctx context.Context, id int64) (*ReportExport, error) {
	var e ReportExport
	err := r.db.QueryRowContext(ctx,
		`SELECT id, requested_at, status, file_path, error FROM report_exports WHERE id = ?`, id).
		Scan(&e.ID, &e.RequestedAt, &e.Status, &e.FilePath, &e.Error)
	if err != nil {
		return nil, fmt.Errorf("get export %d: %w", id, err)
	}
	return &e, nil
}
