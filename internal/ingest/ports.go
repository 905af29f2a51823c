// Package ingest defines the port for turning uploaded tabular files into
// bet records, plus the errors and result shape shared by its adapters.
package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"betmetrics/internal/core"
)

// Result is the outcome of loading one uploaded file.
type Result struct {
	Records []core.BetRecord

	// RowsDropped counts rows excluded for unparseable timestamps or
	// stakes. Dropping a row is a warning, never a file-level failure.
	RowsDropped int
	Warnings    []string
}

// Reader parses one uploaded file into bet records. brandHint assigns a
// source to rows when the file carries no source/brand column of its own.
type Reader interface {
	Read(ctx context.Context, filename string, r io.Reader, brandHint core.Source) (Result, error)
}

// MissingColumnsError rejects a file whose header lacks required columns.
// Other files in the same upload still proceed.
type MissingColumnsError struct {
	File    string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("file %s: missing required columns: %s", e.File, strings.Join(e.Columns, ", "))
}
