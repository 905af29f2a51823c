// Package excel reads uploaded .xlsx workbooks into bet records using
// excelize. Only the first sheet of each workbook is consulted.
package excel

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"betmetrics/internal/core"
	"betmetrics/internal/ingest"
)

// Required header columns. Matching is case-insensitive after trimming.
var requiredColumns = []string{
	"BetId",
	"TotalStakeGBP",
	"CustomerId",
	"MarketName",
	"SelectionName",
	"TimeBetStruckAt",
}

// sourceColumns is the explicit precedence order for the column naming the
// originating bookmaker. The first present column wins.
var sourceColumns = []string{"Source", "Brand", "Operator"}

// timestampLayouts are tried in order against TimeBetStruckAt cells.
// A date-only value struck the bet at midnight.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

// maxWarnings caps the per-file warning list so a thoroughly broken file
// does not flood the UI.
const maxWarnings = 10

type Reader struct{}

func New() *Reader {
	return &Reader{}
}

// Read parses the workbook into bet records. A missing required column
// rejects the whole file with *ingest.MissingColumnsError; rows with
// unparseable timestamps or stakes are dropped and counted instead.
func (*Reader) Read(ctx context.Context, filename string, r io.Reader, brandHint core.Source) (ingest.Result, error) {
	var res ingest.Result

	xl, err := excelize.OpenReader(r)
	if err != nil {
		return res, fmt.Errorf("open workbook %s: %w", filename, err)
	}
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	if sheet == "" {
		return res, &ingest.MissingColumnsError{File: filename, Columns: requiredColumns}
	}
	rows, err := xl.GetRows(sheet)
	if err != nil {
		return res, fmt.Errorf("read sheet %s of %s: %w", sheet, filename, err)
	}
	if len(rows) == 0 {
		return res, &ingest.MissingColumnsError{File: filename, Columns: requiredColumns}
	}

	cols, missing := mapColumns(rows[0])
	if len(missing) > 0 {
		return res, &ingest.MissingColumnsError{File: filename, Columns: missing}
	}
	srcCol := sourceColumn(rows[0])

	warn := func(format string, args ...any) {
		if len(res.Warnings) < maxWarnings {
			res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
		}
	}

	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if emptyRow(row) {
			continue
		}
		rowNum := i + 2 // 1-based, after the header

		betID := strings.TrimSpace(cell(row, cols["betid"]))
		if betID == "" {
			res.RowsDropped++
			warn("row %d: empty BetId", rowNum)
			continue
		}

		struckAt, ok := parseTimestamp(cell(row, cols["timebetstruckat"]))
		if !ok {
			res.RowsDropped++
			warn("row %d: unparseable timestamp %q", rowNum, cell(row, cols["timebetstruckat"]))
			continue
		}

		pence, err := core.ParseDecimalToPence(cell(row, cols["totalstakegbp"]))
		if err != nil {
			res.RowsDropped++
			warn("row %d: unparseable stake %q", rowNum, cell(row, cols["totalstakegbp"]))
			continue
		}

		source := brandHint
		if srcCol >= 0 {
			raw := strings.TrimSpace(cell(row, srcCol))
			if raw != "" {
				// An unrecognized value stays unknown rather than
				// inheriting the hint: the row named a bookmaker we
				// do not track.
				source, _ = core.ParseSource(raw)
			}
		}

		res.Records = append(res.Records, core.BetRecord{
			BetID:      betID,
			Stake:      core.Money{Pence: pence},
			CustomerID: strings.TrimSpace(cell(row, cols["customerid"])),
			Market:     strings.TrimSpace(cell(row, cols["marketname"])),
			Selection:  strings.TrimSpace(cell(row, cols["selectionname"])),
			StruckAt:   struckAt,
			Source:     source,
		})
	}

	return res, nil
}

// mapColumns resolves required column indexes from the header row and
// reports which required columns are absent.
func mapColumns(header []string) (map[string]int, []string) {
	index := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, taken := index[key]; key != "" && !taken {
			index[key] = i
		}
	}
	cols := map[string]int{}
	var missing []string
	for _, name := range requiredColumns {
		key := strings.ToLower(name)
		i, ok := index[key]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[key] = i
	}
	return cols, missing
}

// sourceColumn returns the index of the first source-naming column present
// in the header, or -1 when the file carries none.
func sourceColumn(header []string) int {
	for _, name := range sourceColumns {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
	}
	return -1
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
