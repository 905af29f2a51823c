package amqp

import (
	"encoding/json"
	"time"
)

// ReportRow is one line of an exported metrics table. Stakes travel as
// pence so the message stays exact.
type ReportRow struct {
	Label           string `json:"label"`
	UniqueBets      int    `json:"unique_bets"`
	TotalStakePence int64  `json:"total_stake_pence"`
	UniqueCustomers int    `json:"unique_customers"`
}

// ReportExportMessage asks the export worker to write an analysis report
// to disk. The computed rows travel in the message because the record set
// behind them is session-scoped and never persisted.
type ReportExportMessage struct {
	ExportID      int64       `json:"export_id"`
	FilterSummary string      `json:"filter_summary"`
	Rows          []ReportRow `json:"rows"`
	UnknownSource int         `json:"unknown_source"`
	RequestedAt   time.Time   `json:"requested_at"`
}

// NewReportExportMessage creates an export request for the given rows.
func NewReportExportMessage(exportID int64, filterSummary string, rows []ReportRow, unknownSource int) *ReportExportMessage {
	return &ReportExportMessage{
		ExportID:      exportID,
		FilterSummary: filterSummary,
		Rows:          rows,
		UnknownSource: unknownSource,
		RequestedAt:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportExportMessageFromJSON creates a message from JSON bytes
func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
