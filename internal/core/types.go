package core

import (
	"time"

	"github.com/JonMunkholm/fileparse/internal/csvparse"
	"github.com/JonMunkholm/fileparse/internal/logsummary"
)

// ParseOptions are per-request parser settings. Zero values fall back to the
// service configuration.
type ParseOptions struct {
	Delimiter string
}

// ParseResult is the outcome of one CSV parse job.
type ParseResult struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Bytes       int64          `json:"bytes"`
	Header      []string       `json:"header"`
	RowCount    int            `json:"row_count"`
	Rows        []csvparse.Row `json:"rows"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Table returns the result as a csvparse.Table.
func (r *ParseResult) Table() csvparse.Table {
	return csvparse.Table{Header: r.Header, Rows: r.Rows}
}

// SummaryResult is the outcome of one log summary job.
type SummaryResult struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Bytes       int64              `json:"bytes"`
	Summary     logsummary.Summary `json:"summary"`
	CompletedAt time.Time          `json:"completed_at"`
}

// NormalizeDelimiter maps the names "tab" and `\t` to a tab character.
// Any other value is returned unchanged.
func NormalizeDelimiter(s string) string {
	switch s {
	case "tab", `\t`:
		return "\t"
	}
	return s
}
