// Package logsummary reduces a plain-text log to line, error and warning
// statistics.
package logsummary

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/JonMunkholm/fileparse/internal/textio"
)

// WarningMarker introduces a warning message. Matching is case-sensitive.
const WarningMarker = "WARNING:"

// errorWord is matched case-insensitively anywhere in a line.
const errorWord = "error"

// Summary holds the aggregate statistics for one log.
type Summary struct {
	LineCount  int
	ErrorCount int
	Warnings   map[string]struct{}
}

// HasWarning reports whether msg was collected.
func (s Summary) HasWarning(msg string) bool {
	_, ok := s.Warnings[msg]
	return ok
}

// WarningList returns the unique warning messages sorted.
func (s Summary) WarningList() []string {
	out := make([]string, 0, len(s.Warnings))
	for w := range s.Warnings {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether two summaries hold the same counts and warnings.
func (s Summary) Equal(other Summary) bool {
	if s.LineCount != other.LineCount || s.ErrorCount != other.ErrorCount {
		return false
	}
	if len(s.Warnings) != len(other.Warnings) {
		return false
	}
	for w := range s.Warnings {
		if !other.HasWarning(w) {
			return false
		}
	}
	return true
}

type summaryJSON struct {
	LineCount  int      `json:"line_count"`
	ErrorCount int      `json:"error_count"`
	Warnings   []string `json:"warnings"`
}

// MarshalJSON encodes warnings as a sorted array.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		LineCount:  s.LineCount,
		ErrorCount: s.ErrorCount,
		Warnings:   s.WarningList(),
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var raw summaryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.LineCount = raw.LineCount
	s.ErrorCount = raw.ErrorCount
	s.Warnings = make(map[string]struct{}, len(raw.Warnings))
	for _, w := range raw.Warnings {
		s.Warnings[w] = struct{}{}
	}
	return nil
}

// SummariseText summarises log content already in memory.
//
// A line counts toward ErrorCount and contributes a warning independently,
// so one line may do both.
func SummariseText(content string) Summary {
	s := Summary{Warnings: make(map[string]struct{})}

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.LineCount++

		if strings.Contains(strings.ToLower(line), errorWord) {
			s.ErrorCount++
		}

		if _, msg, ok := strings.Cut(line, WarningMarker); ok {
			s.Warnings[strings.TrimSpace(msg)] = struct{}{}
		}
	}

	return s
}

// SummariseReader reads r to EOF as UTF-8 text and summarises it.
func SummariseReader(r io.Reader) (Summary, error) {
	data, err := io.ReadAll(textio.Wrap(r, 0))
	if err != nil {
		return Summary{}, fmt.Errorf("reading log: %w", err)
	}
	return SummariseText(string(data)), nil
}

// Summarise reads the log file at path and summarises it. A missing file
// yields *textio.NotFoundError.
func Summarise(path string) (Summary, error) {
	content, err := textio.ReadText(path)
	if err != nil {
		return Summary{}, err
	}
	return SummariseText(content), nil
}
