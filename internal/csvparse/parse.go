// Package csvparse converts simple delimiter-separated text into ordered,
// header-keyed rows.
//
// The format is deliberately narrow: the first non-blank line is the header,
// every later non-blank line is a data row, and fields are split on the
// delimiter with no quoting or escaping. All values stay text.
//
// Rows shorter than the header are padded with the absent marker; rows longer
// than the header carry their surplus under extra_1, extra_2, and so on:
//
//	table, err := csvparse.Parse("id,value\n1,foo\n2")
//	// table.Rows[1].Get("value") -> Field{Kind: Absent}
package csvparse

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultDelimiter separates fields when Options.Delimiter is empty.
const DefaultDelimiter = ","

// ExtraKeyPrefix names surplus fields: extra_1, extra_2, ...
const ExtraKeyPrefix = "extra_"

// ErrInvalidDelimiter is returned when the delimiter contains a line break.
var ErrInvalidDelimiter = errors.New("csvparse: delimiter must not contain a line break")

// FormatError reports input with no discoverable header line.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "csvparse: invalid csv: " + e.Reason
}

// Options tune the parser.
type Options struct {
	// Delimiter separates fields within a line (default ",").
	Delimiter string
}

// Parse parses content using the default options.
func Parse(content string) (Table, error) {
	return ParseWith(content, Options{})
}

// ParseReader reads r to EOF and parses the result.
func ParseReader(r io.Reader, opts Options) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("reading csv input: %w", err)
	}
	return ParseWith(string(data), opts)
}

// ParseWith parses content into a Table.
//
// It fails with *FormatError only when the input holds no non-blank line to
// use as the header. A header with no data rows yields an empty Table.
func ParseWith(content string, opts Options) (Table, error) {
	delim := opts.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}
	if strings.ContainsAny(delim, "\r\n") {
		return Table{}, ErrInvalidDelimiter
	}

	var (
		header    []string
		hasHeader bool
		rows      []Row
	)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := splitTrimmed(line, delim)
		if !hasHeader {
			header = uniqueKeys(fields)
			hasHeader = true
			continue
		}
		rows = append(rows, buildRow(header, fields))
	}

	if !hasHeader {
		return Table{}, &FormatError{Reason: "no header line found"}
	}

	return Table{Header: header, Rows: rows}, nil
}

// splitTrimmed splits line on delim and trims whitespace from every field.
func splitTrimmed(line, delim string) []string {
	parts := strings.Split(line, delim)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// buildRow zips fields against header positionally.
func buildRow(header, fields []string) Row {
	row := newRow(max(len(header), len(fields)))

	for i, name := range header {
		if i < len(fields) {
			row.set(name, PresentField(fields[i]))
		} else {
			row.set(name, AbsentField())
		}
	}

	for k := 1; len(header)+k-1 < len(fields); k++ {
		key := ExtraKeyPrefix + strconv.Itoa(k)
		for row.has(key) {
			key += "_"
		}
		row.set(key, ExtraField(fields[len(header)+k-1], k))
	}

	return row
}

// uniqueKeys returns names with repeats suffixed (_2, _3, ...) so every
// header position keeps its own key.
func uniqueKeys(names []string) []string {
	used := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		key := name
		for n := 2; used[key]; n++ {
			key = name + "_" + strconv.Itoa(n)
		}
		used[key] = true
		out[i] = key
	}
	return out
}
