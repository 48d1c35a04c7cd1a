package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/JonMunkholm/fileparse/internal/csvparse"
	"github.com/JonMunkholm/fileparse/internal/logsummary"
	"github.com/a-h/templ"
)

// TableView renders a parsed table. Absent fields show as an empty muted
// cell; extra fields get their own columns after the header columns.
func TableView(name string, table csvparse.Table) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		columns := tableColumns(table)

		if err := write(w,
			`<div class="result"><p>`, templ.EscapeString(name), `: `,
			strconv.Itoa(table.Len()), ` rows</p><table><thead><tr>`,
		); err != nil {
			return err
		}
		for _, col := range columns {
			if err := write(w, `<th>`, templ.EscapeString(col), `</th>`); err != nil {
				return err
			}
		}
		if err := write(w, `</tr></thead><tbody>`); err != nil {
			return err
		}

		for _, row := range table.Rows {
			if err := write(w, `<tr>`); err != nil {
				return err
			}
			for _, col := range columns {
				f, ok := row.Get(col)
				if !ok || f.IsAbsent() {
					if err := write(w, `<td class="absent"></td>`); err != nil {
						return err
					}
					continue
				}
				if err := write(w, `<td>`, templ.EscapeString(f.Text), `</td>`); err != nil {
					return err
				}
			}
			if err := write(w, `</tr>`); err != nil {
				return err
			}
		}
		return write(w, `</tbody></table></div>`)
	})
}

// tableColumns returns the header followed by every extra key, in first-seen order.
func tableColumns(table csvparse.Table) []string {
	columns := append([]string(nil), table.Header...)
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}
	for _, row := range table.Rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	return columns
}

// SummaryView renders a log summary.
func SummaryView(name string, s logsummary.Summary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<div class="result"><p>`, templ.EscapeString(name), `</p><dl>`,
			`<dt>Lines</dt><dd>`, strconv.Itoa(s.LineCount), `</dd>`,
			`<dt>Errors</dt><dd>`, strconv.Itoa(s.ErrorCount), `</dd>`,
			`</dl><h3>Warnings</h3>`,
		); err != nil {
			return err
		}

		warnings := s.WarningList()
		if len(warnings) == 0 {
			return write(w, `<p>None</p></div>`)
		}
		if err := write(w, `<ul>`); err != nil {
			return err
		}
		for _, msg := range warnings {
			if err := write(w, `<li>`, templ.EscapeString(msg), `</li>`); err != nil {
				return err
			}
		}
		return write(w, `</ul></div>`)
	})
}
