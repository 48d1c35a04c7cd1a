// Package templates holds the HTML components rendered by the web server.
//
// Components are plain templ.Component values so they can be rendered
// directly, served with templ.Handler, or swapped in as HTMX fragments.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// write writes each string to w in order, stopping at the first error.
func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, templ.EscapeString(title), `</title>`,
			`<script src="https://unpkg.com/htmx.org@1.9.12"></script>`,
			`</head><body><main>`,
		); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</main></body></html>`)
	})
}

// Index is the upload page: one form per job kind, each swapping its
// result into the panel below it.
func Index() templ.Component {
	return Layout("fileparse", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<h1>fileparse</h1>`,
			`<section><h2>Parse CSV</h2>`,
			`<form hx-post="/api/csv/parse" hx-encoding="multipart/form-data" hx-target="#csv-result">`,
			`<input type="file" name="file" required>`,
			`<label>Delimiter <input type="text" name="delimiter" value="," size="3"></label>`,
			`<button type="submit">Parse</button></form>`,
			`<div id="csv-result"></div></section>`,
			`<section><h2>Summarise log</h2>`,
			`<form hx-post="/api/log/summary" hx-encoding="multipart/form-data" hx-target="#log-result">`,
			`<input type="file" name="file" required>`,
			`<button type="submit">Summarise</button></form>`,
			`<div id="log-result"></div></section>`,
		)
	}))
}

// ErrorAlert renders a user-facing error with its code and suggested action.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<div class="alert alert-error" role="alert"><strong>`,
			templ.EscapeString(message),
			`</strong>`,
		); err != nil {
			return err
		}
		if action != "" {
			if err := write(w, ` <span class="alert-action">`, templ.EscapeString(action), `</span>`); err != nil {
				return err
			}
		}
		return write(w, ` <code>`, templ.EscapeString(code), `</code></div>`)
	})
}
