package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/JonMunkholm/fileparse/internal/core"
	"github.com/JonMunkholm/fileparse/internal/logging"
	"github.com/JonMunkholm/fileparse/internal/textio"
	"github.com/JonMunkholm/fileparse/internal/web/templates"
	"github.com/a-h/templ"
)

// multipartOverhead is the allowance for multipart headers and boundaries on
// top of Limits.MaxFileSize. The exact file limit is enforced by the service.
const multipartOverhead = 1 << 20

// upload is the file content of a request, from a multipart "file" part or
// the raw body.
type upload struct {
	name      string
	body      io.Reader
	delimiter string
	close     func() error
}

// readUpload extracts the input from r. Multipart requests must carry a
// "file" part; any other content type is read as the raw body. The
// delimiter comes from the "delimiter" form field or query parameter.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Limits.MaxFileSize+multipartOverhead)

	// Anything that is not well-formed multipart, including a malformed or
	// missing Content-Type, is read as the raw body.
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "body"
		}
		return &upload{
			name:      name,
			body:      r.Body,
			delimiter: core.NormalizeDelimiter(r.URL.Query().Get("delimiter")),
			close:     func() error { return nil },
		}, nil
	}

	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: %w", textio.ErrTooLarge, err)
		}
		return nil, fmt.Errorf("%w: %w", core.ErrNoInput, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, core.ErrNoInput
		}
		return nil, err
	}

	return &upload{
		name:      header.Filename,
		body:      file,
		delimiter: core.NormalizeDelimiter(r.FormValue("delimiter")),
		close:     file.Close,
	}, nil
}

// handleParseCSV parses the uploaded CSV and returns the table.
func (s *Server) handleParseCSV(w http.ResponseWriter, r *http.Request) {
	in, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer in.close()

	result, err := s.service.ParseCSV(r.Context(), in.name, in.body, core.ParseOptions{Delimiter: in.delimiter})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if wantsHTML(r) {
		render(w, r, templates.TableView(result.Name, result.Table()))
		return
	}
	writeJSON(w, result)
}

// handleSummariseLog summarises the uploaded log.
func (s *Server) handleSummariseLog(w http.ResponseWriter, r *http.Request) {
	in, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer in.close()

	result, err := s.service.SummariseLog(r.Context(), in.name, in.body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if wantsHTML(r) {
		render(w, r, templates.SummaryView(result.Name, result.Summary))
		return
	}
	writeJSON(w, result)
}

// StatusResponse reports service health and job slot usage.
type StatusResponse struct {
	Status string             `json:"status"`
	Jobs   core.LimiterStatus `json:"jobs"`
	Time   time.Time          `json:"time"`
}

// handleStatus returns the current state of the job limiter.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StatusResponse{
		Status: "ok",
		Jobs:   s.service.LimiterStatus(),
		Time:   time.Now().UTC(),
	})
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

// render writes an HTML component, logging failures since headers are sent.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error", "error", err)
	}
}
