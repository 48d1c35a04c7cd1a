package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/fileparse/internal/config"
	"github.com/JonMunkholm/fileparse/internal/core"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	svc, err := core.NewService(cfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	srv := NewServer(svc)
	t.Cleanup(srv.Close)
	return srv
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type parseResponse struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Header   []string             `json:"header"`
	RowCount int                  `json:"row_count"`
	Rows     []map[string]*string `json:"rows"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func strp(s string) *string { return &s }

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy missing")
	}
}

func TestSecurityHeaders_CSPDisabled(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Security.EnableCSP = false })

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got := rec.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("Content-Security-Policy = %q, want unset", got)
	}
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `hx-post="/api/csv/parse"`) {
		t.Errorf("index page missing parse form: %s", rec.Body.String())
	}
}

func TestParseCSV_RawBody(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/csv/parse?name=data.csv", strings.NewReader("id,value\n1,foo\n2"))
	req.Header.Set("Content-Type", "text/csv")
	rec := do(srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got := decode[parseResponse](t, rec)
	if got.Name != "data.csv" || got.RowCount != 2 || got.ID == "" {
		t.Errorf("unexpected response: %+v", got)
	}
	want := []map[string]*string{
		{"id": strp("1"), "value": strp("foo")},
		{"id": strp("2"), "value": nil},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCSV_MalformedContentTypeReadsBody(t *testing.T) {
	srv := newTestServer(t, nil)

	// The media type is multipart but the parameter is malformed, so the
	// body is taken as-is rather than parsed as a form.
	req := httptest.NewRequest(http.MethodPost, "/api/csv/parse", strings.NewReader("a,b\n1,2"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary")
	rec := do(srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got := decode[parseResponse](t, rec)
	if got.Name != "body" || got.RowCount != 1 {
		t.Errorf("unexpected response: %+v", got)
	}
}

func TestParseCSV_KeepsKeyOrder(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/csv/parse", strings.NewReader("b,a\n1,2,3"))
	rec := do(srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `{"b":"1","a":"2","extra_1":"3"}`) {
		t.Errorf("row not in column order: %s", rec.Body.String())
	}
}

func TestParseCSV_Multipart(t *testing.T) {
	srv := newTestServer(t, nil)

	req := multipartRequest(t, "/api/csv/parse", "semi.csv", "a;b\n1;2\n", map[string]string{"delimiter": ";"})
	rec := do(srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got := decode[parseResponse](t, rec)
	if got.Name != "semi.csv" {
		t.Errorf("Name = %q, want semi.csv", got.Name)
	}
	if diff := cmp.Diff([]string{"a", "b"}, got.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCSV_TabDelimiterQuery(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/csv/parse?delimiter=tab", strings.NewReader("a\tb\n1\t2"))
	rec := do(srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got := decode[parseResponse](t, rec)
	if diff := cmp.Diff([]string{"a", "b"}, got.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*config.Config)
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantCode   string
	}{
		{
			name: "empty body",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/csv/parse", strings.NewReader(""))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FILE005",
		},
		{
			name: "blank lines only",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/csv/parse", strings.NewReader("\n\n"))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FILE002",
		},
		{
			name: "multipart without file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/csv/parse", "", "", map[string]string{"delimiter": ","})
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE004",
		},
		{
			name: "invalid utf-8",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/csv/parse", strings.NewReader("a\n\xff"))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FILE003",
		},
		{
			name:   "too large",
			mutate: func(c *config.Config) { c.Limits.MaxFileSize = 8 },
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/csv/parse", strings.NewReader("a,b\n1,2\n3,4\n"))
			},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "FILE001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.mutate)

			rec := do(srv, tt.req(t))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			got := decode[ErrorResponse](t, rec)
			if got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message == "" || got.Action == "" {
				t.Errorf("incomplete error response: %+v", got)
			}
		})
	}
}

func TestParseCSV_HTMX(t *testing.T) {
	srv := newTestServer(t, nil)

	req := multipartRequest(t, "/api/csv/parse", "x.csv", "name\n<b>bold</b>\n", nil)
	req.Header.Set("HX-Request", "true")
	rec := do(srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<table>") {
		t.Errorf("missing table: %s", body)
	}
	if strings.Contains(body, "<b>bold</b>") || !strings.Contains(body, "&lt;b&gt;bold&lt;/b&gt;") {
		t.Errorf("cell not escaped: %s", body)
	}
}

func TestParseCSV_HTMXError(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/csv/parse", strings.NewReader(""))
	req.Header.Set("HX-Request", "true")
	rec := do(srv, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "FILE005") || !strings.Contains(rec.Body.String(), `role="alert"`) {
		t.Errorf("unexpected error fragment: %s", rec.Body.String())
	}
}

func TestSummariseLog(t *testing.T) {
	srv := newTestServer(t, nil)

	input := "INFO start\nERROR failed\nWARNING: Disk space low\nWARNING: Disk space low\nerror again\n"
	req := multipartRequest(t, "/api/log/summary", "app.log", input, nil)
	rec := do(srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	type summary struct {
		LineCount  int      `json:"line_count"`
		ErrorCount int      `json:"error_count"`
		Warnings   []string `json:"warnings"`
	}
	got := decode[struct {
		Name    string  `json:"name"`
		Summary summary `json:"summary"`
	}](t, rec)

	want := summary{LineCount: 5, ErrorCount: 2, Warnings: []string{"Disk space low"}}
	if diff := cmp.Diff(want, got.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if got.Name != "app.log" {
		t.Errorf("Name = %q, want app.log", got.Name)
	}
}

func TestSummariseLog_HTML(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/log/summary", strings.NewReader("WARNING: low\n"))
	req.Header.Set("Accept", "text/html")
	rec := do(srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "<li>low</li>") {
		t.Errorf("warning not listed: %s", rec.Body.String())
	}
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Limits.MaxConcurrent = 3 })

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[StatusResponse](t, rec)
	want := core.LimiterStatus{Active: 0, Available: 3, MaxConcurrent: 3}
	if got.Status != "ok" || got.Jobs != want {
		t.Errorf("StatusResponse = %+v", got)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong key", "X-API-Key", "nope", http.StatusForbidden},
		{"x-api-key", "X-API-Key", "secret", http.StatusOK},
		{"bearer", "Authorization", "Bearer secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			if rec := do(srv, req); rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	// Health stays open for probes.
	if rec := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Rate.RequestsPerMinute = 2 })

	for i := 0; i < 2; i++ {
		if rec := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
	if got := decode[ErrorResponse](t, rec); got.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", got.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = false
		c.Rate.RequestsPerMinute = 1
	})

	for i := 0; i < 5; i++ {
		if rec := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	defer rl.stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("1.2.3.4") {
		t.Fatal("first request should pass")
	}
	if rl.allow("1.2.3.4") {
		t.Fatal("second request in window should fail")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("other IP should have its own bucket")
	}

	now = now.Add(time.Minute + time.Second)
	if !rl.allow("1.2.3.4") {
		t.Error("request after window should pass")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNoInput, http.StatusBadRequest},
		{core.ErrTooManyJobs, http.StatusServiceUnavailable},
		{errRateLimited, http.StatusTooManyRequests},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(core.MapError(tt.err)); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
