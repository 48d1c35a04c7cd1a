package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/fileparse/internal/config"
)

func echoRemoteAddr(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.RemoteAddr))
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "no trusted proxies ignores headers",
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "10.0.0.1:5000",
		},
		{
			name:       "trusted proxy X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "trusted proxy first X-Forwarded-For entry",
			trusted:    []string{"10.0.0.1"},
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"},
			want:       "203.0.113.9",
		},
		{
			name:       "untrusted source keeps address",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "192.0.2.7:5000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "192.0.2.7:5000",
		},
		{
			name:       "invalid header value ignored",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.0.0.1:5000",
		},
		{
			name:       "invalid trusted entry skipped",
			trusted:    []string{"bogus", " 10.0.0.0/8 "},
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "2001:db8::1"},
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(echoRemoteAddr))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Body.String(); got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("disabled passes everything", func(t *testing.T) {
		h := APIKeyAuth(&config.SecurityConfig{})(ok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	cfg := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}
	h := APIKeyAuth(cfg)(ok)

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
		wantCode   string
	}{
		{"missing", "", "", http.StatusUnauthorized, CodeMissingKey},
		{"invalid", "X-API-Key", "bad", http.StatusForbidden, CodeInvalidKey},
		{"second key", "X-API-Key", "k2", http.StatusOK, ""},
		{"bearer token", "Authorization", "Bearer k1", http.StatusOK, ""},
		{"basic auth is not a key", "Authorization", "Basic k1", http.StatusUnauthorized, CodeMissingKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" && !strings.Contains(rec.Body.String(), tt.wantCode) {
				t.Errorf("body %q missing code %s", rec.Body.String(), tt.wantCode)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	out := buf.String()
	for _, want := range []string{`"level":"WARN"`, `"status":404`, `"bytes":7`, `"path":"/x"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %s missing %s", out, want)
		}
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		status int
		want   slog.Level
	}{
		{200, slog.LevelInfo},
		{302, slog.LevelInfo},
		{422, slog.LevelWarn},
		{503, slog.LevelError},
	}
	for _, tt := range tests {
		if got := levelFor(tt.status); got != tt.want {
			t.Errorf("levelFor(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
