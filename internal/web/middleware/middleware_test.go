package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/dataclean/internal/config"
	"github.com/JonMunkholm/dataclean/internal/logging"
)

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
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "10.0.0.1:1234",
		},
		{
			name:       "trusted cidr uses X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "trusted single address uses first forwarded hop",
			trusted:    []string{" 127.0.0.1 "},
			remoteAddr: "127.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.2"},
			want:       "198.51.100.7",
		},
		{
			name:       "untrusted source keeps remote address",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "192.168.1.5:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "192.168.1.5:1234",
		},
		{
			name:       "invalid header value ignored",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:1234",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.1.2.3:1234",
		},
		{
			name:       "invalid trusted entry skipped",
			trusted:    []string{"bogus", "10.0.0.0/8"},
			remoteAddr: "10.1.2.3:1234",
			headers:    map[string]string{"X-Real-IP": "2001:db8::1"},
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			require.Equal(t, tt.want, got)
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4321"
	require.Equal(t, "192.0.2.1", ClientIP(req))

	req.RemoteAddr = "garbage"
	require.Equal(t, "garbage", ClientIP(req))
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.SecurityConfig
		key      string
		want     int
		wantCode string
	}{
		{name: "auth disabled", cfg: config.SecurityConfig{}, want: http.StatusOK},
		{name: "missing key", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, want: http.StatusUnauthorized, wantCode: "AUTH_MISSING_KEY"},
		{name: "invalid key", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, key: "nope", want: http.StatusForbidden, wantCode: "AUTH_INVALID_KEY"},
		{name: "second key accepted", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}, key: "k2", want: http.StatusOK},
		{name: "no keys configured", cfg: config.SecurityConfig{RequireAPIKey: true}, key: "k1", want: http.StatusForbidden, wantCode: "AUTH_INVALID_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			h := APIKeyAuth(&cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
			if tt.wantCode != "" {
				require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				require.Contains(t, rec.Body.String(), tt.wantCode)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "json"))
	defer slog.SetDefault(prev)

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "192.0.2.1:4321"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	line := buf.String()
	for _, want := range []string{`"msg":"request"`, `"status":418`, `"bytes":15`, `"path":"/healthz"`, `"ip":"192.0.2.1"`} {
		require.True(t, strings.Contains(line, want), "log line %q missing %s", line, want)
	}
}
