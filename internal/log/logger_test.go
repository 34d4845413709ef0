package log

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAccessMiddlewareLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Handler: slog.NewTextHandler(&buf, nil)})

	h := Middleware(logger)(AccessMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/transcripts", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=409", "path=/api/transcripts"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}

func TestComponentAppearsOnce(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Component: ComponentApp, Handler: slog.NewTextHandler(&buf, nil)})

	tests := []struct {
		name   string
		logger *Logger
		want   string
	}{
		{"root", base, "component=app"},
		{"scoped", base.WithComponent(ComponentRecords), "component=records"},
		{"rescoped", base.WithComponent(ComponentBackend).WithComponent(ComponentSheets), "component=sheets"},
		{"scoped after With", base.With(FieldRequestID, "r1").WithComponent(ComponentHTTP), "component=http"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logger.Info("hello", FieldCount, 1)
			line := buf.String()
			if strings.Count(line, "component=") != 1 || !strings.Contains(line, tt.want) {
				t.Errorf("line = %q, want exactly one %s", line, tt.want)
			}
			if tt.logger.Component() != strings.TrimPrefix(tt.want, "component=") {
				t.Errorf("Component() = %q", tt.logger.Component())
			}
		})
	}
	buf.Reset()
	base.With(FieldRequestID, "r1").WithComponent(ComponentHTTP).Info("x")
	if !strings.Contains(buf.String(), "request_id=r1") {
		t.Errorf("WithComponent dropped attributes: %q", buf.String())
	}
}

func TestFromContextDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if FromContext(req.Context()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}
