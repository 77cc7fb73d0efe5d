package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_LevelSelection(t *testing.T) {
	debug := NewLogger("debug")
	defer debug.Sync()
	if !debug.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug logger must enable the debug level")
	}

	info := NewLogger("info")
	defer info.Sync()
	if info.Core().Enabled(zapcore.DebugLevel) {
		t.Error("default logger must not emit debug lines")
	}
}

func TestZapLoggerMiddleware_LevelsByStatus(t *testing.T) {
	cases := []struct {
		status int
		want   zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tc := range cases {
		core, logs := observer.New(zapcore.InfoLevel)
		logger := zap.New(core)

		h := ZapLoggerMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/connect/account", nil))

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("status %d: expected one access-log line, got %d", tc.status, len(entries))
		}
		if entries[0].Level != tc.want {
			t.Errorf("status %d: logged at %s, want %s", tc.status, entries[0].Level, tc.want)
		}
		fields := entries[0].ContextMap()
		if fields["status"] != int64(tc.status) {
			t.Errorf("status field: got %v, want %d", fields["status"], tc.status)
		}
		if fields["path"] != "/v1/connect/account" {
			t.Errorf("path field: got %v", fields["path"])
		}
	}
}
