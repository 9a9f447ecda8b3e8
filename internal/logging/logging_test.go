package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observe swaps the global logger for an observer and restores it afterwards.
func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	old := Log
	Log = zap.New(core)
	t.Cleanup(func() { Log = old })
	return logs
}

func TestSetupDevMode(t *testing.T) {
	old := Log
	defer func() { Log = old }()

	require.NoError(t, Setup(true, ""))
	assert.True(t, Log.Core().Enabled(zapcore.DebugLevel), "expected debug enabled in dev mode")
}

func TestSetupProdMode(t *testing.T) {
	old := Log
	defer func() { Log = old }()

	require.NoError(t, Setup(false, "warn"))
	assert.False(t, Log.Core().Enabled(zapcore.InfoLevel), "expected info disabled at warn level")
	assert.True(t, Log.Core().Enabled(zapcore.WarnLevel))
}

func TestSetupProdModeBadLevel(t *testing.T) {
	old := Log
	defer func() { Log = old }()

	require.NoError(t, Setup(false, "loud"))
	assert.True(t, Log.Core().Enabled(zapcore.InfoLevel), "expected fallback to info")
}

func TestFromContext(t *testing.T) {
	logs := observe(t)

	FromContext(context.Background()).Info("global")
	scoped := zap.New(Log.Core()).With(zap.String("scope", "req"))
	FromContext(WithLogger(context.Background(), scoped)).Info("scoped")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "global", entries[0].Message)
	assert.Equal(t, "req", entries[1].ContextMap()["scope"])
}

func TestRequestLogger(t *testing.T) {
	logs := observe(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Debug("inside")
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/visits", nil)
	RequestLogger(inner).ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/visits", fields["path"])
	assert.EqualValues(t, 200, fields["status"])
	assert.Equal(t, 1, logs.FilterMessage("inside").Len(), "expected request-scoped logger in context")
}

func TestRequestLoggerSkipsHealthAndMetrics(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			logs := observe(t)
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

			RequestLogger(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))

			assert.Zero(t, logs.Len(), "expected no log for %s", path)
		})
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		want   zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			logs := observe(t)
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			RequestLogger(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", nil))

			entries := logs.FilterMessage("request").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Level)
			assert.EqualValues(t, tt.status, entries[0].ContextMap()["status"])
		})
	}
}
