package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jjudge-oj/livefeed/config"
	"github.com/jjudge-oj/livefeed/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRoutes(t *testing.T) {
	srv := New(config.Config{ServerPort: 0}, services.NewContestService(), nil, zaptest.NewLogger(t))

	tests := map[string]int{
		"/healthz":            http.StatusOK,
		"/metrics":            http.StatusOK,
		"/api/contest":        http.StatusServiceUnavailable,
		"/api/scoreboard":     http.StatusServiceUnavailable,
		"/api/archive/feeds":  http.StatusNotFound,
		"/api/does-not-exist": http.StatusNotFound,
	}
	for path, status := range tests {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, rec.Code, path)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := New(config.Config{ServerPort: 18089}, services.NewContestService(), nil, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
