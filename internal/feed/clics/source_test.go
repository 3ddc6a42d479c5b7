package clics

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSourceStreamsWithAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, "{\"type\":\"teams\"}\n\n")
	}))
	defer srv.Close()

	source := &HTTPSource{URL: srv.URL, Username: "admin", Password: "secret"}
	rc, err := source.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "{\"type\":\"teams\"}\n\n", string(data))

	_, err = (&HTTPSource{URL: srv.URL}).Open(context.Background())
	assert.ErrorContains(t, err, "401")
}

func TestHTTPSourceFailsIdleStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{\"type\":\"teams\"}\n")
		w.(http.Flusher).Flush()
		// a server that stops sending without closing the connection
		<-r.Context().Done()
	}))
	defer srv.Close()

	source := &HTTPSource{URL: srv.URL, IdleTimeout: 50 * time.Millisecond}
	rc, err := source.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()

	reader := bufio.NewReader(rc)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "{\"type\":\"teams\"}\n", line)

	start := time.Now()
	_, err = reader.ReadString('\n')
	assert.ErrorIs(t, err, ErrFeedIdle)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestIdleTimerResetsOnData(t *testing.T) {
	pr, pw := io.Pipe()
	rc := closeOnIdle(pr, 80*time.Millisecond)
	defer rc.Close()

	go func() {
		for i := 0; i < 5; i++ {
			time.Sleep(30 * time.Millisecond)
			_, _ = pw.Write([]byte("\n"))
		}
		_ = pw.Close()
	}()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "\n\n\n\n\n", string(data))
}
