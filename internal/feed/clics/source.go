package clics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/jjudge-oj/livefeed/internal/storage"
	"github.com/jjudge-oj/livefeed/internal/store"
)

// LineSource opens a stream of newline-delimited feed events.
type LineSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// liveSource is implemented by sources that keep delivering new events and
// must be reconnected when their stream ends.
type liveSource interface {
	Live() bool
}

// ErrFeedIdle is returned by a feed stream that delivered nothing for longer
// than its idle timeout.
var ErrFeedIdle = errors.New("feed stream is idle")

// DefaultIdleTimeout bounds the silence on a live feed. Servers send a
// keep-alive newline at least every two minutes.
const DefaultIdleTimeout = 5 * time.Minute

// defaultClient bounds connecting and waiting for headers. There is no
// overall timeout, the body is an endless stream.
var defaultClient = &http.Client{
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
	},
}

// HTTPSource reads an event feed over HTTP(S), with optional basic auth.
// A stream that stays silent for IdleTimeout (DefaultIdleTimeout when zero)
// fails with ErrFeedIdle, so that the adapter reconnects.
type HTTPSource struct {
	URL         string
	Username    string
	Password    string
	Client      *http.Client
	IdleTimeout time.Duration
}

func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}
	if s.Username != "" || s.Password != "" {
		req.SetBasicAuth(s.Username, s.Password)
	}
	client := s.Client
	if client == nil {
		client = defaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", s.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to connect to %s: unexpected status %s", s.URL, resp.Status)
	}
	timeout := s.IdleTimeout
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return closeOnIdle(resp.Body, timeout), nil
}

func (s *HTTPSource) Live() bool { return true }

func (s *HTTPSource) String() string { return s.URL }

// FileSource reads a local ndjson feed or contest package once.
type FileSource struct {
	Path string
}

func (s *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed file: %w", err)
	}
	rc := closeOnDone(ctx, f)
	if isPackage(s.Path) {
		return openPackage(rc)
	}
	return rc, nil
}

func (s *FileSource) String() string { return s.Path }

// ObjectSource reads a recorded feed or contest package from object storage.
type ObjectSource struct {
	Storage storage.ObjectStorage
	Key     string
}

func (s *ObjectSource) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := s.Storage.Get(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed object %s: %w", s.Key, err)
	}
	rc := closeOnDone(ctx, obj)
	if isPackage(s.Key) {
		return openPackage(rc)
	}
	return rc, nil
}

func (s *ObjectSource) String() string {
	return s.Storage.Bucket() + "/" + s.Key
}

// EventArchive is the persistent store of accepted feed events.
type EventArchive interface {
	Append(ctx context.Context, event *store.FeedEvent) error
	List(ctx context.Context, feed string) ([]store.FeedEvent, error)
}

// ArchiveSource replays the events archived for a feed. Archived events are
// stored in 2022-07 form.
type ArchiveSource struct {
	Archive EventArchive
	Feed    string
}

func (s *ArchiveSource) Open(ctx context.Context) (io.ReadCloser, error) {
	events, err := s.Archive.List(ctx, s.Feed)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived events of %s: %w", s.Feed, err)
	}
	var buf bytes.Buffer
	for _, e := range events {
		buf.Write(e.Payload)
		buf.WriteByte('\n')
	}
	return io.NopCloser(&buf), nil
}

func (s *ArchiveSource) String() string { return "archive:" + s.Feed }

type ctxCloser struct {
	io.ReadCloser
	stop func() bool
}

func (c *ctxCloser) Close() error {
	c.stop()
	return c.ReadCloser.Close()
}

// closeOnDone closes rc when ctx is done so a blocked read returns.
func closeOnDone(ctx context.Context, rc io.ReadCloser) io.ReadCloser {
	stop := context.AfterFunc(ctx, func() { _ = rc.Close() })
	return &ctxCloser{ReadCloser: rc, stop: stop}
}

type idleCloser struct {
	io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	expired atomic.Bool
}

// closeOnIdle closes rc when no data was read from it for timeout.
func closeOnIdle(rc io.ReadCloser, timeout time.Duration) io.ReadCloser {
	c := &idleCloser{ReadCloser: rc, timeout: timeout}
	c.timer = time.AfterFunc(timeout, func() {
		c.expired.Store(true)
		_ = rc.Close()
	})
	return c
}

func (c *idleCloser) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	if n > 0 {
		c.timer.Reset(c.timeout)
	}
	if err != nil && c.expired.Load() {
		err = fmt.Errorf("%w for %s", ErrFeedIdle, c.timeout)
	}
	return n, err
}

func (c *idleCloser) Close() error {
	c.timer.Stop()
	return c.ReadCloser.Close()
}
