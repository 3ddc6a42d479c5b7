// Package clics ingests CLICS contest API event feeds.
package clics

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jjudge-oj/livefeed/internal/enumerator"
	"github.com/jjudge-oj/livefeed/internal/feed"
	"github.com/jjudge-oj/livefeed/internal/metrics"
	"github.com/jjudge-oj/livefeed/internal/store"
	"github.com/jjudge-oj/livefeed/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxLineSize = 16 << 20

var (
	// errFinished stops ingestion after the final state event.
	errFinished = errors.New("feed finished")

	// errStreamClosed is returned when live feeds end without finalization.
	errStreamClosed = errors.New("feed stream closed")
)

// Feed is one event feed of a contest. Several feeds of one adapter share
// one contest model.
type Feed struct {
	// Name identifies the feed in logs, metrics and the event archive.
	Name    string
	Source  LineSource
	Version Version

	// BaseURL resolves relative media hrefs.
	BaseURL *url.URL
}

// EventFeedURL builds the event feed URL of a contest API. feedPath replaces
// the default "contests/<id>" part when set.
func EventFeedURL(apiURL, contestID, feedPath, feedName string) string {
	parts := []string{strings.TrimSuffix(apiURL, "/")}
	if feedPath == "" && contestID != "" {
		feedPath = "contests/" + contestID
	}
	if feedPath = strings.Trim(feedPath, "/"); feedPath != "" {
		parts = append(parts, feedPath)
	}
	if feedName == "" {
		feedName = "event-feed"
	}
	return strings.Join(append(parts, feedName), "/")
}

// Adapter reads CLICS event feeds and emits contest updates.
type Adapter struct {
	feeds  []Feed
	ids    *enumerator.Set
	logger *zap.Logger

	mapping    map[string]string
	archive    EventArchive
	quiet      time.Duration
	retryDelay time.Duration
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithURLMapping rewrites media href prefixes, see WithURLPrefixMapping.
func WithURLMapping(mapping map[string]string) Option {
	return func(a *Adapter) { a.mapping = mapping }
}

// WithArchive records every accepted event.
func WithArchive(archive EventArchive) Option {
	return func(a *Adapter) { a.archive = archive }
}

// WithQuietPeriod overrides the inactivity gap ending the startup burst.
func WithQuietPeriod(d time.Duration) Option {
	return func(a *Adapter) { a.quiet = d }
}

// WithRetryDelay overrides the backoff between reconnects.
func WithRetryDelay(d time.Duration) Option {
	return func(a *Adapter) { a.retryDelay = d }
}

// NewAdapter creates an adapter over feeds. ids is shared with every other
// adapter of the process.
func NewAdapter(feeds []Feed, ids *enumerator.Set, logger *zap.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		feeds:      feeds,
		ids:        ids,
		logger:     logger.Named("clics"),
		quiet:      DefaultQuietPeriod,
		retryDelay: feed.DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Subscribe implements feed.Adapter. Live feeds are reconnected and
// re-read from the start after failures; local feeds are read once.
func (a *Adapter) Subscribe(ctx context.Context, handler feed.Handler) error {
	return feed.EnsureFinalized(feed.AdapterFunc(a.subscribe), a.logger).Subscribe(ctx, handler)
}

func (a *Adapter) subscribe(ctx context.Context, handler feed.Handler) error {
	if !a.live() {
		return a.run(ctx, handler)
	}
	onError := func(err error) {
		a.logger.Error("Feed failed, restarting", zap.Error(err), zap.Duration("delay", a.retryDelay))
		metrics.Reconnect()
	}
	return feed.Retry(ctx, a.retryDelay, onError, func(ctx context.Context) error {
		return a.run(ctx, handler)
	})
}

func (a *Adapter) live() bool {
	for _, f := range a.feeds {
		if l, ok := f.Source.(liveSource); ok && l.Live() {
			return true
		}
	}
	return false
}

// run ingests all feeds once with fresh state.
func (a *Adapter) run(ctx context.Context, handler feed.Handler) error {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	events := make(chan Event)
	g, gctx := errgroup.WithContext(runCtx)
	for i, f := range a.feeds {
		g.Go(func() error {
			return a.read(gctx, i, f, events)
		})
	}
	readersDone := make(chan struct{})
	go func() {
		defer close(readersDone)
		if err := g.Wait(); err != nil {
			cancel(err)
			return
		}
		close(events)
	}()

	s := &session{
		adapter: a,
		handler: handler,
		model:   NewModel(a.ids, a.logger),
		seen:    make(map[string]struct{}),
		emitted: make(map[types.RunID]types.RunInfo),
	}
	err := preload(runCtx, events, a.quiet, func(ev Event) error {
		return s.process(runCtx, ev)
	})
	cancel(nil)
	<-readersDone

	switch {
	case errors.Is(err, errFinished):
		return nil
	case err == nil && a.live():
		return errStreamClosed
	case errors.Is(err, context.Canceled) && ctx.Err() == nil:
		return context.Cause(runCtx)
	default:
		return err
	}
}

func tokenPrefix(feed int) string {
	return fmt.Sprintf("feed%d$", feed)
}

func (a *Adapter) read(ctx context.Context, idx int, f Feed, out chan<- Event) error {
	rc, err := f.Source.Open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	dec := NewDecoder(f.Version,
		WithTokenPrefix(tokenPrefix(idx)),
		WithBaseURL(f.BaseURL),
		WithURLPrefixMapping(a.mapping),
	)
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		ev, err := dec.Decode(line)
		if err != nil {
			a.logger.Warn("Failed to decode event", zap.String("feed", f.Name), zap.Error(err))
			metrics.DecodeError(f.Name)
			continue
		}
		ev.feed = idx
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to read feed %s: %w", f.Name, err)
	}
	return nil
}

// session is the state of one ingestion attempt.
type session struct {
	adapter *Adapter
	handler feed.Handler
	model   *Model

	seen      map[string]struct{}
	preloaded bool

	info    types.ContestInfo
	hasInfo bool
	emitted map[types.RunID]types.RunInfo
}

func (s *session) process(ctx context.Context, ev Event) error {
	if ev.Type == typePreloadFinished {
		return s.finishPreload(ctx)
	}
	if ev.Token != "" {
		if _, ok := s.seen[ev.Token]; ok {
			return nil
		}
	}
	feedName := s.adapter.feeds[ev.feed].Name
	metrics.FeedEvent(feedName, string(ev.Type))
	s.record(ctx, feedName, ev)

	ch, err := s.model.Apply(ev)
	if ev.Token != "" {
		s.seen[ev.Token] = struct{}{}
	}
	if err != nil {
		s.adapter.logger.Warn("Failed to process event",
			zap.String("type", string(ev.Type)), zap.String("id", ev.ID), zap.Error(err))
		metrics.EventError(string(ev.Type))
	} else if s.preloaded {
		if err := s.emit(ctx, ch); err != nil {
			return feed.Permanent(err)
		}
	}
	if isFinal(ev) {
		return errFinished
	}
	return nil
}

func (s *session) finishPreload(ctx context.Context) error {
	s.preloaded = true
	submissions := s.model.Submissions()
	s.adapter.logger.Info("Preload finished", zap.Int("submissions", len(submissions)))
	if err := s.emit(ctx, change{info: true, submissions: submissions}); err != nil {
		return feed.Permanent(err)
	}
	return nil
}

func (s *session) emit(ctx context.Context, ch change) error {
	if ch.info || !s.hasInfo {
		info := s.model.Info()
		if !s.hasInfo || !info.Equal(s.info) {
			s.info = info
			s.hasInfo = true
			metrics.UpdateEmitted("info")
			if err := s.handler(ctx, types.InfoUpdate{Info: info}); err != nil {
				return err
			}
		}
	}
	for _, id := range ch.submissions {
		run, ok := s.model.Run(id)
		if !ok {
			continue
		}
		if old, ok := s.emitted[run.ID]; ok && old.Equal(run) {
			continue
		}
		s.emitted[run.ID] = run
		metrics.UpdateEmitted("run")
		if err := s.handler(ctx, types.RunUpdate{Info: s.info, Run: run}); err != nil {
			return err
		}
	}
	if ch.commentary != nil {
		metrics.UpdateEmitted("analytics")
		msg := s.model.Analytics(ch.commentary)
		if err := s.handler(ctx, types.AnalyticsUpdate{Info: s.info, Message: msg}); err != nil {
			return err
		}
	}
	return nil
}

// record appends the event to the archive with its original token.
func (s *session) record(ctx context.Context, feedName string, ev Event) {
	archive := s.adapter.archive
	if archive == nil || ev.Token == "" {
		return
	}
	ev.Token = strings.TrimPrefix(ev.Token, tokenPrefix(ev.feed))
	payload, err := Encode(ev)
	if err != nil {
		s.adapter.logger.Warn("Failed to encode event for archive", zap.Error(err))
		return
	}
	err = archive.Append(ctx, &store.FeedEvent{
		Feed:    feedName,
		Token:   ev.Token,
		Type:    string(ev.Type),
		Payload: payload,
	})
	if err != nil {
		s.adapter.logger.Warn("Failed to archive event", zap.String("feed", feedName), zap.Error(err))
	}
}
