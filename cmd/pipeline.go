/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jjudge-oj/livefeed/config"
	"github.com/jjudge-oj/livefeed/internal/db"
	"github.com/jjudge-oj/livefeed/internal/enumerator"
	"github.com/jjudge-oj/livefeed/internal/feed"
	"github.com/jjudge-oj/livefeed/internal/feed/clics"
	"github.com/jjudge-oj/livefeed/internal/feed/emulation"
	"github.com/jjudge-oj/livefeed/internal/mq"
	"github.com/jjudge-oj/livefeed/internal/storage"
	"github.com/jjudge-oj/livefeed/internal/store"
	"github.com/jjudge-oj/livefeed/internal/tuning"
	"go.uber.org/zap"
)

const (
	objectScheme  = "object://"
	archiveScheme = "archive://"
	fileScheme    = "file://"
)

// resources are the external connections of an ingesting command. Every
// field is nil when its backend is not configured.
type resources struct {
	db      *sql.DB
	events  *store.EventRepository
	objects storage.ObjectStorage
	broker  mq.Backend
}

func openResources(ctx context.Context, cfg config.Config, logger *zap.Logger) (*resources, error) {
	res := &resources{}
	if cfg.Archive.Enabled || usesScheme(cfg.Feed.URLs, archiveScheme) {
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		res.db = conn
		res.events = store.NewEventRepository(conn)
	}

	objects, err := storage.New(ctx, cfg.Storage)
	switch {
	case err == nil:
		res.objects = objects
	case !errors.Is(err, storage.ErrNoBackend):
		res.Close()
		return nil, err
	}

	broker, err := mq.New(ctx, cfg.MQ)
	switch {
	case err == nil:
		res.broker = broker
	case !errors.Is(err, mq.ErrNoBackend):
		res.Close()
		return nil, err
	}

	logger.Info("Opened resources",
		zap.Bool("archive", res.events != nil),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("mq", cfg.MQ.Backend))
	return res, nil
}

func (r *resources) Close() {
	if r.broker != nil {
		_ = r.broker.Close()
	}
	if r.db != nil {
		_ = r.db.Close()
	}
}

func usesScheme(urls []string, scheme string) bool {
	for _, u := range urls {
		if strings.HasPrefix(u, scheme) {
			return true
		}
	}
	return false
}

// clicsFeeds turns the configured feed locations into adapter feeds.
func clicsFeeds(cfg config.FeedConfig, res *resources) ([]clics.Feed, error) {
	version, err := clics.ParseVersion(cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}

	feeds := make([]clics.Feed, 0, len(cfg.URLs))
	for i, location := range cfg.URLs {
		name := cfg.ContestID
		if name == "" {
			name = "main"
		}
		if i > 0 {
			name = fmt.Sprintf("%s-%d", name, i)
		}

		f := clics.Feed{Name: name, Version: version}
		switch {
		case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
			base, err := url.Parse(strings.TrimSuffix(location, "/") + "/")
			if err != nil {
				return nil, fmt.Errorf("%w: feed url %q: %v", config.ErrInvalid, location, err)
			}
			f.BaseURL = base
			f.Source = &clics.HTTPSource{
				URL:         clics.EventFeedURL(location, cfg.ContestID, cfg.EventFeedPath, cfg.EventFeedName),
				Username:    cfg.Username,
				Password:    cfg.Password,
				IdleTimeout: cfg.IdleTimeout,
			}
		case strings.HasPrefix(location, objectScheme):
			if res == nil || res.objects == nil {
				return nil, fmt.Errorf("%w: feed %s needs STORAGE_BACKEND", config.ErrInvalid, location)
			}
			f.Source = &clics.ObjectSource{Storage: res.objects, Key: strings.TrimPrefix(location, objectScheme)}
		case strings.HasPrefix(location, archiveScheme):
			if res == nil || res.events == nil {
				return nil, fmt.Errorf("%w: feed %s needs the event archive", config.ErrInvalid, location)
			}
			// archived events keep their feed name and are stored in 2022-07 form
			f.Name = strings.TrimPrefix(location, archiveScheme)
			f.Version = clics.Version2022
			f.Source = &clics.ArchiveSource{Archive: res.events, Feed: f.Name}
		default:
			f.Source = &clics.FileSource{Path: strings.TrimPrefix(location, fileScheme)}
		}
		feeds = append(feeds, f)
	}
	return feeds, nil
}

// newSource builds the contest adapter with the settings overrides applied.
func newSource(cfg config.Config, res *resources, ids *enumerator.Set, logger *zap.Logger) (feed.Adapter, error) {
	feeds, err := clicsFeeds(cfg.Feed, res)
	if err != nil {
		return nil, err
	}

	opts := []clics.Option{
		clics.WithURLMapping(cfg.Feed.URLPrefixMapping),
		clics.WithQuietPeriod(cfg.Feed.QuietPeriod),
		clics.WithRetryDelay(cfg.Feed.RetryDelay),
	}
	if cfg.Archive.Enabled && res != nil && res.events != nil {
		opts = append(opts, clics.WithArchive(res.events))
	}

	var adapter feed.Adapter
	if cfg.Feed.Independent && len(feeds) > 1 {
		adapters := make([]feed.Adapter, 0, len(feeds))
		for _, f := range feeds {
			adapters = append(adapters, clics.NewAdapter([]clics.Feed{f}, ids, logger.With(zap.String("feed", f.Name)), opts...))
		}
		adapter = feed.Merge(adapters...)
	} else {
		adapter = clics.NewAdapter(feeds, ids, logger, opts...)
	}

	var settings *tuning.Settings
	if cfg.SettingsFile != "" {
		if settings, err = tuning.Load(cfg.SettingsFile); err != nil {
			return nil, err
		}
		logger.Info("Loaded contest settings", zap.String("file", cfg.SettingsFile))
	}
	return tuning.Apply(adapter, settings, ids), nil
}

// withStages adds the derived run flags the scoreboard relies on.
func withStages(adapter feed.Adapter, logger *zap.Logger) feed.Adapter {
	return feed.WithScoreDifferences(feed.WithFirstToSolve(adapter, logger))
}

// emulate loads the whole contest from source and replays it live.
func emulate(ctx context.Context, source feed.Adapter, cfg config.EmulationConfig, logger *zap.Logger) (feed.Adapter, error) {
	logger.Info("Loading contest for emulation")
	result, err := feed.LoadOnce(ctx, source)
	if err != nil {
		return nil, err
	}
	start := cfg.Start
	if start.IsZero() {
		start = time.Now()
	}
	var opts []emulation.Option
	if cfg.InProgressSeed != 0 {
		opts = append(opts, emulation.WithRandomInProgress(cfg.InProgressSeed))
	}
	return emulation.New(result, cfg.Speed, start, logger, opts...), nil
}
