package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jjudge-oj/livefeed/internal/storage"
	"github.com/jjudge-oj/livefeed/internal/store"
)

// EventRepository defines read operations on the event archive.
type EventRepository interface {
	List(ctx context.Context, feed string) ([]store.FeedEvent, error)
	Feeds(ctx context.Context) ([]string, error)
	Count(ctx context.Context, feed string) (int64, error)
}

// ArchivedFeed summarizes one archived feed.
type ArchivedFeed struct {
	Name   string `json:"name"`
	Events int64  `json:"events"`
}

// ArchiveService encapsulates event archive use-cases.
type ArchiveService struct {
	repo EventRepository
}

func NewArchiveService(repo EventRepository) *ArchiveService {
	return &ArchiveService{repo: repo}
}

func (s *ArchiveService) Feeds(ctx context.Context) ([]ArchivedFeed, error) {
	names, err := s.repo.Feeds(ctx)
	if err != nil {
		return nil, err
	}
	feeds := make([]ArchivedFeed, 0, len(names))
	for _, name := range names {
		count, err := s.repo.Count(ctx, name)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, ArchivedFeed{Name: name, Events: count})
	}
	return feeds, nil
}

// Dump renders the archived events of a feed as an ndjson event feed.
func (s *ArchiveService) Dump(ctx context.Context, feed string) ([]byte, int, error) {
	events, err := s.repo.List(ctx, feed)
	if err != nil {
		return nil, 0, err
	}
	if len(events) == 0 {
		return nil, 0, store.ErrNotFound
	}
	var buf bytes.Buffer
	for _, e := range events {
		buf.Write(bytes.TrimSpace(e.Payload))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), len(events), nil
}

// Export uploads the dump of a feed to key, where clics.ObjectSource can
// replay it.
func (s *ArchiveService) Export(ctx context.Context, objects storage.ObjectStorage, feed, key string) (int, error) {
	data, count, err := s.Dump(ctx, feed)
	if err != nil {
		return 0, fmt.Errorf("failed to dump feed %s: %w", feed, err)
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure bucket: %w", err)
	}
	if err := storage.PutBytes(ctx, objects, key, data, "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return count, nil
}
