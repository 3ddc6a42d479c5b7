package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// FeedEvent is one archived feed event.
type FeedEvent struct {
	Seq        int64
	Feed       string
	Token      string
	Type       string
	Payload    []byte
	ReceivedAt time.Time
}

// EventRepository handles persistence for archived feed events.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append stores an event unless the feed already has an event with its token.
func (r *EventRepository) Append(ctx context.Context, event *FeedEvent) error {
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}
	const query = `
		INSERT INTO feed_events (feed, token, type, payload, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (feed, token) DO NOTHING
		RETURNING seq`
	err := r.db.QueryRowContext(
		ctx,
		query,
		event.Feed,
		event.Token,
		event.Type,
		string(event.Payload),
		event.ReceivedAt,
	).Scan(&event.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// Get returns the event of a feed with the given token.
func (r *EventRepository) Get(ctx context.Context, feed, token string) (FeedEvent, error) {
	const query = `
		SELECT seq, feed, token, type, payload, received_at
		FROM feed_events
		WHERE feed = $1 AND token = $2`
	var event FeedEvent
	err := r.db.QueryRowContext(ctx, query, feed, token).Scan(
		&event.Seq,
		&event.Feed,
		&event.Token,
		&event.Type,
		&event.Payload,
		&event.ReceivedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FeedEvent{}, ErrNotFound
		}
		return FeedEvent{}, err
	}
	return event, nil
}

// List returns all events of a feed in arrival order.
func (r *EventRepository) List(ctx context.Context, feed string) ([]FeedEvent, error) {
	const query = `
		SELECT seq, feed, token, type, payload, received_at
		FROM feed_events
		WHERE feed = $1
		ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query, feed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []FeedEvent
	for rows.Next() {
		var event FeedEvent
		if err := rows.Scan(
			&event.Seq,
			&event.Feed,
			&event.Token,
			&event.Type,
			&event.Payload,
			&event.ReceivedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Feeds returns the names of all archived feeds.
func (r *EventRepository) Feeds(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT feed FROM feed_events ORDER BY feed`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feeds []string
	for rows.Next() {
		var feed string
		if err := rows.Scan(&feed); err != nil {
			return nil, err
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

// Count returns the number of archived events of a feed.
func (r *EventRepository) Count(ctx context.Context, feed string) (int64, error) {
	const query = `SELECT COUNT(*) FROM feed_events WHERE feed = $1`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, feed).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
