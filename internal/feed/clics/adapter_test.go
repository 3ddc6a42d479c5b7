package clics

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jjudge-oj/livefeed/internal/enumerator"
	"github.com/jjudge-oj/livefeed/internal/feed"
	"github.com/jjudge-oj/livefeed/internal/store"
	"github.com/jjudge-oj/livefeed/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memorySource struct {
	lines     []string
	live      bool
	failFirst bool
	opens     int
	delay     time.Duration
}

func (s *memorySource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.opens++
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.failFirst && s.opens == 1 {
		return nil, errors.New("connection refused")
	}
	return io.NopCloser(strings.NewReader(strings.Join(s.lines, "\n"))), nil
}

func (s *memorySource) Live() bool { return s.live }

func (s *memorySource) String() string { return "memory" }

type memoryArchive struct {
	mu     sync.Mutex
	events []store.FeedEvent
}

func (a *memoryArchive) Append(ctx context.Context, event *store.FeedEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.events {
		if e.Feed == event.Feed && e.Token == event.Token {
			return nil
		}
	}
	event.Seq = int64(len(a.events) + 1)
	a.events = append(a.events, *event)
	return nil
}

func (a *memoryArchive) List(ctx context.Context, feed string) ([]store.FeedEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var events []store.FeedEvent
	for _, e := range a.events {
		if e.Feed == feed {
			events = append(events, e)
		}
	}
	return events, nil
}

// contestLines is a finished contest whose backlog lists a submission
// before the problem it references.
var contestLines = []string{
	`{"type":"contest","id":"c","token":"1","data":{"id":"c","name":"Finals","start_time":"2024-05-01T10:00:00.000Z",` +
		`"duration":"5:00:00.000","scoreboard_freeze_duration":"1:00:00.000","penalty_time":20}}`,
	`{"type":"judgement-types","id":"AC","token":"2","data":{"id":"AC","name":"correct","penalty":false,"solved":true}}`,
	`{"type":"judgement-types","id":"WA","token":"3","data":{"id":"WA","name":"wrong answer","penalty":true,"solved":false}}`,
	`{"type":"teams","id":"t1","token":"4","data":{"id":"t1","name":"Team One"}}`,
	`{"type":"submissions","id":"s1","token":"5","data":{"id":"s1","language_id":"cpp","problem_id":"A","team_id":"t1",` +
		`"time":"2024-05-01T10:10:00.000Z","contest_time":"0:10:00.000"}}`,
	``,
	`{"type":"problems","id":"A","token":"6","data":{"id":"A","ordinal":0,"label":"A","name":"Apple","rgb":"#f00","test_data_count":4}}`,
	`{"type":"judgements","id":"j1","token":"7","data":{"id":"j1","submission_id":"s1","judgement_type_id":"AC",` +
		`"start_time":"2024-05-01T10:10:01.000Z","start_contest_time":"0:10:01.000","end_time":"2024-05-01T10:10:05.000Z","end_contest_time":"0:10:05.000"}}`,
	`{"type":"teams","id":"t1","token":"4","data":{"id":"t1","name":"Duplicate token"}}`,
	`this is not json`,
	`{"type":"judgements","id":"j2","token":"8","data":{"id":"j2","submission_id":"missing","judgement_type_id":"WA",` +
		`"start_time":"2024-05-01T10:20:00.000Z","start_contest_time":"0:20:00.000"}}`,
	`{"type":"state","token":"9","data":{"started":"2024-05-01T10:00:00.000Z","ended":"2024-05-01T15:00:00.000Z",` +
		`"frozen":null,"thawed":null,"finalized":"2024-05-01T15:30:00.000Z","end_of_updates":"2024-05-01T15:30:00.000Z"}}`,
}

func newTestAdapter(t *testing.T, feeds []Feed, opts ...Option) *Adapter {
	opts = append([]Option{WithQuietPeriod(20 * time.Millisecond), WithRetryDelay(10 * time.Millisecond)}, opts...)
	return NewAdapter(feeds, enumerator.NewSet(), zaptest.NewLogger(t), opts...)
}

func collectUpdates(t *testing.T, adapter feed.Adapter) []types.ContestUpdate {
	t.Helper()
	var updates []types.ContestUpdate
	err := adapter.Subscribe(context.Background(), func(ctx context.Context, update types.ContestUpdate) error {
		updates = append(updates, update)
		return nil
	})
	require.NoError(t, err)
	return updates
}

func TestAdapterReordersBacklog(t *testing.T) {
	src := &memorySource{lines: contestLines}
	adapter := newTestAdapter(t, []Feed{{Name: "main", Source: src, Version: Version2022}})

	updates := collectUpdates(t, adapter)
	require.Len(t, updates, 3)

	first, ok := updates[0].(types.InfoUpdate)
	require.True(t, ok)
	info := first.Info
	assert.Equal(t, "Finals", info.Name)
	require.Len(t, info.Teams, 1)
	require.Len(t, info.Problems, 1)
	assert.Equal(t, "Team One", info.Teams[0].DisplayName)
	assert.Equal(t, "#ff0000", info.Problems[0].Color)
	assert.IsType(t, types.StatusBefore{}, info.Status)

	runUpdate, ok := updates[1].(types.RunUpdate)
	require.True(t, ok)
	run := runUpdate.Run
	assert.Equal(t, info.Teams[0].ID, run.TeamID)
	assert.Equal(t, info.Problems[0].ID, run.ProblemID)
	assert.Equal(t, 10*time.Minute, run.Time)
	assert.Equal(t, types.ICPCResult{Verdict: types.VerdictAccepted}, run.Result)
	require.NotNil(t, run.TestedTime)
	assert.Equal(t, 10*time.Minute+5*time.Second, *run.TestedTime)

	last, ok := updates[2].(types.InfoUpdate)
	require.True(t, ok)
	status, ok := last.Info.Status.(types.StatusFinalized)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC), status.FinalizedAt)
}

func TestAdapterWaitsForSlowSource(t *testing.T) {
	src := &memorySource{lines: contestLines, delay: 100 * time.Millisecond}
	adapter := newTestAdapter(t, []Feed{{Name: "main", Source: src, Version: Version2022}})

	var runs int
	for _, update := range collectUpdates(t, adapter) {
		if _, ok := update.(types.RunUpdate); ok {
			runs++
		}
	}
	assert.Equal(t, 1, runs)
}

func TestAdapterFinalizesUnfinishedFeed(t *testing.T) {
	src := &memorySource{lines: contestLines[:8]}
	adapter := newTestAdapter(t, []Feed{{Name: "main", Source: src, Version: Version2022}})

	updates := collectUpdates(t, adapter)
	require.Len(t, updates, 3)
	status, ok := updates[2].Contest().Status.(types.StatusFinalized)
	require.True(t, ok)
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, start, status.StartedAt)
	assert.Equal(t, start.Add(5*time.Hour), status.FinishedAt)
	require.NotNil(t, status.FrozenAt)
	assert.Equal(t, start.Add(4*time.Hour), *status.FrozenAt)
}

func TestAdapterRestartsLiveFeed(t *testing.T) {
	src := &memorySource{lines: contestLines, live: true, failFirst: true}
	adapter := newTestAdapter(t, []Feed{{Name: "main", Source: src, Version: Version2022}})

	updates := collectUpdates(t, adapter)
	assert.Equal(t, 2, src.opens)
	require.Len(t, updates, 3)
	assert.True(t, types.IsFinalized(updates[2].Contest().Status))
}

func TestAdapterHandlerErrorIsNotRetried(t *testing.T) {
	src := &memorySource{lines: contestLines, live: true}
	adapter := newTestAdapter(t, []Feed{{Name: "main", Source: src, Version: Version2022}})

	boom := errors.New("sink is down")
	err := adapter.Subscribe(context.Background(), func(ctx context.Context, update types.ContestUpdate) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, src.opens)
}

func TestAdapterMergesFeedsAndArchives(t *testing.T) {
	main := &memorySource{lines: contestLines[:8]}
	extra := &memorySource{lines: []string{
		`{"type":"teams","id":"t2","token":"1","data":{"id":"t2","name":"Team Two"}}`,
	}}
	archive := &memoryArchive{}
	adapter := newTestAdapter(t, []Feed{
		{Name: "main", Source: main, Version: Version2022},
		{Name: "extra", Source: extra, Version: Version2022},
	}, WithArchive(archive))

	updates := collectUpdates(t, adapter)
	assert.Len(t, updates[0].Contest().Teams, 2, "a token of another feed is not a duplicate")

	events, err := archive.List(context.Background(), "main")
	require.NoError(t, err)
	assert.Len(t, events, 7)
	assert.Equal(t, "1", events[0].Token)

	replayed := newTestAdapter(t, []Feed{{
		Name:    "replay",
		Source:  &ArchiveSource{Archive: archive, Feed: "main"},
		Version: Version2022,
	}})
	replayedUpdates := collectUpdates(t, replayed)
	require.Len(t, replayedUpdates, 3)
	assert.Equal(t, updates[1].(types.RunUpdate).Run.Result, replayedUpdates[1].(types.RunUpdate).Run.Result)
}

func TestEventFeedURL(t *testing.T) {
	assert.Equal(t, "https://cds/api/contests/wf/event-feed", EventFeedURL("https://cds/api/", "wf", "", ""))
	assert.Equal(t, "https://cds/api/feeds/main/events", EventFeedURL("https://cds/api", "wf", "/feeds/main/", "events"))
	assert.Equal(t, "https://cds/event-feed", EventFeedURL("https://cds", "", "", ""))
}
