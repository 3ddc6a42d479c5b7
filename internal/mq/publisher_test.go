package mq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/jjudge-oj/livefeed/internal/scoreboard"
	"github.com/jjudge-oj/livefeed/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type published struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type fakeBackend struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakeBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, published{channel: channel, data: data, attrs: attrs})
	return "id", nil
}

func (f *fakeBackend) Subscribe(context.Context, string, Handler) error { return nil }

func (f *fakeBackend) Close() error { return nil }

func TestPublisherUpdate(t *testing.T) {
	backend := &fakeBackend{}
	p := NewPublisher(backend, zaptest.NewLogger(t))
	info := types.ContestInfo{Name: "finals", ResultType: types.ResultICPC}

	run := types.RunInfo{ID: 7, TeamID: 1, ProblemID: 2}
	require.NoError(t, p.Update(context.Background(), types.RunUpdate{Info: info, Run: run}))

	require.Len(t, backend.sent, 1)
	msg := backend.sent[0]
	assert.Equal(t, ChannelContestUpdates, msg.channel)
	assert.Equal(t, map[string]string{AttrType: "RunUpdate", AttrContest: "finals"}, msg.attrs)

	var body struct {
		Type string `json:"type"`
		Run  struct {
			ID int `json:"id"`
		} `json:"run"`
	}
	require.NoError(t, json.Unmarshal(msg.data, &body))
	assert.Equal(t, "RunUpdate", body.Type)
	assert.Equal(t, 7, body.Run.ID)
}

func TestPublisherScoreboard(t *testing.T) {
	backend := &fakeBackend{}
	p := NewPublisher(backend, zaptest.NewLogger(t))
	diff := scoreboard.Diff{
		Info:         types.ContestInfo{Name: "finals"},
		ChangedTeams: []types.TeamID{3},
		Rows:         map[types.TeamID]types.ScoreboardRow{3: {TotalScore: 1}},
	}
	require.NoError(t, p.Scoreboard(context.Background(), diff))

	require.Len(t, backend.sent, 1)
	assert.Equal(t, ChannelScoreboard, backend.sent[0].channel)
	assert.Equal(t, "ScoreboardDiff", backend.sent[0].attrs[AttrType])

	var body struct {
		ChangedTeams []int `json:"changedTeams"`
	}
	require.NoError(t, json.Unmarshal(backend.sent[0].data, &body))
	assert.Equal(t, []int{3}, body.ChangedTeams)
}

func TestPublisherSwallowsBrokerErrors(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection reset")}
	p := NewPublisher(backend, zaptest.NewLogger(t))
	assert.NoError(t, p.Update(context.Background(), types.InfoUpdate{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Update(ctx, types.InfoUpdate{}), context.Canceled)
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, "InfoUpdate", UpdateKind(types.InfoUpdate{}))
	assert.Equal(t, "AnalyticsUpdate", UpdateKind(types.AnalyticsUpdate{}))
}
