package emulation

import (
	"context"
	"testing"
	"time"

	"github.com/jjudge-oj/livefeed/internal/feed"
	"github.com/jjudge-oj/livefeed/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func loadedContest() feed.Result {
	freeze := 4 * time.Hour
	return feed.Result{
		Info: types.ContestInfo{
			Name:          "replayed",
			ResultType:    types.ResultICPC,
			ContestLength: 5 * time.Hour,
			FreezeTime:    &freeze,
		},
		Runs: []types.RunInfo{
			{ID: 1, TeamID: 1, ProblemID: 1, Time: 10 * time.Minute, Result: types.ICPCResult{Verdict: types.VerdictAccepted}},
			{ID: 2, TeamID: 2, ProblemID: 1, Time: 270 * time.Minute, Result: types.ICPCResult{Verdict: types.VerdictWrongAnswer}},
		},
		Analytics: []types.AnalyticsMessage{{ID: "c1", Message: "first blood", ContestTime: 11 * time.Minute}},
	}
}

func collect(t *testing.T, adapter feed.Adapter) []types.ContestUpdate {
	t.Helper()
	var updates []types.ContestUpdate
	err := adapter.Subscribe(context.Background(), func(_ context.Context, u types.ContestUpdate) error {
		updates = append(updates, u)
		return nil
	})
	require.NoError(t, err)
	return updates
}

func TestEmulationTimeline(t *testing.T) {
	start := time.Now().Add(-time.Second)
	e := New(loadedContest(), 1e9, start, zaptest.NewLogger(t))

	updates := collect(t, e)
	require.Len(t, updates, 8)

	before, ok := updates[0].Contest().Status.(types.StatusBefore)
	require.True(t, ok)
	assert.Equal(t, start, *before.ScheduledStartAt)
	assert.Equal(t, 1e9, updates[0].Contest().EmulationSpeed)

	running := updates[1].Contest().Status.(types.StatusRunning)
	assert.True(t, running.IsFake)
	assert.Nil(t, running.FrozenAt)

	assert.Equal(t, types.RunID(1), updates[2].(types.RunUpdate).Run.ID)
	assert.Equal(t, "first blood", updates[3].(types.AnalyticsUpdate).Message.Message)

	frozen := updates[4].Contest().Status.(types.StatusRunning)
	require.NotNil(t, frozen.FrozenAt)

	run := updates[5].(types.RunUpdate)
	assert.Equal(t, types.RunID(2), run.Run.ID)
	assert.NotNil(t, run.Info.Status.(types.StatusRunning).FrozenAt)

	_, ok = updates[6].Contest().Status.(types.StatusOver)
	assert.True(t, ok)
	assert.True(t, types.IsFinalized(updates[7].Contest().Status))
}

func TestEmulationInProgressSteps(t *testing.T) {
	e := New(loadedContest(), 1e9, time.Now(), zaptest.NewLogger(t), WithRandomInProgress(42))

	result, err := feed.LoadOnce(context.Background(), e)
	require.NoError(t, err)
	require.Len(t, result.Runs, 2)
	for _, run := range result.Runs {
		assert.True(t, run.IsJudged(), "run %d ends judged", run.ID)
	}

	var steps int
	for _, u := range collect(t, New(loadedContest(), 1e9, time.Now(), zaptest.NewLogger(t), WithRandomInProgress(42))) {
		if r, ok := u.(types.RunUpdate); ok {
			if _, inProgress := r.Run.Result.(types.InProgressResult); inProgress {
				steps++
			}
		}
	}
	assert.GreaterOrEqual(t, steps, 2)
}

func TestEmulationWaitsForWallClock(t *testing.T) {
	e := New(loadedContest(), 1, time.Now().Add(time.Hour), zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var updates int
	err := e.Subscribe(ctx, func(context.Context, types.ContestUpdate) error {
		updates++
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, updates)
}
