package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jjudge-oj/livefeed/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func static(updates ...types.ContestUpdate) Adapter {
	return AdapterFunc(func(ctx context.Context, handler Handler) error {
		for _, u := range updates {
			if err := handler(ctx, u); err != nil {
				return err
			}
		}
		return nil
	})
}

func collect(t *testing.T, adapter Adapter) []types.ContestUpdate {
	t.Helper()
	var got []types.ContestUpdate
	err := adapter.Subscribe(context.Background(), func(ctx context.Context, u types.ContestUpdate) error {
		got = append(got, u)
		return nil
	})
	require.NoError(t, err)
	return got
}

func icpcInfo() types.ContestInfo {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	freeze := 4 * time.Hour
	return types.ContestInfo{
		Name:                   "test",
		Status:                 types.StatusRunning{StartedAt: start},
		ResultType:             types.ResultICPC,
		ContestLength:          5 * time.Hour,
		FreezeTime:             &freeze,
		Problems:               []types.ProblemInfo{{ID: 1, DisplayName: "A"}, {ID: 2, DisplayName: "B", Ordinal: 1}},
		Teams:                  []types.TeamInfo{{ID: 1, DisplayName: "A"}, {ID: 2, DisplayName: "B"}},
		PenaltyRoundingMode:    types.PenaltyEachSubmissionDownToMinute,
		PenaltyPerWrongAttempt: types.DefaultPenaltyPerWrongAttempt,
	}
}

func icpcRun(id types.RunID, team types.TeamID, problem types.ProblemID, at time.Duration, verdict types.Verdict) types.RunInfo {
	return types.RunInfo{
		ID:        id,
		TeamID:    team,
		ProblemID: problem,
		Time:      at,
		Result:    types.ICPCResult{Verdict: verdict},
	}
}

func TestLoadOnceKeepsLatestRunVersion(t *testing.T) {
	info := icpcInfo()
	pending := types.RunInfo{ID: 2, TeamID: 1, ProblemID: 1, Time: time.Minute, Result: types.InProgressResult{}}
	updates := []types.ContestUpdate{
		types.InfoUpdate{Info: info},
		types.RunUpdate{Info: info, Run: pending},
		types.RunUpdate{Info: info, Run: icpcRun(1, 2, 1, 2*time.Minute, types.VerdictWrongAnswer)},
		types.RunUpdate{Info: info, Run: icpcRun(2, 1, 1, time.Minute, types.VerdictAccepted)},
		types.AnalyticsUpdate{Info: info, Message: types.AnalyticsMessage{ID: "c1", Message: "hello"}},
	}

	result, err := LoadOnce(context.Background(), static(updates...))
	require.NoError(t, err)

	require.Len(t, result.Runs, 2)
	assert.Equal(t, types.RunID(2), result.Runs[0].ID)
	assert.Equal(t, types.ICPCResult{Verdict: types.VerdictAccepted}, result.Runs[0].Result)
	assert.Equal(t, types.RunID(1), result.Runs[1].ID)
	require.Len(t, result.Analytics, 1)
	assert.Equal(t, "hello", result.Analytics[0].Message)
	assert.Equal(t, "test", result.Info.Name)
}

func TestLoadOnceEmpty(t *testing.T) {
	_, err := LoadOnce(context.Background(), static())
	assert.ErrorIs(t, err, ErrEmptyFeed)
}

func TestMergeDeliversAllUpdates(t *testing.T) {
	info := icpcInfo()
	a := static(types.InfoUpdate{Info: info}, types.RunUpdate{Info: info, Run: icpcRun(1, 1, 1, 0, types.VerdictAccepted)})
	b := static(types.InfoUpdate{Info: info}, types.RunUpdate{Info: info, Run: icpcRun(2, 2, 1, 0, types.VerdictAccepted)})

	got := collect(t, Merge(a, b))
	assert.Len(t, got, 4)
}

func TestMergeCombinesSnapshots(t *testing.T) {
	first := icpcInfo()
	first.Teams = []types.TeamInfo{{ID: 1, DisplayName: "A"}}
	second := icpcInfo()
	second.Name = "other site"
	second.Teams = []types.TeamInfo{{ID: 1, DisplayName: "renamed"}, {ID: 9, DisplayName: "I"}}
	second.Problems = append(second.Problems, types.ProblemInfo{ID: 3, DisplayName: "C", Ordinal: 2})

	got := collect(t, Merge(
		static(types.InfoUpdate{Info: first}, types.RunUpdate{Info: first, Run: icpcRun(1, 1, 1, 0, types.VerdictAccepted)}),
		static(types.InfoUpdate{Info: second}, types.RunUpdate{Info: second, Run: icpcRun(2, 9, 3, 0, types.VerdictAccepted)}),
	))
	require.Len(t, got, 4)

	combined := got[len(got)-1].Contest()
	assert.Equal(t, "test", combined.Name)
	assert.Equal(t, []types.TeamInfo{{ID: 1, DisplayName: "A"}, {ID: 9, DisplayName: "I"}}, combined.Teams)
	require.Len(t, combined.Problems, 3)
	for _, u := range got {
		if run, ok := u.(types.RunUpdate); ok {
			_, known := run.Info.Team(run.Run.TeamID)
			assert.True(t, known, "run %d references a team missing from its snapshot", run.Run.ID)
		}
	}
}

func TestMergeFinalizesWhenAllSourcesFinalize(t *testing.T) {
	info := icpcInfo()
	start := info.StartTimeOrZero()
	final := func(at time.Duration) types.ContestInfo {
		return info.WithStatus(types.StatusFinalized{StartedAt: start, FinishedAt: start.Add(5 * time.Hour), FinalizedAt: start.Add(at)})
	}

	got := collect(t, Merge(
		static(types.InfoUpdate{Info: info}, types.InfoUpdate{Info: final(5 * time.Hour)}),
		static(types.InfoUpdate{Info: info}, types.InfoUpdate{Info: final(6 * time.Hour)}),
	))
	require.Len(t, got, 4)

	var finalized int
	for _, u := range got {
		if types.IsFinalized(u.Contest().Status) {
			finalized++
		}
	}
	assert.Equal(t, 1, finalized)
	last, ok := got[3].Contest().Status.(types.StatusFinalized)
	require.True(t, ok)
	assert.Equal(t, start.Add(6*time.Hour), last.FinalizedAt)
}

func TestCombineStatusReportsOverUntilComplete(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	finalized := types.StatusFinalized{StartedAt: start, FinishedAt: start.Add(time.Hour), FinalizedAt: start.Add(2 * time.Hour)}
	running := types.StatusRunning{StartedAt: start}

	assert.Equal(t, types.StatusOver{StartedAt: start, FinishedAt: start.Add(time.Hour)},
		combineStatus([]types.ContestStatus{running, finalized}, true))
	assert.Equal(t, types.StatusOver{StartedAt: start, FinishedAt: start.Add(time.Hour)},
		combineStatus([]types.ContestStatus{finalized}, false))
	assert.Equal(t, finalized, combineStatus([]types.ContestStatus{finalized, finalized}, true))
	assert.Equal(t, running, combineStatus([]types.ContestStatus{types.StatusBefore{}, running}, true))
}

func TestMergeStopsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	failing := AdapterFunc(func(ctx context.Context, handler Handler) error { return boom })
	blocking := AdapterFunc(func(ctx context.Context, handler Handler) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := Merge(failing, blocking).Subscribe(context.Background(), func(context.Context, types.ContestUpdate) error { return nil })
	assert.ErrorIs(t, err, boom)
}

func TestRetryRestartsUntilSuccess(t *testing.T) {
	attempts := 0
	var reported []error
	err := Retry(context.Background(), time.Millisecond, func(err error) { reported = append(reported, err) }, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, reported, 2)
}

func TestRetryPermanentError(t *testing.T) {
	boom := errors.New("handler failed")
	attempts := 0
	err := Retry(context.Background(), time.Millisecond, nil, func(ctx context.Context) error {
		attempts++
		return Permanent(boom)
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := Retry(ctx, time.Hour, func(error) { cancel() }, func(ctx context.Context) error {
		return errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnsureFinalizedSynthesizesStatus(t *testing.T) {
	info := icpcInfo()
	got := collect(t, EnsureFinalized(static(types.InfoUpdate{Info: info}), zap.NewNop()))

	require.Len(t, got, 2)
	status, ok := got[1].Contest().Status.(types.StatusFinalized)
	require.True(t, ok, "last update must be finalized")
	start := info.StartTimeOrZero()
	assert.Equal(t, start, status.StartedAt)
	assert.Equal(t, start.Add(5*time.Hour), status.FinishedAt)
	assert.Equal(t, start.Add(5*time.Hour), status.FinalizedAt)
	require.NotNil(t, status.FrozenAt)
	assert.Equal(t, start.Add(4*time.Hour), *status.FrozenAt)
}

func TestEnsureFinalizedKeepsFinalizedFeed(t *testing.T) {
	info := icpcInfo()
	info.Status = info.FinalizedStatus()
	got := collect(t, EnsureFinalized(static(types.InfoUpdate{Info: info}), zap.NewNop()))
	assert.Len(t, got, 1)
}

func runsOf(updates []types.ContestUpdate) []types.RunInfo {
	var runs []types.RunInfo
	for _, u := range updates {
		if r, ok := u.(types.RunUpdate); ok {
			runs = append(runs, r.Run)
		}
	}
	return runs
}

func isFTS(run types.RunInfo) bool {
	r, ok := run.Result.(types.ICPCResult)
	return ok && r.IsFirstToSolveRun
}

func TestFirstToSolveMovesToEarlierRun(t *testing.T) {
	info := icpcInfo()
	got := runsOf(collect(t, WithFirstToSolve(static(
		types.InfoUpdate{Info: info},
		types.RunUpdate{Info: info, Run: icpcRun(1, 1, 1, 10*time.Minute, types.VerdictAccepted)},
		types.RunUpdate{Info: info, Run: icpcRun(2, 2, 1, 5*time.Minute, types.VerdictAccepted)},
		types.RunUpdate{Info: info, Run: icpcRun(3, 2, 2, 6*time.Minute, types.VerdictWrongAnswer)},
	), zap.NewNop())))

	require.Len(t, got, 4)
	assert.Equal(t, types.RunID(1), got[0].ID)
	assert.True(t, isFTS(got[0]))
	assert.Equal(t, types.RunID(1), got[1].ID)
	assert.False(t, isFTS(got[1]))
	assert.Equal(t, types.RunID(2), got[2].ID)
	assert.True(t, isFTS(got[2]))
	assert.Equal(t, types.RunID(3), got[3].ID)
	assert.False(t, isFTS(got[3]))
}

func TestFirstToSolveRejudgeClearsFlag(t *testing.T) {
	info := icpcInfo()
	final, err := LoadOnce(context.Background(), WithFirstToSolve(static(
		types.InfoUpdate{Info: info},
		types.RunUpdate{Info: info, Run: icpcRun(1, 1, 1, 5*time.Minute, types.VerdictAccepted)},
		types.RunUpdate{Info: info, Run: icpcRun(2, 2, 1, 9*time.Minute, types.VerdictAccepted)},
		types.RunUpdate{Info: info, Run: icpcRun(1, 1, 1, 5*time.Minute, types.VerdictWrongAnswer)},
	), zap.NewNop()))
	require.NoError(t, err)

	require.Len(t, final.Runs, 2)
	assert.False(t, isFTS(final.Runs[0]))
	assert.True(t, isFTS(final.Runs[1]))
}

func TestFirstToSolveIgnoresHiddenRuns(t *testing.T) {
	info := icpcInfo()
	hidden := icpcRun(1, 1, 1, time.Minute, types.VerdictAccepted)
	hidden.IsHidden = true
	final, err := LoadOnce(context.Background(), WithFirstToSolve(static(
		types.InfoUpdate{Info: info},
		types.RunUpdate{Info: info, Run: hidden},
		types.RunUpdate{Info: info, Run: icpcRun(2, 2, 1, 2*time.Minute, types.VerdictAccepted)},
	), zap.NewNop()))
	require.NoError(t, err)

	assert.False(t, isFTS(final.Runs[0]))
	assert.True(t, isFTS(final.Runs[1]))
}

func ioiInfo(mode types.ScoreMergeMode) types.ContestInfo {
	info := icpcInfo()
	info.ResultType = types.ResultIOI
	info.Problems = []types.ProblemInfo{{ID: 1, DisplayName: "A", ScoreMergeMode: mode}}
	return info
}

func ioiRun(id types.RunID, team types.TeamID, at time.Duration, score ...float64) types.RunInfo {
	return types.RunInfo{
		ID:        id,
		TeamID:    team,
		ProblemID: 1,
		Time:      at,
		Result:    types.IOIResult{Score: score},
	}
}

func TestScoreDifferencesMergeModes(t *testing.T) {
	wrong := types.VerdictWrongAnswer
	second := ioiRun(2, 1, 2*time.Minute, 0, 20)
	r := second.Result.(types.IOIResult)
	r.WrongVerdict = &wrong
	second.Result = r
	runs := []types.RunInfo{
		ioiRun(1, 1, time.Minute, 10, 0),
		second,
		ioiRun(3, 1, 3*time.Minute, 5, 5),
	}

	tests := []struct {
		mode  types.ScoreMergeMode
		after []float64
		best  types.RunID
	}{
		{types.ScoreMergeMaxPerGroup, []float64{10, 30, 30}, 2},
		{types.ScoreMergeMaxTotal, []float64{10, 20, 20}, 2},
		{types.ScoreMergeLast, []float64{10, 20, 10}, 2},
		{types.ScoreMergeLastOK, []float64{10, 10, 10}, 1},
		{types.ScoreMergeSum, []float64{10, 30, 40}, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			info := ioiInfo(tt.mode)
			updates := []types.ContestUpdate{types.InfoUpdate{Info: info}}
			for _, run := range runs {
				updates = append(updates, types.RunUpdate{Info: info, Run: run})
			}
			final, err := LoadOnce(context.Background(), WithScoreDifferences(static(updates...)))
			require.NoError(t, err)
			require.Len(t, final.Runs, 3)
			for i, run := range final.Runs {
				result := run.Result.(types.IOIResult)
				assert.Equal(t, tt.after[i], result.ScoreAfter, "run %d", run.ID)
				assert.Equal(t, run.ID == tt.best, result.IsFirstBestTeamRun, "run %d", run.ID)
			}
		})
	}
}

func TestScoreDifferencesFirstBestAcrossTeams(t *testing.T) {
	info := ioiInfo(types.ScoreMergeMaxTotal)
	final, err := LoadOnce(context.Background(), WithScoreDifferences(static(
		types.InfoUpdate{Info: info},
		types.RunUpdate{Info: info, Run: ioiRun(1, 1, time.Minute, 50)},
		types.RunUpdate{Info: info, Run: ioiRun(2, 2, 2*time.Minute, 100)},
		types.RunUpdate{Info: info, Run: ioiRun(3, 1, 3*time.Minute, 100)},
	)))
	require.NoError(t, err)

	best := map[types.RunID]bool{}
	for _, run := range final.Runs {
		best[run.ID] = run.Result.(types.IOIResult).IsFirstBestRun
	}
	assert.Equal(t, map[types.RunID]bool{1: false, 2: true, 3: false}, best)
}

func TestScoreDifferencesPassesICPC(t *testing.T) {
	info := icpcInfo()
	run := icpcRun(1, 1, 1, time.Minute, types.VerdictAccepted)
	got := runsOf(collect(t, WithScoreDifferences(static(types.InfoUpdate{Info: info}, types.RunUpdate{Info: info, Run: run}))))
	require.Len(t, got, 1)
	assert.Equal(t, run, got[0])
}
