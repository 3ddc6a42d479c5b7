package scoreboard

import (
	"context"
	"testing"

	"github.com/jjudge-oj/livefeed/internal/feed"
	"github.com/jjudge-oj/livefeed/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingSink struct {
	updates []types.ContestUpdate
	diffs   []Diff
}

func (s *recordingSink) Update(_ context.Context, update types.ContestUpdate) error {
	s.updates = append(s.updates, update)
	return nil
}

func (s *recordingSink) Scoreboard(_ context.Context, diff Diff) error {
	s.diffs = append(s.diffs, diff)
	return nil
}

func TestDriverIgnoresUnchangedInfo(t *testing.T) {
	d := NewDriver(OptimismNormal, zaptest.NewLogger(t))
	info := testContest(types.ResultICPC, "a", "b")
	info.ShowTeamsWithoutSubmissions = true

	diff, changed := d.Apply(types.InfoUpdate{Info: info})
	require.True(t, changed)
	assert.Equal(t, []types.TeamID{1, 2}, diff.ChangedTeams)
	first := d.Snapshot().Ranking

	_, changed = d.Apply(types.InfoUpdate{Info: info})
	assert.False(t, changed)
	assert.Equal(t, first, d.Snapshot().Ranking)
}

func TestDriverRecomputesAffectedTeamOnly(t *testing.T) {
	d := NewDriver(OptimismNormal, zaptest.NewLogger(t))
	info := testContest(types.ResultICPC, "a", "b")
	info.ShowTeamsWithoutSubmissions = true
	d.Apply(types.InfoUpdate{Info: info})

	run := icpcRun(1, 2, 1, 15, types.VerdictAccepted)
	diff, changed := d.Apply(types.RunUpdate{Info: info, Run: run})
	require.True(t, changed)
	assert.Equal(t, []types.TeamID{2}, diff.ChangedTeams)
	require.Contains(t, diff.Rows, types.TeamID(2))
	assert.Equal(t, 1.0, diff.Rows[2].TotalScore)
	assert.Equal(t, []types.TeamID{2, 1}, diff.Ranking.Order)

	_, changed = d.Apply(types.RunUpdate{Info: info, Run: run})
	assert.False(t, changed)

	// the run moves to team a
	run.TeamID = 1
	diff, changed = d.Apply(types.RunUpdate{Info: info, Run: run})
	require.True(t, changed)
	assert.Equal(t, []types.TeamID{1, 2}, diff.ChangedTeams)
	assert.Equal(t, []types.TeamID{1, 2}, diff.Ranking.Order)
	assert.Equal(t, 0.0, d.Snapshot().Rows[2].TotalScore)
}

func TestDriverReactsToTeamFlagsAndAwards(t *testing.T) {
	d := NewDriver(OptimismNormal, zaptest.NewLogger(t))
	info := testContest(types.ResultICPC, "a", "b")
	info.ShowTeamsWithoutSubmissions = true
	d.Apply(types.InfoUpdate{Info: info})
	d.Apply(types.RunUpdate{Info: info, Run: icpcRun(1, 1, 1, 15, types.VerdictAccepted)})

	withAwards := info
	withAwards.AwardsSettings = []types.AwardChain{{Awards: []types.RankBasedAward{{ID: "winner", MaxRank: intPtr(1)}}}}
	diff, changed := d.Apply(types.InfoUpdate{Info: withAwards})
	require.True(t, changed)
	assert.Empty(t, diff.ChangedTeams)
	require.Len(t, diff.Ranking.Awards, 1)
	assert.Equal(t, []types.TeamID{1}, diff.Ranking.Awards[0].Teams)

	outOfContest := withAwards
	outOfContest.Teams = []types.TeamInfo{withAwards.Teams[0], withAwards.Teams[1]}
	outOfContest.Teams[0].IsOutOfContest = true
	diff, changed = d.Apply(types.InfoUpdate{Info: outOfContest})
	require.True(t, changed)
	assert.Equal(t, []int{0, 1}, diff.Ranking.Ranks)
	assert.Equal(t, []types.TeamID{2}, diff.Ranking.Awards[0].Teams)

	hidden := outOfContest
	hidden.Teams = []types.TeamInfo{outOfContest.Teams[0], outOfContest.Teams[1]}
	hidden.Teams[0].IsHidden = true
	diff, changed = d.Apply(types.InfoUpdate{Info: hidden})
	require.True(t, changed)
	assert.Equal(t, []types.TeamID{1}, diff.ChangedTeams)
	assert.NotContains(t, diff.Rows, types.TeamID(1))
	assert.Equal(t, []types.TeamID{2}, diff.Ranking.Order)
}

func TestDriverRunWithFirstToSolve(t *testing.T) {
	info := testContest(types.ResultICPC, "A", "B", "C")
	updates := []types.ContestUpdate{
		types.InfoUpdate{Info: info},
		types.RunUpdate{Info: info, Run: icpcRun(1, 1, 1, 3, types.VerdictWrongAnswer)},
		types.RunUpdate{Info: info, Run: icpcRun(4, 1, 1, 10, types.VerdictAccepted)},
		types.RunUpdate{Info: info, Run: icpcRun(3, 2, 1, 5, types.VerdictAccepted)},
		types.RunUpdate{Info: info, Run: icpcRun(5, 2, 2, 40, types.VerdictAccepted)},
		types.RunUpdate{Info: info, Run: icpcRun(2, 3, 1, 4, types.VerdictWrongAnswer)},
	}
	source := feed.AdapterFunc(func(ctx context.Context, handler feed.Handler) error {
		for _, u := range updates {
			if err := handler(ctx, u); err != nil {
				return err
			}
		}
		return nil
	})
	logger := zaptest.NewLogger(t)
	d := NewDriver(OptimismNormal, logger)
	sink := &recordingSink{}

	require.NoError(t, d.Run(context.Background(), feed.WithFirstToSolve(source, logger), sink))

	snapshot := d.Snapshot()
	assert.Equal(t, []types.TeamID{2, 1, 3}, snapshot.Ranking.Order)
	assert.Equal(t, []int{1, 2, 3}, snapshot.Ranking.Ranks)
	assert.True(t, snapshot.Rows[2].ProblemResults[0].(types.ICPCProblemResult).IsFirstToSolve)
	assert.False(t, snapshot.Rows[1].ProblemResults[0].(types.ICPCProblemResult).IsFirstToSolve)
	assert.NotEmpty(t, sink.diffs)
	assert.GreaterOrEqual(t, len(sink.updates), len(updates))
	assert.Equal(t, snapshot.Ranking, sink.diffs[len(sink.diffs)-1].Ranking)
}

func TestSinksFanOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	sink := Sinks(a, b)
	info := testContest(types.ResultICPC, "a")

	require.NoError(t, sink.Update(context.Background(), types.InfoUpdate{Info: info}))
	require.NoError(t, sink.Scoreboard(context.Background(), Diff{Info: info}))

	assert.Len(t, a.updates, 1)
	assert.Len(t, b.diffs, 1)
}
