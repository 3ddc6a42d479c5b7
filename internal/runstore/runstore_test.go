package runstore

import (
	"testing"
	"time"

	"github.com/jjudge-oj/livefeed/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(id types.RunID, team types.TeamID, minute int) types.RunInfo {
	return types.RunInfo{
		ID:     id,
		TeamID: team,
		Time:   time.Duration(minute) * time.Minute,
		Result: types.InProgressResult{},
	}
}

func ids(runs []types.RunInfo) []types.RunID {
	out := make([]types.RunID, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.ID)
	}
	return out
}

func TestApplyKeepsTimeOrder(t *testing.T) {
	s := New()
	assert.Equal(t, []types.TeamID{1}, s.Apply(types.RunUpdate{Run: run(3, 1, 30)}))
	s.Apply(types.RunUpdate{Run: run(1, 1, 10)})
	s.Apply(types.RunUpdate{Run: run(2, 1, 10)})
	s.Apply(types.RunUpdate{Run: run(4, 1, 20)})

	assert.Equal(t, []types.RunID{1, 2, 4, 3}, ids(s.Runs(1)))
}

func TestApplyReplacesRun(t *testing.T) {
	s := New()
	s.Apply(types.RunUpdate{Run: run(1, 1, 10)})
	s.Apply(types.RunUpdate{Run: run(2, 1, 20)})

	judged := run(1, 1, 10)
	judged.Result = types.ICPCResult{Verdict: types.VerdictAccepted}
	s.Apply(types.RunUpdate{Run: judged})

	runs := s.Runs(1)
	require.Len(t, runs, 2)
	assert.Equal(t, judged, runs[0])

	moved := run(2, 1, 5)
	s.Apply(types.RunUpdate{Run: moved})
	assert.Equal(t, []types.RunID{2, 1}, ids(s.Runs(1)))
}

func TestApplyMovesRunBetweenTeams(t *testing.T) {
	s := New()
	s.Apply(types.RunUpdate{Run: run(1, 1, 10)})

	affected := s.Apply(types.RunUpdate{Run: run(1, 2, 10)})
	assert.ElementsMatch(t, []types.TeamID{1, 2}, affected)
	assert.Empty(t, s.Runs(1))
	assert.Equal(t, []types.RunID{1}, ids(s.Runs(2)))
	assert.Equal(t, []types.TeamID{2}, s.Teams())
}

func TestApplyInfoAffectsAllTeams(t *testing.T) {
	s := New()
	info := types.ContestInfo{Teams: []types.TeamInfo{{ID: 1}, {ID: 2}, {ID: 3}}}
	assert.Equal(t, []types.TeamID{1, 2, 3}, s.Apply(types.InfoUpdate{Info: info}))
	assert.Nil(t, s.Apply(types.AnalyticsUpdate{Info: info}))
}

func TestRunsReturnsCopy(t *testing.T) {
	s := New()
	s.Apply(types.RunUpdate{Run: run(1, 1, 10)})
	runs := s.Runs(1)
	runs[0].IsHidden = true
	assert.False(t, s.Runs(1)[0].IsHidden)
}
