package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupVerdict(t *testing.T) {
	tests := []struct {
		name            string
		shortName       string
		accepted        bool
		addingPenalty   bool
		expectedVerdict Verdict
	}{
		{"exact", "WA", false, true, VerdictWrongAnswer},
		{"alias", "OK", true, false, VerdictAccepted},
		{"flags pick the variant", "CE", false, true, VerdictCompilationErrorWithPenalty},
		{"flags pick the other variant", "CE", false, false, VerdictCompilationError},
		{"unknown accepted", "YES", true, false, VerdictAccepted},
		{"unknown rejected", "NO", false, true, VerdictRejected},
		{"unknown ignored", "??", false, false, VerdictIgnored},
		{"flag mismatch", "AC", false, true, VerdictRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedVerdict, LookupVerdict(tt.shortName, tt.accepted, tt.addingPenalty))
		})
	}
	assert.Equal(t, "TL", VerdictTimeLimitExceeded.String())
}

func TestTaggedJSON(t *testing.T) {
	tests := map[string]struct {
		value any
		want  string
	}{
		"empty status":  {StatusBefore{}, `{"type":"BEFORE"}`},
		"in progress":   {InProgressResult{TestedPart: 0.5}, `{"type":"IN_PROGRESS","testedPart":0.5}`},
		"icpc result":   {ICPCResult{Verdict: VerdictAccepted}, `{"type":"ICPC","verdict":{"shortName":"AC","isAddingPenalty":false,"isAccepted":true},"isFirstToSolveRun":false}`},
		"nested update": {RunUpdate{Run: RunInfo{Result: InProgressResult{}}}, ``},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			if tt.want == "" {
				var decoded map[string]any
				require.NoError(t, json.Unmarshal(data, &decoded))
				assert.Equal(t, "RunUpdate", decoded["type"])
				return
			}
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestRunIsJudged(t *testing.T) {
	assert.False(t, RunInfo{}.IsJudged())
	assert.False(t, RunInfo{Result: InProgressResult{TestedPart: 0.9}}.IsJudged())
	assert.True(t, RunInfo{Result: ICPCResult{Verdict: VerdictWrongAnswer}}.IsJudged())
	assert.True(t, RunInfo{Result: IOIResult{Score: []float64{10, 20.5}}}.IsJudged())
	assert.Equal(t, 30.5, IOIResult{Score: []float64{10, 20.5}}.Total())
}

func TestContestInfoHelpers(t *testing.T) {
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	freeze := 4 * time.Hour
	info := ContestInfo{
		Status:        StatusBefore{ScheduledStartAt: &start},
		ContestLength: 5 * time.Hour,
		FreezeTime:    &freeze,
		Problems: []ProblemInfo{
			{ID: 1, DisplayName: "B", Ordinal: 1},
			{ID: 2, DisplayName: "hidden", Ordinal: 0, IsHidden: true},
			{ID: 3, DisplayName: "A", Ordinal: 0},
		},
		Teams: []TeamInfo{{ID: 7, DisplayName: "seven", Groups: []GroupID{2}}},
	}

	got, ok := info.StartTime()
	require.True(t, ok)
	assert.Equal(t, start, got)

	labels := []string{}
	for _, p := range info.ScoreboardProblems() {
		labels = append(labels, p.DisplayName)
	}
	assert.Equal(t, []string{"A", "B"}, labels)

	team, ok := info.Team(7)
	require.True(t, ok)
	assert.True(t, team.InGroup(2))
	assert.False(t, team.InGroup(3))
	_, ok = info.Team(8)
	assert.False(t, ok)

	final := info.FinalizedStatus()
	assert.Equal(t, start.Add(5*time.Hour), final.FinalizedAt)
	require.NotNil(t, final.FrozenAt)
	assert.Equal(t, start.Add(freeze), *final.FrozenAt)
	assert.True(t, IsFinalized(final))
	assert.False(t, IsFinalized(info.Status))

	_, ok = ContestInfo{}.StartTime()
	assert.False(t, ok)
}

func TestEffectiveDefaults(t *testing.T) {
	assert.Equal(t, 1, ProblemInfo{}.EffectiveWeight())
	assert.Equal(t, 3, ProblemInfo{Weight: 3}.EffectiveWeight())
	assert.Equal(t, ScoreMergeLast, ProblemInfo{}.EffectiveScoreMergeMode())
	assert.Equal(t, TiebreakAll, RankBasedAward{}.EffectiveTiebreakMode())
}
