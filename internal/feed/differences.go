package feed

import (
	"context"

	"github.com/jjudge-oj/livefeed/types"
)

// scoreAccumulator folds the scored runs of one team on one problem into the
// merged problem score.
type scoreAccumulator interface {
	add(result types.IOIResult)
	total() float64
}

type maxPerGroupAccumulator struct {
	best []float64
	sum  float64
}

func (a *maxPerGroupAccumulator) add(result types.IOIResult) {
	for i, score := range result.Score {
		for len(a.best) <= i {
			a.best = append(a.best, 0)
		}
		if score > a.best[i] {
			a.sum += score - a.best[i]
			a.best[i] = score
		}
	}
}

func (a *maxPerGroupAccumulator) total() float64 { return a.sum }

type maxTotalAccumulator struct{ value float64 }

func (a *maxTotalAccumulator) add(result types.IOIResult) {
	if t := result.Total(); t > a.value {
		a.value = t
	}
}

func (a *maxTotalAccumulator) total() float64 { return a.value }

type lastAccumulator struct{ value float64 }

func (a *lastAccumulator) add(result types.IOIResult) { a.value = result.Total() }
func (a *lastAccumulator) total() float64             { return a.value }

type lastOKAccumulator struct{ value float64 }

func (a *lastOKAccumulator) add(result types.IOIResult) {
	if result.WrongVerdict == nil {
		a.value = result.Total()
	}
}

func (a *lastOKAccumulator) total() float64 { return a.value }

type sumAccumulator struct{ value float64 }

func (a *sumAccumulator) add(result types.IOIResult) { a.value += result.Total() }
func (a *sumAccumulator) total() float64             { return a.value }

func newScoreAccumulator(mode types.ScoreMergeMode) scoreAccumulator {
	switch mode {
	case types.ScoreMergeMaxPerGroup:
		return &maxPerGroupAccumulator{}
	case types.ScoreMergeMaxTotal:
		return &maxTotalAccumulator{}
	case types.ScoreMergeLastOK:
		return &lastOKAccumulator{}
	case types.ScoreMergeSum:
		return &sumAccumulator{}
	default:
		return &lastAccumulator{}
	}
}

type groupKey struct {
	team    types.TeamID
	problem types.ProblemID
}

// WithScoreDifferences computes the merged problem score of every IOI run.
// For each (team, problem) the runs are folded in time order through the
// problem's score merge accumulator; Difference and ScoreAfter are filled in,
// the last run that raised the score is marked as the team's best run, and
// the earliest run reaching the best score on the problem is marked as the
// first best run. Only runs whose computed value changed are re-emitted.
// ICPC contests pass through unchanged.
func WithScoreDifferences(adapter Adapter) Adapter {
	return AdapterFunc(func(ctx context.Context, handler Handler) error {
		stage := &scoreDifferences{
			handler:   handler,
			raw:       make(map[types.RunID]types.RunInfo),
			groups:    make(map[groupKey][]types.RunID),
			computed:  make(map[types.RunID]types.RunInfo),
			firstBest: make(map[types.ProblemID]types.RunID),
		}
		return adapter.Subscribe(ctx, stage.process)
	})
}

type scoreDifferences struct {
	handler Handler
	info    types.ContestInfo
	modes   map[types.ProblemID]types.ScoreMergeMode

	raw       map[types.RunID]types.RunInfo
	groups    map[groupKey][]types.RunID
	computed  map[types.RunID]types.RunInfo
	firstBest map[types.ProblemID]types.RunID
}

func (s *scoreDifferences) process(ctx context.Context, update types.ContestUpdate) error {
	s.info = update.Contest()
	switch u := update.(type) {
	case types.RunUpdate:
		if s.info.ResultType != types.ResultIOI {
			return s.handler(ctx, update)
		}
		return s.processRun(ctx, u.Run)
	case types.InfoUpdate:
		if err := s.handler(ctx, update); err != nil {
			return err
		}
		modes := make(map[types.ProblemID]types.ScoreMergeMode, len(s.info.Problems))
		for _, p := range s.info.Problems {
			modes[p.ID] = p.EffectiveScoreMergeMode()
		}
		var changed []groupKey
		if s.modes != nil {
			for key := range s.groups {
				if modes[key.problem] != s.modes[key.problem] {
					changed = append(changed, key)
				}
			}
		}
		s.modes = modes
		if len(changed) == 0 || s.info.ResultType != types.ResultIOI {
			return nil
		}
		return s.refresh(ctx, changed...)
	default:
		return s.handler(ctx, update)
	}
}

func (s *scoreDifferences) processRun(ctx context.Context, run types.RunInfo) error {
	key := groupKey{team: run.TeamID, problem: run.ProblemID}
	keys := []groupKey{key}
	old, known := s.raw[run.ID]
	if !known {
		s.groups[key] = append(s.groups[key], run.ID)
	} else if oldKey := (groupKey{team: old.TeamID, problem: old.ProblemID}); oldKey != key {
		s.removeFromGroup(oldKey, run.ID)
		s.groups[key] = append(s.groups[key], run.ID)
		keys = append(keys, oldKey)
	}
	s.raw[run.ID] = run
	return s.refresh(ctx, keys...)
}

func (s *scoreDifferences) removeFromGroup(key groupKey, id types.RunID) {
	ids := s.groups[key]
	for i := range ids {
		if ids[i] == id {
			s.groups[key] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(s.groups[key]) == 0 {
		delete(s.groups, key)
	}
}

func (s *scoreDifferences) refresh(ctx context.Context, keys ...groupKey) error {
	next := make(map[types.RunID]types.RunInfo)
	problems := make(map[types.ProblemID]bool)
	for _, key := range keys {
		s.recomputeGroup(key, next)
		problems[key.problem] = true
	}
	for problem := range problems {
		s.recomputeFirstBest(problem, next)
	}

	var changed []types.RunInfo
	for id, run := range next {
		if old, ok := s.computed[id]; ok && old.Equal(run) {
			continue
		}
		s.computed[id] = run
		changed = append(changed, run)
	}
	SortRuns(changed)
	for _, run := range changed {
		if err := s.handler(ctx, types.RunUpdate{Info: s.info, Run: run}); err != nil {
			return err
		}
	}
	return nil
}

func (s *scoreDifferences) groupRuns(key groupKey) []types.RunInfo {
	ids := s.groups[key]
	runs := make([]types.RunInfo, 0, len(ids))
	for _, id := range ids {
		runs = append(runs, s.raw[id])
	}
	SortRuns(runs)
	return runs
}

func (s *scoreDifferences) recomputeGroup(key groupKey, next map[types.RunID]types.RunInfo) {
	runs := s.groupRuns(key)
	acc := newScoreAccumulator(s.modes[key.problem])
	bestIndex := -1
	for i, run := range runs {
		result, ok := run.Result.(types.IOIResult)
		if !ok {
			continue
		}
		before := acc.total()
		if !run.IsHidden {
			acc.add(result)
		}
		after := acc.total()
		result.Difference = after - before
		result.ScoreAfter = after
		result.IsFirstBestTeamRun = false
		result.IsFirstBestRun = false
		runs[i].Result = result
		if result.Difference > 0 {
			bestIndex = i
		}
	}
	for i, run := range runs {
		if result, ok := run.Result.(types.IOIResult); ok {
			result.IsFirstBestTeamRun = i == bestIndex
			result.IsFirstBestRun = i == bestIndex && s.firstBest[key.problem] == run.ID
			runs[i].Result = result
		}
		next[run.ID] = runs[i]
	}
}

// recomputeFirstBest finds the earliest team-best run with the highest score
// on the problem across all teams.
func (s *scoreDifferences) recomputeFirstBest(problem types.ProblemID, next map[types.RunID]types.RunInfo) {
	current := func(id types.RunID) types.RunInfo {
		if run, ok := next[id]; ok {
			return run
		}
		return s.computed[id]
	}

	var (
		best      types.RunInfo
		bestScore float64
		found     bool
	)
	for key, ids := range s.groups {
		if key.problem != problem {
			continue
		}
		for _, id := range ids {
			run := current(id)
			result, ok := run.Result.(types.IOIResult)
			if !ok || !result.IsFirstBestTeamRun {
				continue
			}
			if !found || result.ScoreAfter > bestScore || (result.ScoreAfter == bestScore && RunLess(run, best)) {
				best, bestScore, found = run, result.ScoreAfter, true
			}
		}
	}

	previous, hadPrevious := s.firstBest[problem]
	if found && hadPrevious && previous == best.ID {
		return
	}
	if hadPrevious {
		delete(s.firstBest, problem)
		if _, stillKnown := s.raw[previous]; stillKnown {
			next[previous] = setFirstBest(current(previous), false)
		}
	}
	if found {
		s.firstBest[problem] = best.ID
		next[best.ID] = setFirstBest(best, true)
	}
}

func setFirstBest(run types.RunInfo, value bool) types.RunInfo {
	if result, ok := run.Result.(types.IOIResult); ok {
		result.IsFirstBestRun = value
		run.Result = result
	}
	return run
}
