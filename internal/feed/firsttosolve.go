package feed

import (
	"context"
	"sort"

	"github.com/jjudge-oj/livefeed/types"
	"go.uber.org/zap"
)

// WithFirstToSolve marks the first-to-solve run of every problem in ICPC
// contests. When the first solver of a problem changes, the previous winner is
// re-emitted with the flag cleared before the new winner is emitted.
// Other result types pass through unchanged.
func WithFirstToSolve(adapter Adapter, logger *zap.Logger) Adapter {
	return AdapterFunc(func(ctx context.Context, handler Handler) error {
		stage := &firstToSolve{
			logger:  logger,
			handler: handler,
			solved:  make(map[types.ProblemID][]types.RunInfo),
			byID:    make(map[types.RunID]types.RunInfo),
			first:   make(map[types.ProblemID]types.RunID),
		}
		return adapter.Subscribe(ctx, stage.process)
	})
}

type firstToSolve struct {
	logger  *zap.Logger
	handler Handler
	info    types.ContestInfo

	// accepted runs per problem, sorted by (time, id), stored with the flag cleared
	solved map[types.ProblemID][]types.RunInfo
	byID   map[types.RunID]types.RunInfo
	first  map[types.ProblemID]types.RunID
}

func (s *firstToSolve) process(ctx context.Context, update types.ContestUpdate) error {
	s.info = update.Contest()
	switch u := update.(type) {
	case types.RunUpdate:
		if s.info.ResultType != types.ResultICPC {
			return s.handler(ctx, update)
		}
		return s.processRun(ctx, u.Run)
	case types.InfoUpdate:
		if err := s.handler(ctx, update); err != nil {
			return err
		}
		if s.info.ResultType != types.ResultICPC {
			return nil
		}
		problems := make([]types.ProblemID, 0, len(s.solved))
		for problem := range s.solved {
			problems = append(problems, problem)
		}
		sort.Slice(problems, func(i, j int) bool { return problems[i] < problems[j] })
		for _, problem := range problems {
			if _, err := s.recalculate(ctx, problem); err != nil {
				return err
			}
		}
		return nil
	default:
		return s.handler(ctx, update)
	}
}

func (s *firstToSolve) processRun(ctx context.Context, run types.RunInfo) error {
	result, isICPC := run.Result.(types.ICPCResult)
	if isICPC && result.IsFirstToSolveRun {
		run = withFirstToSolve(run, false)
	}
	if old, ok := s.byID[run.ID]; ok {
		s.remove(old)
		if old.ProblemID != run.ProblemID {
			s.logger.Warn("Run changed problem",
				zap.Int("run", int(run.ID)),
				zap.Int("from", int(old.ProblemID)),
				zap.Int("to", int(run.ProblemID)))
			if _, err := s.recalculate(ctx, old.ProblemID); err != nil {
				return err
			}
		}
	}
	if isICPC && result.Verdict.IsAccepted {
		s.insert(run)
	}
	emitted, err := s.recalculate(ctx, run.ProblemID)
	if err != nil {
		return err
	}
	if emitted[run.ID] {
		return nil
	}
	return s.emit(ctx, run)
}

// recalculate updates the winner of a problem and emits the runs whose flag
// changed. It returns the ids of emitted runs.
func (s *firstToSolve) recalculate(ctx context.Context, problem types.ProblemID) (map[types.RunID]bool, error) {
	emitted := make(map[types.RunID]bool, 2)
	winner, hasWinner := s.winner(problem)
	current, hasCurrent := s.first[problem]
	if hasCurrent && hasWinner && current == winner.ID {
		return emitted, nil
	}
	if hasCurrent {
		delete(s.first, problem)
		if old, ok := s.byID[current]; ok {
			s.logger.Warn("First to solve was replaced",
				zap.Int("problem", int(problem)),
				zap.Int("from", int(current)),
				zap.Int("to", int(winner.ID)))
			if err := s.emit(ctx, old); err != nil {
				return nil, err
			}
			emitted[current] = true
		}
	}
	if hasWinner {
		s.first[problem] = winner.ID
		if err := s.emit(ctx, winner); err != nil {
			return nil, err
		}
		emitted[winner.ID] = true
	}
	return emitted, nil
}

func (s *firstToSolve) winner(problemID types.ProblemID) (types.RunInfo, bool) {
	problem, _ := s.info.Problem(problemID)
	switch problem.FTSMode {
	case types.FTSHidden:
		return types.RunInfo{}, false
	case types.FTSCustom:
		if problem.FTSRunID == nil {
			return types.RunInfo{}, false
		}
		run, ok := s.byID[*problem.FTSRunID]
		if !ok || run.ProblemID != problemID {
			return types.RunInfo{}, false
		}
		return run, true
	}
	for _, run := range s.solved[problemID] {
		if !run.IsHidden {
			return run, true
		}
	}
	return types.RunInfo{}, false
}

func (s *firstToSolve) emit(ctx context.Context, run types.RunInfo) error {
	if _, ok := run.Result.(types.ICPCResult); ok {
		winner, has := s.first[run.ProblemID]
		run = withFirstToSolve(run, has && winner == run.ID)
	}
	return s.handler(ctx, types.RunUpdate{Info: s.info, Run: run})
}

func (s *firstToSolve) insert(run types.RunInfo) {
	runs := s.solved[run.ProblemID]
	idx := sort.Search(len(runs), func(i int) bool { return RunLess(run, runs[i]) })
	runs = append(runs, types.RunInfo{})
	copy(runs[idx+1:], runs[idx:])
	runs[idx] = run
	s.solved[run.ProblemID] = runs
	s.byID[run.ID] = run
}

func (s *firstToSolve) remove(run types.RunInfo) {
	delete(s.byID, run.ID)
	runs := s.solved[run.ProblemID]
	for i := range runs {
		if runs[i].ID == run.ID {
			s.solved[run.ProblemID] = append(runs[:i:i], runs[i+1:]...)
			return
		}
	}
}

func withFirstToSolve(run types.RunInfo, value bool) types.RunInfo {
	if result, ok := run.Result.(types.ICPCResult); ok {
		result.IsFirstToSolveRun = value
		run.Result = result
	}
	return run
}
