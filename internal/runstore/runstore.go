// Package runstore indexes runs by team so that a run change only requires
// recomputing the row of the affected team.
package runstore

import (
	"sort"

	"github.com/jjudge-oj/livefeed/internal/feed"
	"github.com/jjudge-oj/livefeed/types"
)

// Store keeps the runs of every team sorted by time, then id.
// It is not safe for concurrent use.
type Store struct {
	byTeam map[types.TeamID][]types.RunInfo
	teamOf map[types.RunID]types.TeamID
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byTeam: make(map[types.TeamID][]types.RunInfo),
		teamOf: make(map[types.RunID]types.TeamID),
	}
}

// Apply stores the update and returns the teams whose rows may have changed.
// An InfoUpdate affects every team of the contest.
func (s *Store) Apply(update types.ContestUpdate) []types.TeamID {
	switch u := update.(type) {
	case types.InfoUpdate:
		teams := make([]types.TeamID, 0, len(u.Info.Teams))
		for _, t := range u.Info.Teams {
			teams = append(teams, t.ID)
		}
		return teams
	case types.RunUpdate:
		return s.put(u.Run)
	default:
		return nil
	}
}

func (s *Store) put(run types.RunInfo) []types.TeamID {
	affected := []types.TeamID{run.TeamID}
	if old, ok := s.teamOf[run.ID]; ok && old != run.TeamID {
		s.remove(old, run.ID)
		affected = append(affected, old)
	}
	s.teamOf[run.ID] = run.TeamID

	runs := s.byTeam[run.TeamID]
	for i := range runs {
		if runs[i].ID == run.ID {
			runs = append(runs[:i:i], runs[i+1:]...)
			break
		}
	}
	i := sort.Search(len(runs), func(i int) bool {
		return feed.RunLess(run, runs[i])
	})
	updated := make([]types.RunInfo, 0, len(runs)+1)
	updated = append(updated, runs[:i]...)
	updated = append(updated, run)
	updated = append(updated, runs[i:]...)
	s.byTeam[run.TeamID] = updated
	return affected
}

func (s *Store) remove(team types.TeamID, id types.RunID) {
	runs := s.byTeam[team]
	kept := make([]types.RunInfo, 0, len(runs))
	for _, r := range runs {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.byTeam[team] = kept
}

// Runs returns a copy of the team's runs in time order.
func (s *Store) Runs(team types.TeamID) []types.RunInfo {
	runs := s.byTeam[team]
	out := make([]types.RunInfo, len(runs))
	copy(out, runs)
	return out
}

// Teams returns every team that has at least one run.
func (s *Store) Teams() []types.TeamID {
	teams := make([]types.TeamID, 0, len(s.byTeam))
	for team, runs := range s.byTeam {
		if len(runs) > 0 {
			teams = append(teams, team)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	return teams
}
