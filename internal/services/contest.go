package services

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/jjudge-oj/livefeed/internal/scoreboard"
	"github.com/jjudge-oj/livefeed/internal/store"
	"github.com/jjudge-oj/livefeed/types"
)

// ErrNotLoaded is returned before the first contest snapshot arrives.
var ErrNotLoaded = errors.New("contest not loaded")

const defaultAnalyticsLimit = 200

// TeamStanding is the scoreboard line of one team.
type TeamStanding struct {
	Team     types.TeamInfo      `json:"team"`
	Row      types.ScoreboardRow `json:"row"`
	Position int                 `json:"position"`
	Rank     int                 `json:"rank"`
	Awards   []string            `json:"awards"`
}

// ContestService holds the latest contest snapshot and scoreboard for
// readers. It is a scoreboard.Sink; published values are never mutated, so
// readers may keep them after the lock is released.
type ContestService struct {
	mu        sync.RWMutex
	info      types.ContestInfo
	loaded    bool
	rows      map[types.TeamID]types.ScoreboardRow
	ranking   scoreboard.Ranking
	analytics []types.AnalyticsMessage
	keep      int
}

var _ scoreboard.Sink = (*ContestService)(nil)

func NewContestService() *ContestService {
	return &ContestService{
		rows: make(map[types.TeamID]types.ScoreboardRow),
		keep: defaultAnalyticsLimit,
	}
}

func (s *ContestService) Update(_ context.Context, update types.ContestUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = update.Contest()
	s.loaded = true
	if u, ok := update.(types.AnalyticsUpdate); ok {
		next := append(make([]types.AnalyticsMessage, 0, len(s.analytics)+1), s.analytics...)
		next = append(next, u.Message)
		if len(next) > s.keep {
			next = next[len(next)-s.keep:]
		}
		s.analytics = next
	}
	return nil
}

// Scoreboard applies a diff. Rows are copied on write.
func (s *ContestService) Scoreboard(_ context.Context, diff scoreboard.Diff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := maps.Clone(s.rows)
	for _, team := range diff.ChangedTeams {
		if row, ok := diff.Rows[team]; ok {
			rows[team] = row
		} else {
			delete(rows, team)
		}
	}
	s.rows = rows
	s.ranking = diff.Ranking
	s.info = diff.Info
	s.loaded = true
	return nil
}

func (s *ContestService) Contest() (types.ContestInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return types.ContestInfo{}, ErrNotLoaded
	}
	return s.info, nil
}

// Standings returns the full scoreboard. The rows map must not be modified.
func (s *ContestService) Standings() (scoreboard.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return scoreboard.Snapshot{}, ErrNotLoaded
	}
	return scoreboard.Snapshot{Info: s.info, Rows: s.rows, Ranking: s.ranking}, nil
}

// Team returns the standing of a ranked team, or store.ErrNotFound for a
// team that is unknown, hidden or filtered from the scoreboard.
func (s *ContestService) Team(id types.TeamID) (TeamStanding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return TeamStanding{}, ErrNotLoaded
	}
	position, rank, ok := s.ranking.RankOf(id)
	if !ok {
		return TeamStanding{}, store.ErrNotFound
	}
	standing := TeamStanding{
		Row:      s.rows[id],
		Position: position,
		Rank:     rank,
		Awards:   []string{},
	}
	for _, team := range s.info.Teams {
		if team.ID == id {
			standing.Team = team
			break
		}
	}
	for _, award := range s.ranking.Awards {
		for _, team := range award.Teams {
			if team == id {
				standing.Awards = append(standing.Awards, award.ID)
				break
			}
		}
	}
	return standing, nil
}

// Analytics returns up to limit of the latest commentary messages, oldest
// first.
func (s *ContestService) Analytics(limit int) []types.AnalyticsMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := s.analytics
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages
}
