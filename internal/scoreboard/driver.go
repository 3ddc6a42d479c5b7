package scoreboard

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/jjudge-oj/livefeed/internal/feed"
	"github.com/jjudge-oj/livefeed/internal/metrics"
	"github.com/jjudge-oj/livefeed/internal/runstore"
	"github.com/jjudge-oj/livefeed/types"
	"go.uber.org/zap"
)

// Diff is the outcome of one update that changed the scoreboard.
type Diff struct {
	Info    types.ContestInfo `json:"info"`
	Ranking Ranking           `json:"ranking"`

	// ChangedTeams lists the teams whose rows changed or disappeared, sorted.
	ChangedTeams []types.TeamID `json:"changedTeams"`

	// Rows holds the new rows of the changed teams still on the scoreboard.
	Rows map[types.TeamID]types.ScoreboardRow `json:"rows"`
}

// Snapshot is the complete current scoreboard.
type Snapshot struct {
	Info    types.ContestInfo                    `json:"info"`
	Rows    map[types.TeamID]types.ScoreboardRow `json:"rows"`
	Ranking Ranking                              `json:"ranking"`
}

// Sink consumes the contest updates and the scoreboard diffs produced by
// Driver.Run.
type Sink interface {
	Update(ctx context.Context, update types.ContestUpdate) error
	Scoreboard(ctx context.Context, diff Diff) error
}

// Sinks fans out to several sinks in order.
func Sinks(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) Update(ctx context.Context, update types.ContestUpdate) error {
	for _, s := range m {
		if err := s.Update(ctx, update); err != nil {
			return err
		}
	}
	return nil
}

func (m multiSink) Scoreboard(ctx context.Context, diff Diff) error {
	for _, s := range m {
		if err := s.Scoreboard(ctx, diff); err != nil {
			return err
		}
	}
	return nil
}

// Driver folds a contest update stream into rows and a ranking, recomputing
// only the rows of the teams an update affects. It is not safe for
// concurrent use.
type Driver struct {
	optimism OptimismLevel
	logger   *zap.Logger

	runs    *runstore.Store
	info    types.ContestInfo
	calc    Calculator
	calcFor types.ContestResultType
	rows    map[types.TeamID]types.ScoreboardRow
	inputs  rankingInputs
	ranking Ranking
	ready   bool
}

// NewDriver creates a driver scoring ICPC contests at the given optimism level.
func NewDriver(optimism OptimismLevel, logger *zap.Logger) *Driver {
	return &Driver{
		optimism: optimism,
		logger:   logger.Named("scoreboard"),
		runs:     runstore.New(),
		rows:     make(map[types.TeamID]types.ScoreboardRow),
	}
}

// Apply folds one update. The diff is only meaningful when changed is true.
func (d *Driver) Apply(update types.ContestUpdate) (Diff, bool) {
	d.info = update.Contest()
	if d.calc == nil || d.calcFor != d.info.ResultType {
		d.calc = NewCalculator(d.info.ResultType, d.optimism)
		d.calcFor = d.info.ResultType
	}
	affected := d.runs.Apply(update)

	changed := make(map[types.TeamID]bool)
	rankingChanged := !d.ready
	if _, ok := update.(types.InfoUpdate); ok {
		inputs := newRankingInputs(d.info)
		if !reflect.DeepEqual(inputs, d.inputs) {
			rankingChanged = true
			d.inputs = inputs
		}
		for id := range d.rows {
			if team, ok := d.info.Team(id); !ok || team.IsHidden {
				delete(d.rows, id)
				changed[id] = true
			}
		}
	}

	teams := d.info.TeamsByID()
	for _, id := range affected {
		team, ok := teams[id]
		if !ok || team.IsHidden {
			continue
		}
		row := d.calc.Row(d.info, d.runs.Runs(id))
		if old, ok := d.rows[id]; ok && old.Equal(row) {
			continue
		}
		d.rows[id] = row
		changed[id] = true
	}

	if len(changed) == 0 && !rankingChanged {
		return Diff{}, false
	}
	started := time.Now()
	d.ranking = ComputeRanking(d.info, d.rows, d.calc)
	d.ready = true
	elapsed := time.Since(started)
	metrics.RankingObserve(elapsed, len(d.ranking.Order))
	d.logger.Debug("Recalculated scoreboard",
		zap.Int("changedRows", len(changed)),
		zap.Int("teams", len(d.info.Teams)),
		zap.Duration("elapsed", elapsed))

	diff := Diff{
		Info:         d.info,
		Ranking:      d.ranking,
		ChangedTeams: slices.Sorted(maps.Keys(changed)),
		Rows:         make(map[types.TeamID]types.ScoreboardRow, len(changed)),
	}
	for id := range changed {
		if row, ok := d.rows[id]; ok {
			diff.Rows[id] = row
		}
	}
	return diff, true
}

// Snapshot returns the current scoreboard.
func (d *Driver) Snapshot() Snapshot {
	return Snapshot{
		Info:    d.info,
		Rows:    maps.Clone(d.rows),
		Ranking: d.ranking,
	}
}

// Run subscribes to the adapter and feeds the sink with every update and
// every scoreboard change. A nil sink only folds.
func (d *Driver) Run(ctx context.Context, adapter feed.Adapter, sink Sink) error {
	return adapter.Subscribe(ctx, func(ctx context.Context, update types.ContestUpdate) error {
		if sink != nil {
			if err := sink.Update(ctx, update); err != nil {
				return err
			}
		}
		diff, changed := d.Apply(update)
		if !changed || sink == nil {
			return nil
		}
		return sink.Scoreboard(ctx, diff)
	})
}

// rankingInputs is the part of the contest definition that changes the
// ranking or the awards without changing any row.
type rankingInputs struct {
	teams         []teamFlags
	groups        []types.GroupInfo
	organizations []types.OrganizationInfo
	awards        []types.AwardChain
	showAll       bool
}

type teamFlags struct {
	id           types.TeamID
	displayName  string
	groups       []types.GroupID
	organization *types.OrganizationID
	hidden       bool
	outOfContest bool
	customFields map[string]string
}

func newRankingInputs(info types.ContestInfo) rankingInputs {
	inputs := rankingInputs{
		teams:         make([]teamFlags, 0, len(info.Teams)),
		groups:        info.Groups,
		organizations: info.Organizations,
		awards:        info.AwardsSettings,
		showAll:       info.ShowTeamsWithoutSubmissions,
	}
	for _, t := range info.Teams {
		inputs.teams = append(inputs.teams, teamFlags{
			id:           t.ID,
			displayName:  t.DisplayName,
			groups:       t.Groups,
			organization: t.OrganizationID,
			hidden:       t.IsHidden,
			outOfContest: t.IsOutOfContest,
			customFields: t.CustomFields,
		})
	}
	return inputs
}
