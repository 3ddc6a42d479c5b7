/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jjudge-oj/livefeed/config"
	"github.com/jjudge-oj/livefeed/internal/enumerator"
	"github.com/jjudge-oj/livefeed/internal/logging"
	"github.com/jjudge-oj/livefeed/internal/scoreboard"
	"github.com/jjudge-oj/livefeed/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	replaySpeed float64
	replayStart string
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay [feed...]",
	Short: "Computes the final standings of a recorded contest",
	Long: `Reads the contest feeds to the end and prints the final ranking and
awards as JSON. Feeds given as arguments replace CLICS_FEED_URLS.

With --speed the contest is replayed live at that speed and every scoreboard
change is logged. Usage:

	livefeed replay contest.tar.gz
	livefeed replay --speed 60 object://finals/event-feed.ndjson
`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 0, "emulate the contest live at this speed")
	replayCmd.Flags().StringVar(&replayStart, "start", "", "emulated start time (RFC 3339), now by default")
}

// ReplayReport is the final scoreboard of a replayed contest.
type ReplayReport struct {
	Contest   string           `json:"contest"`
	Status    string           `json:"status"`
	Standings []ReplayStanding `json:"standings"`
	Awards    []types.Award    `json:"awards"`
}

// ReplayStanding is one ranked team of a ReplayReport. Rank is 0 for a team
// out of contest.
type ReplayStanding struct {
	Rank           int     `json:"rank"`
	TeamID         int     `json:"teamId"`
	Team           string  `json:"team"`
	TotalScore     float64 `json:"totalScore"`
	PenaltySeconds int64   `json:"penaltySeconds"`
	Attempts       int     `json:"attempts"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	if len(args) > 0 {
		cfg.Feed.URLs = args
	}
	if cmd.Flags().Changed("speed") {
		cfg.Emulation.Speed = replaySpeed
	}
	if replayStart != "" {
		start, err := time.Parse(time.RFC3339, replayStart)
		if err != nil {
			return fmt.Errorf("%w: --start: %v", config.ErrInvalid, err)
		}
		cfg.Emulation.Start = start
	}
	// recorded feeds are replayed, never recorded again
	cfg.Archive.Enabled = false
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateFeeds(); err != nil {
		return err
	}
	optimism, err := scoreboard.ParseOptimismLevel(cfg.Scoreboard.Optimism)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.MQ.Backend = config.BackendNone
	res, err := openResources(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	source, err := newSource(cfg, res, enumerator.NewSet(), logger)
	if err != nil {
		return err
	}
	var sink scoreboard.Sink
	if cfg.Emulation.Speed > 0 {
		if source, err = emulate(ctx, source, cfg.Emulation, logger); err != nil {
			return err
		}
		sink = &diffLogger{logger: logger.Named("replay")}
	}

	driver := scoreboard.NewDriver(optimism, logger)
	if err := driver.Run(ctx, withStages(source, logger), sink); err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), newReplayReport(driver.Snapshot()))
}

func newReplayReport(snapshot scoreboard.Snapshot) ReplayReport {
	info := snapshot.Info
	report := ReplayReport{
		Contest:   info.Name,
		Standings: make([]ReplayStanding, 0, len(snapshot.Ranking.Order)),
		Awards:    snapshot.Ranking.Awards,
	}
	if info.Status != nil {
		report.Status = statusName(info.Status)
	}
	teams := info.TeamsByID()
	for i, id := range snapshot.Ranking.Order {
		row := snapshot.Rows[id]
		report.Standings = append(report.Standings, ReplayStanding{
			Rank:           snapshot.Ranking.Ranks[i],
			TeamID:         int(id),
			Team:           teams[id].DisplayName,
			TotalScore:     row.TotalScore,
			PenaltySeconds: int64(row.Penalty / time.Second),
			Attempts:       row.Attempts,
		})
	}
	if report.Awards == nil {
		report.Awards = []types.Award{}
	}
	return report
}

func statusName(status types.ContestStatus) string {
	switch status.(type) {
	case types.StatusBefore:
		return "BEFORE"
	case types.StatusRunning:
		return "RUNNING"
	case types.StatusOver:
		return "OVER"
	case types.StatusFinalized:
		return "FINALIZED"
	default:
		return fmt.Sprintf("%T", status)
	}
}

func writeReport(w io.Writer, report ReplayReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// diffLogger logs every scoreboard change of an emulated replay.
type diffLogger struct {
	logger *zap.Logger
}

func (d *diffLogger) Update(context.Context, types.ContestUpdate) error { return nil }

func (d *diffLogger) Scoreboard(_ context.Context, diff scoreboard.Diff) error {
	fields := []zap.Field{
		zap.Int("changedTeams", len(diff.ChangedTeams)),
		zap.Int("ranked", len(diff.Ranking.Order)),
	}
	if len(diff.Ranking.Order) > 0 {
		if leader, ok := diff.Info.Team(diff.Ranking.Order[0]); ok {
			fields = append(fields, zap.String("leader", leader.DisplayName))
		}
	}
	d.logger.Info("Scoreboard changed", fields...)
	return nil
}
