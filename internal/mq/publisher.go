package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jjudge-oj/livefeed/internal/metrics"
	"github.com/jjudge-oj/livefeed/internal/scoreboard"
	"github.com/jjudge-oj/livefeed/types"
	"go.uber.org/zap"
)

const (
	// ChannelScoreboard carries one JSON scoreboard.Diff per ranking change.
	ChannelScoreboard = "scoreboard"

	// ChannelContestUpdates carries every contest update as tagged JSON.
	ChannelContestUpdates = "contest-updates"
)

// Message attributes set on every published message.
const (
	AttrType    = "type"
	AttrContest = "contest"
)

// Publisher is a scoreboard.Sink that forwards to a broker. Publish failures
// are logged and counted but never stop ingestion.
type Publisher struct {
	backend Backend
	logger  *zap.Logger
}

var _ scoreboard.Sink = (*Publisher)(nil)

func NewPublisher(backend Backend, logger *zap.Logger) *Publisher {
	return &Publisher{backend: backend, logger: logger.Named("mq")}
}

func (p *Publisher) Update(ctx context.Context, update types.ContestUpdate) error {
	return p.publish(ctx, ChannelContestUpdates, UpdateKind(update), update.Contest().Name, update)
}

func (p *Publisher) Scoreboard(ctx context.Context, diff scoreboard.Diff) error {
	return p.publish(ctx, ChannelScoreboard, "ScoreboardDiff", diff.Info.Name, diff)
}

func (p *Publisher) publish(ctx context.Context, channel, kind, contest string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}
	id, err := p.backend.Publish(ctx, channel, data, map[string]string{
		AttrType:    kind,
		AttrContest: contest,
	})
	metrics.Published(channel, err)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("Failed to publish",
			zap.String("channel", channel),
			zap.String("type", kind),
			zap.Error(err))
		return nil
	}
	p.logger.Debug("Published",
		zap.String("channel", channel),
		zap.String("type", kind),
		zap.String("id", id),
		zap.Int("bytes", len(data)))
	return nil
}

// UpdateKind names the variant of a contest update.
func UpdateKind(update types.ContestUpdate) string {
	switch update.(type) {
	case types.InfoUpdate:
		return "InfoUpdate"
	case types.RunUpdate:
		return "RunUpdate"
	case types.AnalyticsUpdate:
		return "AnalyticsUpdate"
	default:
		return fmt.Sprintf("%T", update)
	}
}
