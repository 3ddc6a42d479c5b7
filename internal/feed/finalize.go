package feed

import (
	"context"

	"github.com/jjudge-oj/livefeed/types"
	"go.uber.org/zap"
)

// EnsureFinalized wraps a source so that a normal end of its stream is always
// followed by a finalized contest status. If the source finalized the contest
// itself, nothing is added.
func EnsureFinalized(adapter Adapter, logger *zap.Logger) Adapter {
	return AdapterFunc(func(ctx context.Context, handler Handler) error {
		var (
			last    types.ContestInfo
			hasInfo bool
		)
		err := adapter.Subscribe(ctx, func(ctx context.Context, update types.ContestUpdate) error {
			last = update.Contest()
			hasInfo = true
			return handler(ctx, update)
		})
		if err != nil || !hasInfo || types.IsFinalized(last.Status) {
			return err
		}
		logger.Info("Events are finished, while contest is not finalized, enforcing finalization",
			zap.String("contest", last.Name))
		return handler(ctx, types.InfoUpdate{Info: last.WithStatus(last.FinalizedStatus())})
	})
}
