// Package feed defines the contract between contest data sources and the
// scoreboard engine, together with generic stages that wrap any source.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jjudge-oj/livefeed/types"
)

// ErrEmptyFeed is returned by LoadOnce when the source produced no updates.
var ErrEmptyFeed = errors.New("feed produced no updates")

// Handler processes an update. Returning an error aborts the subscription.
type Handler func(ctx context.Context, update types.ContestUpdate) error

// Adapter is a source of contest updates.
//
// Subscribe runs the source from scratch and calls handler sequentially for
// every update, in stream order. It blocks until the source terminates
// normally (nil), ctx is cancelled, or handler fails. An adapter emits the
// InfoUpdate establishing teams and problems before any run referencing them.
type Adapter interface {
	Subscribe(ctx context.Context, handler Handler) error
}

// AdapterFunc adapts a function to the Adapter interface.
type AdapterFunc func(ctx context.Context, handler Handler) error

// Subscribe calls f(ctx, handler).
func (f AdapterFunc) Subscribe(ctx context.Context, handler Handler) error {
	return f(ctx, handler)
}

// Result is the final state of a terminated feed.
type Result struct {
	Info      types.ContestInfo
	Runs      []types.RunInfo
	Analytics []types.AnalyticsMessage
}

// LoadOnce consumes a terminating feed and returns its final state. Runs are
// deduplicated by id, the latest version winning, and sorted by time.
func LoadOnce(ctx context.Context, adapter Adapter) (Result, error) {
	var (
		result  Result
		hasInfo bool
	)
	runs := make(map[types.RunID]types.RunInfo)
	err := adapter.Subscribe(ctx, func(ctx context.Context, update types.ContestUpdate) error {
		result.Info = update.Contest()
		hasInfo = true
		switch u := update.(type) {
		case types.RunUpdate:
			runs[u.Run.ID] = u.Run
		case types.AnalyticsUpdate:
			result.Analytics = append(result.Analytics, u.Message)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("load feed: %w", err)
	}
	if !hasInfo {
		return Result{}, ErrEmptyFeed
	}
	result.Runs = make([]types.RunInfo, 0, len(runs))
	for _, run := range runs {
		result.Runs = append(result.Runs, run)
	}
	SortRuns(result.Runs)
	return result, nil
}

// SortRuns orders runs by submission time, then by id.
func SortRuns(runs []types.RunInfo) {
	sort.Slice(runs, func(i, j int) bool {
		return RunLess(runs[i], runs[j])
	})
}

// RunLess is the canonical run order: by time, then by id.
func RunLess(a, b types.RunInfo) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.ID < b.ID
}
