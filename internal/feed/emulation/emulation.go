// Package emulation replays a finished contest against the wall clock, as if
// it was happening live, at a configurable speed.
package emulation

import (
	"context"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/jjudge-oj/livefeed/internal/feed"
	"github.com/jjudge-oj/livefeed/types"
	"go.uber.org/zap"
)

// Emulation is an adapter releasing the updates of a loaded contest at
// start + contestTime/speed.
type Emulation struct {
	result feed.Result
	speed  float64
	start  time.Time
	logger *zap.Logger
	rng    *rand.Rand
}

// Option configures an Emulation.
type Option func(*Emulation)

// WithRandomInProgress precedes every judged run with a few in-progress
// steps, drawn from a generator seeded with seed.
func WithRandomInProgress(seed uint64) Option {
	return func(e *Emulation) {
		e.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// New creates an emulation of a loaded contest. A non-positive speed is
// treated as real time.
func New(result feed.Result, speed float64, start time.Time, logger *zap.Logger, opts ...Option) *Emulation {
	if speed <= 0 {
		speed = 1
	}
	e := &Emulation{
		result: result,
		speed:  speed,
		start:  start,
		logger: logger.Named("emulation"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type event struct {
	at      time.Duration
	status  types.ContestStatus
	run     *types.RunInfo
	message *types.AnalyticsMessage
}

// wall converts a contest-relative time to the emulated wall clock.
func (e *Emulation) wall(at time.Duration) time.Time {
	return e.start.Add(time.Duration(float64(at) / e.speed))
}

func (e *Emulation) timeline() []event {
	info := e.result.Info
	var (
		events   []event
		frozenAt *time.Time
	)
	events = append(events, event{at: 0, status: types.StatusRunning{StartedAt: e.start, IsFake: true}})
	if info.FreezeTime != nil && *info.FreezeTime < info.ContestLength {
		frozen := e.wall(*info.FreezeTime)
		frozenAt = &frozen
		events = append(events, event{at: *info.FreezeTime, status: types.StatusRunning{
			StartedAt: e.start,
			FrozenAt:  frozenAt,
			IsFake:    true,
		}})
	}
	finished := e.wall(info.ContestLength)
	events = append(events, event{at: info.ContestLength, status: types.StatusOver{
		StartedAt:  e.start,
		FinishedAt: finished,
		FrozenAt:   frozenAt,
	}})

	for i := range e.result.Runs {
		run := e.result.Runs[i]
		at := run.Time
		if _, inProgress := run.Result.(types.InProgressResult); !inProgress && run.Time > 0 && e.rng != nil {
			part := e.rng.Float64() * 0.1
			for part < 1 {
				step := run
				step.Result = types.InProgressResult{TestedPart: part}
				events = append(events, event{at: at, run: &step})
				part += e.rng.Float64()
				at += time.Duration(e.rng.IntN(20000)) * time.Millisecond
			}
		}
		events = append(events, event{at: at, run: &run})
	}
	for i := range e.result.Analytics {
		message := e.result.Analytics[i]
		message.Time = e.wall(message.ContestTime)
		events = append(events, event{at: message.ContestTime, message: &message})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].at < events[j].at })

	last := info.ContestLength
	if n := len(events); n > 0 && events[n-1].at > last {
		last = events[n-1].at
	}
	return append(events, event{at: last, status: types.StatusFinalized{
		StartedAt:   e.start,
		FinishedAt:  finished,
		FinalizedAt: e.wall(last),
		FrozenAt:    frozenAt,
	}})
}

// Subscribe emits the contest in scheduled order, sleeping until each
// event is due.
func (e *Emulation) Subscribe(ctx context.Context, handler feed.Handler) error {
	info := e.result.Info
	info.EmulationSpeed = e.speed
	e.logger.Info("Running in emulation mode",
		zap.Float64("speed", e.speed),
		zap.Time("start", e.start),
		zap.Int("runs", len(e.result.Runs)))

	start := e.start
	info = info.WithStatus(types.StatusBefore{ScheduledStartAt: &start})
	if err := handler(ctx, types.InfoUpdate{Info: info}); err != nil {
		return err
	}
	for _, ev := range e.timeline() {
		if err := sleepUntil(ctx, e.wall(ev.at)); err != nil {
			return err
		}
		var update types.ContestUpdate
		switch {
		case ev.status != nil:
			info = info.WithStatus(ev.status)
			update = types.InfoUpdate{Info: info}
		case ev.run != nil:
			update = types.RunUpdate{Info: info, Run: *ev.run}
		default:
			update = types.AnalyticsUpdate{Info: info, Message: *ev.message}
		}
		if err := handler(ctx, update); err != nil {
			return err
		}
	}
	return nil
}

func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
