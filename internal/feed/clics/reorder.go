package clics

import (
	"context"
	"sort"
	"time"
)

// DefaultQuietPeriod is the inactivity gap that ends the startup burst.
const DefaultQuietPeriod = time.Second

// preload reads events from in and passes them to emit. Events arriving
// before the first quiet period are collected, sorted by type priority and
// emitted before a preload-finished marker. The quiet period starts with the
// first event, so a slow connect never ends the burst early. Final state events of the burst
// are delayed until after the marker. Later events are passed through as is.
//
// preload returns when in is closed, ctx is done or emit fails.
func preload(ctx context.Context, in <-chan Event, quiet time.Duration, emit func(Event) error) error {
	var burst, finals []Event

	// nil until the first event arrives
	var (
		timer   *time.Timer
		timeout <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	flush := func() error {
		sort.SliceStable(burst, func(i, j int) bool {
			return priority(burst[i].Type) < priority(burst[j].Type)
		})
		for _, ev := range burst {
			if err := emit(ev); err != nil {
				return err
			}
		}
		if err := emit(Event{Type: typePreloadFinished}); err != nil {
			return err
		}
		for _, ev := range finals {
			if err := emit(ev); err != nil {
				return err
			}
		}
		return nil
	}

collect:
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-in:
			if !ok {
				return flush()
			}
			if isFinal(ev) {
				finals = append(finals, ev)
			} else {
				burst = append(burst, ev)
			}
			if timer == nil {
				timer = time.NewTimer(quiet)
				timeout = timer.C
			} else {
				timer.Reset(quiet)
			}
		case <-timeout:
			break collect
		}
	}
	if err := flush(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-in:
			if !ok {
				return nil
			}
			if err := emit(ev); err != nil {
				return err
			}
		}
	}
}
