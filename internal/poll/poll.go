// Package poll provides a cancellable background polling task whose cadence
// can change after every run.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Func performs one poll and returns the schedule for the next one. Returning
// nil ends the task.
type Func func(ctx context.Context) cron.Schedule

// Every returns a schedule that fires every d, or nil when d is not positive.
// d is rounded to whole seconds.
func Every(d time.Duration) cron.Schedule {
	if d <= 0 {
		return nil
	}
	return cron.Every(d)
}

// Immediately fires as soon as it is consulted.
var Immediately cron.Schedule = immediate{}

type immediate struct{}

func (immediate) Next(t time.Time) time.Time { return t }

// Task runs a Func on a schedule until the Func returns nil, Stop is called,
// or the context passed to Start is cancelled.
type Task struct {
	name   string
	first  cron.Schedule
	fn     Func
	logger zerolog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	started   chan struct{}
	stop      chan struct{}
	done      chan struct{}
}

// New creates a Task that first runs according to first.
func New(name string, first cron.Schedule, fn Func, logger zerolog.Logger) *Task {
	return &Task{
		name:    name,
		first:   first,
		fn:      fn,
		logger:  logger.With().Str("component", "poll").Str("task", name).Logger(),
		started: make(chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the task. Calls after the first are no-ops.
func (t *Task) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		close(t.started)
		go t.run(ctx)
	})
}

func (t *Task) run(ctx context.Context) {
	defer close(t.done)

	next := t.first
	for next != nil {
		timer := time.NewTimer(time.Until(next.Next(time.Now())))

		select {
		case <-ctx.Done():
			timer.Stop()
			t.logger.Debug().Msg("poll cancelled")
			return
		case <-t.stop:
			timer.Stop()
			t.logger.Debug().Msg("poll stopped")
			return
		case <-timer.C:
			next = t.fn(ctx)
		}
	}
	t.logger.Debug().Msg("poll finished")
}

// Stop ends the task and waits for an in-progress run to return. It is safe
// to call more than once and before Start.
func (t *Task) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	select {
	case <-t.started:
		<-t.done
	default:
	}
}

// Done is closed once a started task has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
