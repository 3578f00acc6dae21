// Package scheduler drives the refresh loop: one cycle shortly after
// startup, then one per interval until the context is cancelled.
package scheduler

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DefaultGrace is the startup delay before the first cycle, giving the
// process time to finish wiring before it hits the network.
const DefaultGrace = 5 * time.Second

type Scheduler struct {
	grace    time.Duration
	interval time.Duration
	logger   log.Logger
	cycle    func(context.Context)
}

func New(grace, interval time.Duration, logger log.Logger, cycle func(context.Context)) *Scheduler {
	return &Scheduler{grace: grace, interval: interval, logger: logger, cycle: cycle}
}

// Run blocks until ctx is cancelled. The cancellation propagates into
// the in-flight cycle, so downloads abort promptly; cycle outcomes never
// stop the loop.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.grace)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		level.Info(s.logger).Log("msg", "scheduler stopping before first cycle")
		return
	case <-timer.C:
	}

	for {
		s.cycle(ctx)

		timer.Reset(s.interval)
		select {
		case <-ctx.Done():
			level.Info(s.logger).Log("msg", "scheduler stopping")
			return
		case <-timer.C:
		}
	}
}
