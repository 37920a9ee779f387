// Package scheduler runs the optional background expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const sweepTimeout = 2 * time.Minute

// Sweeper expires past appointments and reports how many it removed.
type Sweeper interface {
	Execute(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron   *cron.Cron
	sweep  Sweeper
	logger logrus.FieldLogger
}

// New schedules sweep on spec, a standard five-field cron expression
// evaluated in loc. Overlapping runs are skipped.
func New(spec string, loc *time.Location, sweep Sweeper, logger logrus.FieldLogger) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{cron: c, sweep: sweep, logger: logger}
	if _, err := c.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("schedule expiry sweep %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.sweep.Execute(ctx)
	if err != nil {
		s.logger.WithError(err).Error("expiry sweep failed")
		return
	}
	s.logger.WithField("expired", n).Info("expiry sweep finished")
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
