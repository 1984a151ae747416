package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper runs Service.Sweep on a cron schedule.
type Sweeper struct {
	service *Service
	cron    *cron.Cron
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewSweeper(service *Service, schedule string, timeout time.Duration, log logrus.FieldLogger) (*Sweeper, error) {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	s := &Sweeper{
		service: service,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
		log:     service.log.WithField("component", "payment_sweeper"),
	}
	if log != nil {
		s.log = log.WithField("component", "payment_sweeper")
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("payment sweeper schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.service.Sweep(ctx)
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.log.Info("payment_sweeper_started")
}

// Stop halts scheduling and waits for a running sweep, bounded by ctx.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("payment_sweeper_stop_timeout")
	}
}
