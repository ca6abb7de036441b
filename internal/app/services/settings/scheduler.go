package settings

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/paintcoffee/pos-backend/internal/app/system"
	"github.com/paintcoffee/pos-backend/pkg/logger"
)

var _ system.Service = (*Scheduler)(nil)

// Scheduler sweeps for a due pending exchange rate once a minute. The
// promotion itself is an atomic store transition, so overlapping sweeps or a
// concurrent admin edit cannot apply a rate twice.
type Scheduler struct {
	service  *Service
	log      *logger.Logger
	interval time.Duration
	cron     *cron.Cron
	entry    cron.EntryID
}

// NewScheduler creates a lifecycle-managed rate sweep.
func NewScheduler(service *Service, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewDefault("rate-scheduler")
	}
	return &Scheduler{
		service:  service,
		log:      log,
		interval: time.Minute,
	}
}

// WithInterval overrides the sweep interval. Call before Start.
func (s *Scheduler) WithInterval(interval time.Duration) *Scheduler {
	if interval > 0 {
		s.interval = interval
	}
	return s
}

func (s *Scheduler) Name() string { return "rate-scheduler" }

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cron != nil {
		return nil
	}

	c := cron.New()
	entry, err := c.AddFunc("@every "+s.interval.String(), func() { s.sweep(ctx) })
	if err != nil {
		return err
	}
	s.cron = c
	s.entry = entry
	c.Start()

	s.log.Infof("rate scheduler started, sweeping every %s", s.interval)
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}

	done := s.cron.Stop().Done()
	s.cron = nil

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.log.Info("rate scheduler stopped")
	return nil
}

func (s *Scheduler) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, _, err := s.service.PromoteDueRate(ctx); err != nil {
		s.log.WithError(err).Warn("rate sweep failed")
	}
}
