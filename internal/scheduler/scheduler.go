// Package scheduler runs periodic maintenance jobs, currently the overdue
// invoice sweep.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/elimisoft/shulefees/internal/clock"
	ledgerdomain "github.com/elimisoft/shulefees/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid scheduler config")

type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.RunInterval <= 0 {
		c.RunInterval = time.Hour
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 30 * time.Second
	}
	return c
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	LedgerSvc ledgerdomain.Service
	Config    Config `optional:"true"`
}

type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	clock     clock.Clock
	ledgerSvc ledgerdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.LedgerSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler"),
		cfg:       p.Config.withDefaults(),
		clock:     p.Clock,
		ledgerSvc: p.LedgerSvc,
	}, nil
}

// RunOnce executes every job a single time. RunForever and tests call it.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	return s.OverdueSweepJob(ctx)
}

func (s *Scheduler) OverdueSweepJob(ctx context.Context) error {
	start := s.clock.Now()
	marked, err := s.ledgerSvc.MarkOverdue(ctx, start)
	if err != nil {
		s.log.Warn("overdue sweep failed", zap.Error(err))
		return err
	}
	if marked > 0 {
		s.log.Info("overdue sweep finished",
			zap.Int("marked", marked),
			zap.Duration("took", time.Since(start)),
		)
	}
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
