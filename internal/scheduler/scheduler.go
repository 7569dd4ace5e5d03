// Package scheduler runs periodic maintenance jobs inside the API process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/clock"
	obscontext "github.com/smallbiznis/villadesk/internal/observability/context"
	obslogger "github.com/smallbiznis/villadesk/internal/observability/logger"
	reservationdomain "github.com/smallbiznis/villadesk/internal/reservation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid scheduler config")

const jobReconcilePayouts = "reconcile_payouts"

type Params struct {
	fx.In

	Log            *zap.Logger
	GenID          *snowflake.Node
	Clock          clock.Clock
	ReservationSvc reservationdomain.Service
	Config         Config `optional:"true"`
}

type Scheduler struct {
	log            *zap.Logger
	cfg            Config
	genID          *snowflake.Node
	clock          clock.Clock
	reservationSvc reservationdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.ReservationSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:            p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:            p.Config.withDefaults(),
		genID:          p.GenID,
		clock:          p.Clock,
		reservationSvc: p.ReservationSvc,
	}, nil
}

// runJob runs fn as the system actor under the job timeout. A timeout is
// logged and swallowed so the next tick retries.
func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	runID := s.genID.Generate().String()
	ctx = obscontext.WithRequestID(ctx, runID)
	ctx = actor.WithActor(ctx, actor.System())
	log := obslogger.WithContext(ctx, s.log).With(zap.String("job", name))

	log.Debug("job started")
	err := fn(ctx)
	duration := s.clock.Now().Sub(start)
	if err == nil {
		log.Info("job finished", zap.Duration("duration", duration))
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out",
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}

	log.Error("job failed", zap.Duration("duration", duration), zap.Error(err))
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce runs every job a single time.
func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, jobReconcilePayouts, s.reconcilePayouts)
}

func (s *Scheduler) reconcilePayouts(ctx context.Context) error {
	result, err := s.reservationSvc.ReconcilePayouts(ctx)
	if err != nil {
		return err
	}
	if result.PayoutsCreated > 0 || result.OwnersAccrued > 0 {
		obslogger.WithContext(ctx, s.log).Info("payouts reconciled",
			zap.Int("scanned", result.Scanned),
			zap.Int("payouts_created", result.PayoutsCreated),
			zap.Int("owners_accrued", result.OwnersAccrued),
			zap.Strings("repaired_invoices", result.RepairedInvoices),
		)
	}
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ReconcileInterval)
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
