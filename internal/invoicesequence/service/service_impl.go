package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/apperror"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	"github.com/smallbiznis/villadesk/internal/observability/metrics"
	"github.com/smallbiznis/villadesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Config  *config.InvoicingConfigHolder
	Metrics *metrics.LedgerMetrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	cfg     *config.InvoicingConfigHolder
	metrics *metrics.LedgerMetrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("invoicesequence.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		cfg:     p.Config,
		metrics: p.Metrics,
	}
}

// AllocateNext returns the first unclaimed number at or after the cursor and
// moves the cursor past it. The cursor only moves by compare-and-swap, so two
// allocators that read the same cursor cannot both win.
func (s *Service) AllocateNext(ctx context.Context, tx *gorm.DB) (string, error) {
	conn := s.conn(tx)
	policy := s.cfg.Get().Sequence

	if err := s.repo.EnsureSequence(ctx, conn, policy.DefaultStart, s.clock.Now()); err != nil {
		return "", fmt.Errorf("ensure invoice sequence: %w", err)
	}

	for attempt := 0; attempt <= policy.CASRetries; attempt++ {
		seq, err := s.repo.GetSequence(ctx, conn)
		if err != nil {
			return "", err
		}
		if seq == nil {
			return "", domain.ErrSequenceMissing
		}

		number, skipped, err := s.probe(ctx, conn, seq.CurrentNumber, policy.MaxProbe)
		if err != nil {
			s.metrics.ObserveAllocationError(err)
			if errors.Is(err, apperror.ErrSequenceExhausted) {
				s.log.Error("invoice sequence exhausted",
					zap.Int64("cursor", seq.CurrentNumber),
					zap.Int("max_probe", policy.MaxProbe),
				)
			}
			return "", err
		}

		swapped, err := s.repo.CompareAndSwap(ctx, conn, seq.CurrentNumber, number+1, s.clock.Now())
		if err != nil {
			return "", err
		}
		if swapped {
			s.metrics.IncAllocation(metrics.AllocationOutcomeAllocated)
			s.metrics.AddProbeSkips(skipped)
			return strconv.FormatInt(number, 10), nil
		}

		s.metrics.IncCASRetry()
		s.log.Debug("invoice cursor moved concurrently, retrying",
			zap.Int64("expected", seq.CurrentNumber),
			zap.Int("attempt", attempt+1),
		)
	}

	s.metrics.ObserveAllocationError(domain.ErrContended)
	return "", domain.ErrContended
}

// probe checks the window [start, start+maxProbe) with one query and
// returns the first free candidate and how many claimed ones preceded it.
func (s *Service) probe(ctx context.Context, conn *gorm.DB, start int64, maxProbe int) (int64, int, error) {
	candidates := make([]string, maxProbe)
	for i := range candidates {
		candidates[i] = strconv.FormatInt(start+int64(i), 10)
	}

	claimed, err := s.repo.ClaimedAmong(ctx, conn, candidates)
	if err != nil {
		return 0, 0, err
	}
	taken := make(map[string]struct{}, len(claimed))
	for _, number := range claimed {
		taken[number] = struct{}{}
	}

	for i, candidate := range candidates {
		if _, ok := taken[candidate]; !ok {
			return start + int64(i), i, nil
		}
	}
	return 0, 0, apperror.Exhausted(start, maxProbe)
}

func (s *Service) ValidateAvailable(ctx context.Context, tx *gorm.DB, number string) (bool, error) {
	number = strings.TrimSpace(number)
	if !domain.ValidNumber(number) {
		return false, domain.ErrInvalidNumber
	}
	claim, err := s.repo.FindClaim(ctx, s.conn(tx), number)
	if err != nil {
		return false, err
	}
	return claim == nil, nil
}

func (s *Service) Resolve(ctx context.Context, tx *gorm.DB, act actor.Actor, manual string) (string, error) {
	manual = strings.TrimSpace(manual)
	if manual == "" {
		return s.AllocateNext(ctx, tx)
	}
	if !act.IsAdmin() {
		return "", domain.ErrManualForbidden
	}

	available, err := s.ValidateAvailable(ctx, tx, manual)
	if err != nil {
		return "", err
	}
	if !available {
		return "", domain.ErrNumberTaken
	}
	return manual, nil
}

func (s *Service) Claim(ctx context.Context, tx *gorm.DB, number string, sourceType domain.SourceType, sourceID snowflake.ID) error {
	number = strings.TrimSpace(number)
	if !domain.ValidNumber(number) {
		return domain.ErrInvalidNumber
	}
	err := s.repo.InsertClaim(ctx, s.conn(tx), &domain.Claim{
		Number:     number,
		SourceType: sourceType,
		SourceID:   sourceID,
		CreatedAt:  s.clock.Now(),
	})
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrNumberTaken
	}
	return err
}

func (s *Service) Release(ctx context.Context, tx *gorm.DB, number string, sourceType domain.SourceType, sourceID snowflake.ID) error {
	_, err := s.repo.DeleteClaim(ctx, s.conn(tx), strings.TrimSpace(number), sourceType, sourceID)
	return err
}

func (s *Service) ReleaseAll(ctx context.Context, tx *gorm.DB, sourceType domain.SourceType, sourceIDs []snowflake.ID) error {
	_, err := s.repo.DeleteClaimsBySource(ctx, s.conn(tx), sourceType, sourceIDs)
	return err
}

func (s *Service) Current(ctx context.Context) (domain.State, error) {
	if err := s.repo.EnsureSequence(ctx, s.db, s.cfg.Get().Sequence.DefaultStart, s.clock.Now()); err != nil {
		return domain.State{}, err
	}
	return s.state(ctx, s.db)
}

// SetStart moves the cursor unconditionally. Existing claims are still
// skipped by AllocateNext, so moving it backwards cannot create duplicates.
func (s *Service) SetStart(ctx context.Context, start int64) (domain.State, error) {
	if start < 1 {
		return domain.State{}, domain.ErrInvalidStart
	}

	var state domain.State
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		if err := s.repo.EnsureSequence(ctx, tx, start, now); err != nil {
			return err
		}
		if err := s.repo.SetCurrent(ctx, tx, start, now); err != nil {
			return err
		}
		var err error
		state, err = s.state(ctx, tx)
		return err
	})
	if err != nil {
		return domain.State{}, err
	}

	if state.ReservationsCount > 0 {
		s.log.Warn("invoice sequence moved while reservations exist",
			zap.Int64("start", start),
			zap.Int64("reservations", state.ReservationsCount),
		)
	}
	return state, nil
}

func (s *Service) Reset(ctx context.Context, confirm bool) (domain.State, error) {
	if !confirm {
		return domain.State{}, domain.ErrConfirmRequired
	}

	var state domain.State
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.repo.CountClaims(ctx, tx, domain.SourceReservation)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrResetWithHistory
		}

		start := s.cfg.Get().Sequence.DefaultStart
		now := s.clock.Now()
		if err := s.repo.EnsureSequence(ctx, tx, start, now); err != nil {
			return err
		}
		if err := s.repo.SetCurrent(ctx, tx, start, now); err != nil {
			return err
		}
		state, err = s.state(ctx, tx)
		return err
	})
	if err != nil {
		return domain.State{}, err
	}

	s.log.Info("invoice sequence reset", zap.Int64("current_number", state.CurrentNumber))
	return state, nil
}

func (s *Service) state(ctx context.Context, conn *gorm.DB) (domain.State, error) {
	seq, err := s.repo.GetSequence(ctx, conn)
	if err != nil {
		return domain.State{}, err
	}
	if seq == nil {
		return domain.State{}, domain.ErrSequenceMissing
	}
	count, err := s.repo.CountClaims(ctx, conn, domain.SourceReservation)
	if err != nil {
		return domain.State{}, err
	}
	return domain.State{
		CurrentNumber:     seq.CurrentNumber,
		ReservationsCount: count,
		UpdatedAt:         seq.UpdatedAt,
	}, nil
}

func (s *Service) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}
