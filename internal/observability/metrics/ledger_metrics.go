package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/villadesk/internal/apperror"
	"gorm.io/gorm"
)

const (
	AllocationOutcomeAllocated = "allocated"
	AllocationOutcomeExhausted = "exhausted"
	AllocationOutcomeConflict  = "conflict"
	AllocationOutcomeError     = "error"
)

const (
	ErrorReasonDeadlineExceeded     = "deadline_exceeded"
	ErrorReasonDBLockTimeout        = "db_lock_timeout"
	ErrorReasonSerializationFailure = "serialization_failure"
	ErrorReasonUniqueViolation      = "unique_violation"
	ErrorReasonConflict             = "conflict"
	ErrorReasonForbidden            = "forbidden"
	ErrorReasonNotFound             = "not_found"
	ErrorReasonInvalidInput         = "invalid_input"
	ErrorReasonExhausted            = "sequence_exhausted"
	ErrorReasonUnknown              = "unknown"
)

// LedgerMetrics tracks invoice number allocation and payout reconciliation health.
type LedgerMetrics struct {
	allocations     *prometheus.CounterVec
	probeSkips      prometheus.Counter
	casRetries      prometheus.Counter
	reconcileRuns   *prometheus.CounterVec
	reconcileFixed  *prometheus.CounterVec
	reconcileTiming prometheus.Observer
}

func NewLedgerMetrics(cfg Config) *LedgerMetrics {
	return newLedgerMetrics(prometheus.DefaultRegisterer, cfg)
}

func newLedgerMetrics(registerer prometheus.Registerer, cfg Config) *LedgerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := serviceLabels(cfg)

	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "villadesk_invoice_allocations_total",
		Help:        "Invoice number allocations by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	probeSkips := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "villadesk_invoice_probe_skips_total",
		Help:        "Candidate invoice numbers skipped because they were already claimed.",
		ConstLabels: constLabels,
	})
	casRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "villadesk_invoice_cas_retries_total",
		Help:        "Counter updates retried after a concurrent allocation won.",
		ConstLabels: constLabels,
	})
	reconcileRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "villadesk_payout_reconcile_runs_total",
		Help:        "Payout reconciliation runs by result reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	reconcileFixed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "villadesk_payout_reconcile_repairs_total",
		Help:        "Repairs applied by payout reconciliation.",
		ConstLabels: constLabels,
	}, []string{"kind"})
	reconcileDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "villadesk_payout_reconcile_duration_seconds",
		Help:        "Payout reconciliation latency.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		ConstLabels: constLabels,
	})

	registerOrReuse(registerer, &allocations)
	registerOrReuse(registerer, &probeSkips)
	registerOrReuse(registerer, &casRetries)
	registerOrReuse(registerer, &reconcileRuns)
	registerOrReuse(registerer, &reconcileFixed)
	registerOrReuse(registerer, &reconcileDuration)

	return &LedgerMetrics{
		allocations:     allocations,
		probeSkips:      probeSkips,
		casRetries:      casRetries,
		reconcileRuns:   reconcileRuns,
		reconcileFixed:  reconcileFixed,
		reconcileTiming: reconcileDuration,
	}
}

func (m *LedgerMetrics) IncAllocation(outcome string) {
	if m == nil {
		return
	}
	m.allocations.WithLabelValues(outcome).Inc()
}

// ObserveAllocationError classifies err into an allocation outcome.
func (m *LedgerMetrics) ObserveAllocationError(err error) {
	if m == nil || err == nil {
		return
	}
	switch ClassifyErrorReason(err) {
	case ErrorReasonExhausted:
		m.IncAllocation(AllocationOutcomeExhausted)
	case ErrorReasonConflict, ErrorReasonUniqueViolation, ErrorReasonSerializationFailure:
		m.IncAllocation(AllocationOutcomeConflict)
	default:
		m.IncAllocation(AllocationOutcomeError)
	}
}

func (m *LedgerMetrics) AddProbeSkips(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.probeSkips.Add(float64(n))
}

func (m *LedgerMetrics) IncCASRetry() {
	if m == nil {
		return
	}
	m.casRetries.Inc()
}

// ObserveReconcile records one reconciliation run; err nil counts as "ok".
func (m *LedgerMetrics) ObserveReconcile(duration time.Duration, err error) {
	if m == nil {
		return
	}
	reason := "ok"
	if err != nil {
		reason = ClassifyErrorReason(err)
	}
	m.reconcileRuns.WithLabelValues(reason).Inc()
	m.reconcileTiming.Observe(max(duration, 0).Seconds())
}

func (m *LedgerMetrics) AddReconcileRepairs(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconcileFixed.WithLabelValues(kind).Add(float64(n))
}

// ClassifyErrorReason maps errors to low-cardinality reasons for logs and metrics.
func ClassifyErrorReason(err error) string {
	switch {
	case err == nil:
		return ErrorReasonUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorReasonDeadlineExceeded
	case errors.Is(err, apperror.ErrSequenceExhausted):
		return ErrorReasonExhausted
	case errors.Is(err, apperror.ErrConflict):
		return ErrorReasonConflict
	case errors.Is(err, apperror.ErrForbidden):
		return ErrorReasonForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return ErrorReasonNotFound
	case errors.Is(err, apperror.ErrInvalidInput):
		return ErrorReasonInvalidInput
	case hasPGCode(err, "55P03"):
		return ErrorReasonDBLockTimeout
	case hasPGCode(err, "40001"):
		return ErrorReasonSerializationFailure
	case errors.Is(err, gorm.ErrDuplicatedKey), hasPGCode(err, "23505"):
		return ErrorReasonUniqueViolation
	default:
		return ErrorReasonUnknown
	}
}

// IsRetryable reports whether a transaction failure is worth retrying.
func IsRetryable(err error) bool {
	switch ClassifyErrorReason(err) {
	case ErrorReasonDBLockTimeout, ErrorReasonSerializationFailure:
		return true
	default:
		return false
	}
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
