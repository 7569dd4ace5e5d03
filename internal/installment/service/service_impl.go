package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/actor"
	auditdomain "github.com/smallbiznis/villadesk/internal/audit/domain"
	"github.com/smallbiznis/villadesk/internal/balance"
	"github.com/smallbiznis/villadesk/internal/clock"
	expensedomain "github.com/smallbiznis/villadesk/internal/expense/domain"
	"github.com/smallbiznis/villadesk/internal/installment/domain"
	sequencedomain "github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	"github.com/smallbiznis/villadesk/internal/observability/metrics"
	reservationdomain "github.com/smallbiznis/villadesk/internal/reservation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	Sequence     sequencedomain.Service
	Reservations reservationdomain.Repository
	Expenses     expensedomain.Repository

	AuditSvc auditdomain.Service `optional:"true"`
	Metrics  *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	sequence     sequencedomain.Service
	reservations reservationdomain.Repository
	expenses     expensedomain.Repository
	auditSvc     auditdomain.Service
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("installment.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		sequence:     p.Sequence,
		reservations: p.Reservations,
		expenses:     p.Expenses,
		auditSvc:     p.AuditSvc,
		metrics:      p.Metrics,
	}
}

func (s *Service) AddToReservation(ctx context.Context, reservationID string, req domain.AddRequest) (domain.ReservationInstallment, reservationdomain.Reservation, error) {
	act, _ := actor.FromContext(ctx)
	parentID, err := parseID(reservationID, reservationdomain.ErrInvalidID)
	if err != nil {
		return domain.ReservationInstallment{}, reservationdomain.Reservation{}, err
	}
	if !req.Amount.IsPositive() {
		return domain.ReservationInstallment{}, reservationdomain.Reservation{}, domain.ErrInvalidAmount
	}

	var (
		inst   domain.ReservationInstallment
		parent reservationdomain.Reservation
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := s.lockReservation(ctx, tx, parentID)
		if err != nil {
			return err
		}
		payment, err := s.payment(req, reservation.Currency, act)
		if err != nil {
			return err
		}

		number, err := s.sequence.Resolve(ctx, tx, act, req.InvoiceNumber.String())
		if err != nil {
			return err
		}
		payment.InvoiceNumber = number
		inst = domain.ReservationInstallment{
			ID:            s.genID.Generate(),
			ReservationID: reservation.ID,
			Payment:       payment,
		}
		if err := s.repo.InsertReservationInstallment(ctx, tx, &inst); err != nil {
			return err
		}
		if err := s.sequence.Claim(ctx, tx, number, sequencedomain.SourceReservationInstallment, inst.ID); err != nil {
			return err
		}

		parent, err = s.recomputeReservation(ctx, tx, reservation)
		return err
	})
	if err != nil {
		return domain.ReservationInstallment{}, reservationdomain.Reservation{}, err
	}

	s.metrics.RecordInstallment(ctx, "reservation", inst.PaymentMethod)
	s.audit(ctx, "reservation_installment.create", "reservation", parent.ID, map[string]any{
		"installment_id": inst.ID.String(),
		"invoice_number": inst.InvoiceNumber,
		"amount":         inst.Amount.String(),
	})
	s.log.Info("reservation installment added",
		zap.String("reservation_id", parent.ID.String()),
		zap.String("invoice_number", inst.InvoiceNumber),
		zap.String("balance_due", parent.BalanceDue.String()),
	)
	return inst, parent, nil
}

func (s *Service) ListForReservation(ctx context.Context, reservationID string) ([]domain.ReservationInstallment, error) {
	parentID, err := parseID(reservationID, reservationdomain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadReservation(ctx, s.db, parentID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListReservationInstallments(ctx, s.db, parentID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ReservationInstallment, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) GetForReservation(ctx context.Context, reservationID, installmentID string) (domain.ReservationInstallment, error) {
	parentID, err := parseID(reservationID, reservationdomain.ErrInvalidID)
	if err != nil {
		return domain.ReservationInstallment{}, err
	}
	id, err := parseID(installmentID, domain.ErrInvalidID)
	if err != nil {
		return domain.ReservationInstallment{}, err
	}
	inst, err := s.repo.FindReservationInstallment(ctx, s.db, parentID, id)
	if err != nil {
		return domain.ReservationInstallment{}, err
	}
	if inst == nil {
		return domain.ReservationInstallment{}, domain.ErrNotFound
	}
	return *inst, nil
}

func (s *Service) RemoveFromReservation(ctx context.Context, reservationID, installmentID string) (reservationdomain.Reservation, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return reservationdomain.Reservation{}, err
	}
	parentID, err := parseID(reservationID, reservationdomain.ErrInvalidID)
	if err != nil {
		return reservationdomain.Reservation{}, err
	}
	id, err := parseID(installmentID, domain.ErrInvalidID)
	if err != nil {
		return reservationdomain.Reservation{}, err
	}

	var (
		removed domain.ReservationInstallment
		parent  reservationdomain.Reservation
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := s.lockReservation(ctx, tx, parentID)
		if err != nil {
			return err
		}
		inst, err := s.repo.FindReservationInstallment(ctx, tx, parentID, id)
		if err != nil {
			return err
		}
		if inst == nil {
			return domain.ErrNotFound
		}
		removed = *inst

		if _, err := s.repo.DeleteReservationInstallment(ctx, tx, parentID, id); err != nil {
			return err
		}
		if err := s.sequence.Release(ctx, tx, inst.InvoiceNumber, sequencedomain.SourceReservationInstallment, inst.ID); err != nil {
			return err
		}
		parent, err = s.recomputeReservation(ctx, tx, reservation)
		return err
	})
	if err != nil {
		return reservationdomain.Reservation{}, err
	}

	s.audit(ctx, "reservation_installment.delete", "reservation", parent.ID, map[string]any{
		"installment_id": removed.ID.String(),
		"invoice_number": removed.InvoiceNumber,
		"amount":         removed.Amount.String(),
	})
	return parent, nil
}

// recomputeReservation re-sums the live installment set on top of the
// amount paid when the reservation was taken.
func (s *Service) recomputeReservation(ctx context.Context, tx *gorm.DB, reservation reservationdomain.Reservation) (reservationdomain.Reservation, error) {
	installments, err := s.reservations.SumInstallments(ctx, tx, reservation.ID)
	if err != nil {
		return reservationdomain.Reservation{}, err
	}
	now := s.clock.Now()
	reservation.AmountPaid = reservation.InitialAmountPaid.Add(installments)
	reservation.BalanceDue = balance.ReservationBalance(reservation.TotalAmount, reservation.AmountPaid, reservation.Deposit)
	reservation.UpdatedAt = now
	if err := s.reservations.SetAmountPaid(ctx, tx, reservation.ID, reservation.AmountPaid, reservation.BalanceDue, now); err != nil {
		return reservationdomain.Reservation{}, err
	}
	return reservation, nil
}

func (s *Service) AddToExpense(ctx context.Context, expenseID string, req domain.AddRequest) (domain.ExpenseInstallment, expensedomain.Expense, error) {
	act, _ := actor.FromContext(ctx)
	parentID, err := parseID(expenseID, expensedomain.ErrInvalidID)
	if err != nil {
		return domain.ExpenseInstallment{}, expensedomain.Expense{}, err
	}
	if !req.Amount.IsPositive() {
		return domain.ExpenseInstallment{}, expensedomain.Expense{}, domain.ErrInvalidAmount
	}

	var (
		inst   domain.ExpenseInstallment
		parent expensedomain.Expense
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expense, err := s.lockExpense(ctx, tx, parentID)
		if err != nil {
			return err
		}
		payment, err := s.payment(req, expense.Currency, act)
		if err != nil {
			return err
		}

		number, err := s.sequence.Resolve(ctx, tx, act, req.InvoiceNumber.String())
		if err != nil {
			return err
		}
		payment.InvoiceNumber = number
		inst = domain.ExpenseInstallment{
			ID:        s.genID.Generate(),
			ExpenseID: expense.ID,
			Payment:   payment,
		}
		if err := s.repo.InsertExpenseInstallment(ctx, tx, &inst); err != nil {
			return err
		}
		if err := s.sequence.Claim(ctx, tx, number, sequencedomain.SourceExpenseInstallment, inst.ID); err != nil {
			return err
		}

		parent, err = s.recomputeExpense(ctx, tx, expense)
		return err
	})
	if err != nil {
		return domain.ExpenseInstallment{}, expensedomain.Expense{}, err
	}

	s.metrics.RecordInstallment(ctx, "expense", inst.PaymentMethod)
	s.audit(ctx, "expense_installment.create", "expense", parent.ID, map[string]any{
		"installment_id": inst.ID.String(),
		"invoice_number": inst.InvoiceNumber,
		"amount":         inst.Amount.String(),
	})
	s.log.Info("expense installment added",
		zap.String("expense_id", parent.ID.String()),
		zap.String("invoice_number", inst.InvoiceNumber),
		zap.String("payment_status", parent.PaymentStatus),
	)
	return inst, parent, nil
}

func (s *Service) ListForExpense(ctx context.Context, expenseID string) ([]domain.ExpenseInstallment, error) {
	parentID, err := parseID(expenseID, expensedomain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadExpense(ctx, s.db, parentID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListExpenseInstallments(ctx, s.db, parentID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ExpenseInstallment, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) GetForExpense(ctx context.Context, expenseID, installmentID string) (domain.ExpenseInstallment, error) {
	parentID, err := parseID(expenseID, expensedomain.ErrInvalidID)
	if err != nil {
		return domain.ExpenseInstallment{}, err
	}
	id, err := parseID(installmentID, domain.ErrInvalidID)
	if err != nil {
		return domain.ExpenseInstallment{}, err
	}
	inst, err := s.repo.FindExpenseInstallment(ctx, s.db, parentID, id)
	if err != nil {
		return domain.ExpenseInstallment{}, err
	}
	if inst == nil {
		return domain.ExpenseInstallment{}, domain.ErrNotFound
	}
	return *inst, nil
}

func (s *Service) RemoveFromExpense(ctx context.Context, expenseID, installmentID string) (expensedomain.Expense, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return expensedomain.Expense{}, err
	}
	parentID, err := parseID(expenseID, expensedomain.ErrInvalidID)
	if err != nil {
		return expensedomain.Expense{}, err
	}
	id, err := parseID(installmentID, domain.ErrInvalidID)
	if err != nil {
		return expensedomain.Expense{}, err
	}

	var (
		removed domain.ExpenseInstallment
		parent  expensedomain.Expense
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expense, err := s.lockExpense(ctx, tx, parentID)
		if err != nil {
			return err
		}
		inst, err := s.repo.FindExpenseInstallment(ctx, tx, parentID, id)
		if err != nil {
			return err
		}
		if inst == nil {
			return domain.ErrNotFound
		}
		removed = *inst

		if _, err := s.repo.DeleteExpenseInstallment(ctx, tx, parentID, id); err != nil {
			return err
		}
		if err := s.sequence.Release(ctx, tx, inst.InvoiceNumber, sequencedomain.SourceExpenseInstallment, inst.ID); err != nil {
			return err
		}
		parent, err = s.recomputeExpense(ctx, tx, expense)
		return err
	})
	if err != nil {
		return expensedomain.Expense{}, err
	}

	s.audit(ctx, "expense_installment.delete", "expense", parent.ID, map[string]any{
		"installment_id": removed.ID.String(),
		"invoice_number": removed.InvoiceNumber,
		"amount":         removed.Amount.String(),
	})
	return parent, nil
}

func (s *Service) recomputeExpense(ctx context.Context, tx *gorm.DB, expense expensedomain.Expense) (expensedomain.Expense, error) {
	totals, err := s.expenses.SumInstallments(ctx, tx, []snowflake.ID{expense.ID})
	if err != nil {
		return expensedomain.Expense{}, err
	}
	totalPaid := totals[expense.ID]
	now := s.clock.Now()

	expense.TotalPaid = totalPaid
	expense.BalanceDue = balance.ExpenseBalance(expense.Amount, []decimal.Decimal{totalPaid})
	expense.PaymentStatus = balance.ExpensePaymentStatus(expense.Amount, totalPaid)
	expense.UpdatedAt = now
	if err := s.expenses.SetPaymentStatus(ctx, tx, expense.ID, expense.PaymentStatus, now); err != nil {
		return expensedomain.Expense{}, err
	}
	return expense, nil
}

func (s *Service) payment(req domain.AddRequest, parentCurrency string, act actor.Actor) (domain.Payment, error) {
	currencyRaw := req.Currency
	if strings.TrimSpace(currencyRaw) == "" {
		currencyRaw = parentCurrency
	}
	currency, ok := balance.ParseCurrency(currencyRaw)
	if !ok {
		return domain.Payment{}, domain.ErrInvalidCurrency
	}
	method, ok := balance.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return domain.Payment{}, domain.ErrInvalidMethod
	}

	now := s.clock.Now()
	paidAt := now
	if req.PaymentDate != nil && !req.PaymentDate.IsZero() {
		paidAt = req.PaymentDate.UTC()
	}
	return domain.Payment{
		Amount:        req.Amount.Round(2),
		Currency:      string(currency),
		PaymentMethod: string(method),
		PaymentDate:   paidAt,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedBy:     act.ID(),
		CreatedAt:     now,
	}, nil
}

func (s *Service) loadReservation(ctx context.Context, conn *gorm.DB, id snowflake.ID) (reservationdomain.Reservation, error) {
	reservation, err := s.reservations.FindByID(ctx, conn, id)
	if err != nil {
		return reservationdomain.Reservation{}, err
	}
	if reservation == nil {
		return reservationdomain.Reservation{}, reservationdomain.ErrNotFound
	}
	return *reservation, nil
}

// lockReservation holds the reservation row until tx ends so concurrent
// payments serialize on it before re-summing.
func (s *Service) lockReservation(ctx context.Context, tx *gorm.DB, id snowflake.ID) (reservationdomain.Reservation, error) {
	reservation, err := s.reservations.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return reservationdomain.Reservation{}, err
	}
	if reservation == nil {
		return reservationdomain.Reservation{}, reservationdomain.ErrNotFound
	}
	return *reservation, nil
}

func (s *Service) loadExpense(ctx context.Context, conn *gorm.DB, id snowflake.ID) (expensedomain.Expense, error) {
	expense, err := s.expenses.FindByID(ctx, conn, id)
	if err != nil {
		return expensedomain.Expense{}, err
	}
	if expense == nil {
		return expensedomain.Expense{}, expensedomain.ErrNotFound
	}
	return *expense, nil
}

func (s *Service) lockExpense(ctx context.Context, tx *gorm.DB, id snowflake.ID) (expensedomain.Expense, error) {
	expense, err := s.expenses.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return expensedomain.Expense{}, err
	}
	if expense == nil {
		return expensedomain.Expense{}, expensedomain.ErrNotFound
	}
	return *expense, nil
}

func (s *Service) audit(ctx context.Context, action, targetType string, targetID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	id := targetID.String()
	if err := s.auditSvc.AuditLog(ctx, action, targetType, &id, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
