package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/actor"
	auditdomain "github.com/smallbiznis/villadesk/internal/audit/domain"
	"github.com/smallbiznis/villadesk/internal/balance"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	customerdomain "github.com/smallbiznis/villadesk/internal/customer/domain"
	expensedomain "github.com/smallbiznis/villadesk/internal/expense/domain"
	sequencedomain "github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	"github.com/smallbiznis/villadesk/internal/observability/metrics"
	ownerdomain "github.com/smallbiznis/villadesk/internal/owner/domain"
	"github.com/smallbiznis/villadesk/internal/ratelimit"
	"github.com/smallbiznis/villadesk/internal/reservation/domain"
	villadomain "github.com/smallbiznis/villadesk/internal/villa/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	reconcileLockKey = "villadesk:reconcile-payouts"
	reconcileLockTTL = 5 * time.Minute
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Config    *config.InvoicingConfigHolder
	Repo      domain.Repository
	Sequence  sequencedomain.Service
	Villas    villadomain.Service
	Customers customerdomain.Service
	Expenses  expensedomain.Service
	Owners    ownerdomain.Service

	Lock          ratelimit.Lock         `optional:"true"`
	AuditSvc      auditdomain.Service    `optional:"true"`
	Metrics       *metrics.Metrics       `optional:"true"`
	LedgerMetrics *metrics.LedgerMetrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	cfg       *config.InvoicingConfigHolder
	repo      domain.Repository
	sequence  sequencedomain.Service
	villas    villadomain.Service
	customers customerdomain.Service
	expenses  expensedomain.Service
	owners    ownerdomain.Service

	lock          ratelimit.Lock
	auditSvc      auditdomain.Service
	metrics       *metrics.Metrics
	ledgerMetrics *metrics.LedgerMetrics
}

func New(p Params) domain.Service {
	lock := p.Lock
	if lock == nil {
		lock = ratelimit.NewLocalLocker()
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("reservation.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		cfg:           p.Config,
		repo:          p.Repo,
		sequence:      p.Sequence,
		villas:        p.Villas,
		customers:     p.Customers,
		expenses:      p.Expenses,
		owners:        p.Owners,
		lock:          lock,
		auditSvc:      p.AuditSvc,
		metrics:       p.Metrics,
		ledgerMetrics: p.LedgerMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.Reservation, error) {
	act, _ := actor.FromContext(ctx)

	if strings.TrimSpace(req.CustomerID) == "" {
		return domain.Reservation{}, domain.ErrInvalidCustomer
	}
	customer, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return domain.Reservation{}, err
	}

	var villa *villadomain.Villa
	if strings.TrimSpace(req.VillaID) != "" {
		villaID, err := snowflake.ParseString(strings.TrimSpace(req.VillaID))
		if err != nil || villaID == 0 {
			return domain.Reservation{}, domain.ErrInvalidVilla
		}
		villa, err = s.villas.FindByID(ctx, villaID)
		if err != nil {
			return domain.Reservation{}, err
		}
		if villa == nil {
			return domain.Reservation{}, domain.ErrVillaNotFound
		}
	}

	reservation, err := s.build(req, customer, villa, act)
	if err != nil {
		return domain.Reservation{}, err
	}

	payoutCreated := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.sequence.Resolve(ctx, tx, act, req.InvoiceNumber.String())
		if err != nil {
			return err
		}
		reservation.InvoiceNumber = number

		if err := s.repo.Insert(ctx, tx, &reservation); err != nil {
			return err
		}
		if err := s.sequence.Claim(ctx, tx, number, sequencedomain.SourceReservation, reservation.ID); err != nil {
			return err
		}

		if villa != nil && reservation.OwnerPrice.IsPositive() {
			payoutCreated, err = s.applyPayout(ctx, tx, reservation, *villa, act.ID())
			if err != nil {
				s.log.Error("owner payout failed",
					zap.String("reservation_id", reservation.ID.String()),
					zap.String("invoice_number", number),
					zap.Error(err),
				)
				return fmt.Errorf("owner payout: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.metrics.RecordReservationCreated(ctx, reservation.Currency)
	if payoutCreated {
		s.metrics.RecordPayout(ctx, "reservation")
	}
	s.audit(ctx, "reservation.create", reservation, map[string]any{
		"invoice_number": reservation.InvoiceNumber,
		"manual_number":  req.InvoiceNumber.IsSet(),
		"owner_payout":   payoutCreated,
	})
	s.log.Info("reservation created",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("invoice_number", reservation.InvoiceNumber),
		zap.String("villa_code", reservation.VillaCode),
	)
	return reservation, nil
}

// applyPayout records what the villa owner is owed for a reservation. The
// expense and the ledger accrual are created together or not at all.
func (s *Service) applyPayout(ctx context.Context, tx *gorm.DB, reservation domain.Reservation, villa villadomain.Villa, createdBy string) (bool, error) {
	checkIn := reservation.ReservationDate
	_, created, err := s.expenses.EnsurePayout(ctx, tx, expensedomain.PayoutRequest{
		ReservationID: reservation.ID,
		VillaCode:     villa.Code,
		InvoiceNumber: reservation.InvoiceNumber,
		CustomerName:  reservation.CustomerName,
		Amount:        reservation.OwnerPrice,
		Currency:      reservation.Currency,
		ExpenseDate:   reservation.ReservationDate,
		CheckIn:       &checkIn,
		CreatedBy:     createdBy,
	})
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	if _, err := s.owners.Accrue(ctx, tx, ownerdomain.Accrual{
		VillaCode:  villa.Code,
		VillaPhone: villa.Phone,
		Amount:     reservation.OwnerPrice,
		CreatedBy:  createdBy,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) build(req domain.CreateRequest, customer customerdomain.Customer, villa *villadomain.Villa, act actor.Actor) (domain.Reservation, error) {
	rentalType, ok := villadomain.ParseRentalType(req.RentalType)
	if !ok {
		return domain.Reservation{}, domain.ErrInvalidRentalType
	}
	status, ok := domain.ParseStatus(req.Status)
	if !ok {
		return domain.Reservation{}, domain.ErrInvalidStatus
	}
	currency, ok := balance.ParseCurrency(req.Currency)
	if !ok {
		return domain.Reservation{}, domain.ErrInvalidCurrency
	}
	method, ok := balance.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return domain.Reservation{}, domain.ErrInvalidMethod
	}
	if req.ReservationDate.IsZero() {
		return domain.Reservation{}, domain.ErrInvalidDate
	}
	guests := req.Guests
	if guests == 0 {
		guests = 1
	}
	if guests < 0 {
		return domain.Reservation{}, domain.ErrInvalidGuests
	}

	lines, linesTotal, err := normalizeExtras(req.ExtraServices)
	if err != nil {
		return domain.Reservation{}, err
	}

	// The villa supplies the default rate. Owner price is never inferred:
	// a payout only follows an explicit amount.
	var villaPrice decimal.Decimal
	if villa != nil {
		villaPrice, _ = villa.Prices(rentalType)
	}
	basePrice := valueOr(req.BasePrice, villaPrice)
	ownerPrice := valueOr(req.OwnerPrice, decimal.Zero)
	extrasTotal := valueOr(req.ExtraServicesTotal, linesTotal)

	if !balance.NonNegative(
		basePrice, ownerPrice, req.ExtraHours, req.ExtraHoursCost, extrasTotal,
		req.Discount, req.Deposit, req.AmountPaid,
		valueOr(req.Subtotal, decimal.Zero), valueOr(req.TaxAmount, decimal.Zero), valueOr(req.TotalAmount, decimal.Zero),
	) {
		return domain.Reservation{}, domain.ErrNegativeAmount
	}

	quote := balance.Quote(balance.QuoteInput{
		BasePrice:          basePrice,
		ExtraHoursCost:     req.ExtraHoursCost,
		ExtraServicesTotal: extrasTotal,
		Discount:           req.Discount,
		IncludeTax:         req.IncludeTax,
		TaxRate:            s.cfg.Get().Tax.Rate(),
	})
	total := valueOr(req.TotalAmount, quote.Total)
	paid := req.AmountPaid.Round(2)

	now := s.clock.Now()
	reservation := domain.Reservation{
		ID:                 s.genID.Generate(),
		CustomerID:         customer.ID,
		CustomerName:       customer.Name,
		VillaDescription:   strings.TrimSpace(req.VillaDescription),
		RentalType:         rentalType,
		EventType:          strings.TrimSpace(req.EventType),
		ReservationDate:    req.ReservationDate.UTC(),
		CheckInTime:        strings.TrimSpace(req.CheckInTime),
		CheckOutTime:       strings.TrimSpace(req.CheckOutTime),
		Guests:             guests,
		BasePrice:          basePrice.Round(2),
		OwnerPrice:         ownerPrice.Round(2),
		ExtraHours:         req.ExtraHours.Round(2),
		ExtraHoursCost:     req.ExtraHoursCost.Round(2),
		ExtraServices:      lines,
		ExtraServicesTotal: extrasTotal.Round(2),
		Subtotal:           valueOr(req.Subtotal, quote.Subtotal).Round(2),
		Discount:           req.Discount.Round(2),
		IncludeTax:         req.IncludeTax,
		TaxAmount:          valueOr(req.TaxAmount, quote.TaxAmount).Round(2),
		TotalAmount:        total.Round(2),
		Deposit:            req.Deposit.Round(2),
		InitialAmountPaid:  paid,
		AmountPaid:         paid,
		Currency:           string(currency),
		PaymentMethod:      string(method),
		PaymentDetails:     strings.TrimSpace(req.PaymentDetails),
		Status:             status,
		Notes:              strings.TrimSpace(req.Notes),
		CreatedBy:          act.ID(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	reservation.BalanceDue = balance.ReservationBalance(reservation.TotalAmount, reservation.AmountPaid, reservation.Deposit)

	if villa != nil {
		villaID := villa.ID
		reservation.VillaID = &villaID
		reservation.VillaCode = villa.Code
		if reservation.VillaDescription == "" {
			reservation.VillaDescription = villa.Name
		}
		if reservation.CheckInTime == "" {
			reservation.CheckInTime = villa.CheckInTime
		}
		if reservation.CheckOutTime == "" {
			reservation.CheckOutTime = villa.CheckOutTime
		}
	}
	return reservation, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Reservation, error) {
	reservationID, err := parseID(id)
	if err != nil {
		return domain.Reservation{}, err
	}
	return s.load(ctx, s.db, reservationID)
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Reservation, error) {
	filter := domain.ListFilter{}
	if strings.TrimSpace(req.Status) != "" {
		status, ok := domain.ParseStatus(req.Status)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		filter.Status = status
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	customerIDs := make([]snowflake.ID, 0, len(items))
	seen := make(map[snowflake.ID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.CustomerID]; ok {
			continue
		}
		seen[item.CustomerID] = struct{}{}
		customerIDs = append(customerIDs, item.CustomerID)
	}
	customers, err := s.customers.Lookup(ctx, customerIDs)
	if err != nil {
		return nil, err
	}

	reservations := make([]domain.Reservation, 0, len(items))
	for _, item := range items {
		if customer, ok := customers[item.CustomerID]; ok {
			item.CustomerIdentification = customer.IdentificationDocument
		}
		reservations = append(reservations, *item)
	}
	return reservations, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (domain.Reservation, error) {
	reservationID, err := parseID(id)
	if err != nil {
		return domain.Reservation{}, err
	}

	var updated domain.Reservation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := s.repo.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if reservation == nil {
			return domain.ErrNotFound
		}
		columns, err := s.applyPatch(reservation, req)
		if err != nil {
			return err
		}

		if req.AmountPaid != nil {
			installments, err := s.repo.SumInstallments(ctx, tx, reservation.ID)
			if err != nil {
				return err
			}
			initial := reservation.AmountPaid.Sub(installments)
			if initial.IsNegative() {
				return domain.ErrPaidBelowInstall
			}
			reservation.InitialAmountPaid = initial
			columns = append(columns, "initial_amount_paid")
		}

		reservation.BalanceDue = balance.ReservationBalance(reservation.TotalAmount, reservation.AmountPaid, reservation.Deposit)
		reservation.UpdatedAt = s.clock.Now()
		columns = append(columns, "balance_due")
		if err := s.repo.Update(ctx, tx, reservation, columns); err != nil {
			return err
		}
		updated = *reservation
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.audit(ctx, "reservation.update", updated, map[string]any{
		"invoice_number": updated.InvoiceNumber,
		"balance_due":    updated.BalanceDue.String(),
	})
	return updated, nil
}

// applyPatch applies req to r and returns the columns it changed.
func (s *Service) applyPatch(r *domain.Reservation, req domain.UpdateRequest) ([]string, error) {
	for _, amount := range []*decimal.Decimal{
		req.BasePrice, req.OwnerPrice, req.ExtraHours, req.ExtraHoursCost, req.ExtraServicesTotal,
		req.Subtotal, req.Discount, req.TaxAmount, req.TotalAmount, req.Deposit, req.AmountPaid,
	} {
		if amount != nil && amount.IsNegative() {
			return nil, domain.ErrNegativeAmount
		}
	}

	var columns []string
	touch := func(names ...string) { columns = append(columns, names...) }

	if req.VillaDescription != nil {
		r.VillaDescription = strings.TrimSpace(*req.VillaDescription)
		touch("villa_description")
	}
	if req.RentalType != nil {
		rentalType, ok := villadomain.ParseRentalType(*req.RentalType)
		if !ok {
			return nil, domain.ErrInvalidRentalType
		}
		r.RentalType = rentalType
		touch("rental_type")
	}
	if req.EventType != nil {
		r.EventType = strings.TrimSpace(*req.EventType)
		touch("event_type")
	}
	if req.ReservationDate != nil {
		if req.ReservationDate.IsZero() {
			return nil, domain.ErrInvalidDate
		}
		r.ReservationDate = req.ReservationDate.UTC()
		touch("reservation_date")
	}
	if req.CheckInTime != nil {
		r.CheckInTime = strings.TrimSpace(*req.CheckInTime)
		touch("check_in_time")
	}
	if req.CheckOutTime != nil {
		r.CheckOutTime = strings.TrimSpace(*req.CheckOutTime)
		touch("check_out_time")
	}
	if req.Guests != nil {
		if *req.Guests < 1 {
			return nil, domain.ErrInvalidGuests
		}
		r.Guests = *req.Guests
		touch("guests")
	}

	repriced := false
	if req.BasePrice != nil {
		r.BasePrice = req.BasePrice.Round(2)
		touch("base_price")
		repriced = true
	}
	if req.OwnerPrice != nil {
		r.OwnerPrice = req.OwnerPrice.Round(2)
		touch("owner_price")
	}
	if req.ExtraHours != nil {
		r.ExtraHours = req.ExtraHours.Round(2)
		touch("extra_hours")
	}
	if req.ExtraHoursCost != nil {
		r.ExtraHoursCost = req.ExtraHoursCost.Round(2)
		touch("extra_hours_cost")
		repriced = true
	}
	if req.ExtraServices != nil {
		lines, linesTotal, err := normalizeExtras(*req.ExtraServices)
		if err != nil {
			return nil, err
		}
		r.ExtraServices = lines
		touch("extra_services")
		if req.ExtraServicesTotal == nil {
			r.ExtraServicesTotal = linesTotal.Round(2)
			touch("extra_services_total")
		}
		repriced = true
	}
	if req.ExtraServicesTotal != nil {
		r.ExtraServicesTotal = req.ExtraServicesTotal.Round(2)
		touch("extra_services_total")
		repriced = true
	}
	if req.Discount != nil {
		r.Discount = req.Discount.Round(2)
		touch("discount")
		repriced = true
	}
	if req.IncludeTax != nil {
		r.IncludeTax = *req.IncludeTax
		touch("include_tax")
		repriced = true
	}

	if repriced {
		quote := balance.Quote(balance.QuoteInput{
			BasePrice:          r.BasePrice,
			ExtraHoursCost:     r.ExtraHoursCost,
			ExtraServicesTotal: r.ExtraServicesTotal,
			Discount:           r.Discount,
			IncludeTax:         r.IncludeTax,
			TaxRate:            s.cfg.Get().Tax.Rate(),
		})
		r.Subtotal = quote.Subtotal.Round(2)
		r.TaxAmount = quote.TaxAmount.Round(2)
		r.TotalAmount = quote.Total.Round(2)
		touch("subtotal", "tax_amount", "total_amount")
	}
	if req.Subtotal != nil {
		r.Subtotal = req.Subtotal.Round(2)
		touch("subtotal")
	}
	if req.TaxAmount != nil {
		r.TaxAmount = req.TaxAmount.Round(2)
		touch("tax_amount")
	}
	if req.TotalAmount != nil {
		r.TotalAmount = req.TotalAmount.Round(2)
		touch("total_amount")
	}
	if req.Deposit != nil {
		r.Deposit = req.Deposit.Round(2)
		touch("deposit")
	}
	if req.AmountPaid != nil {
		r.AmountPaid = req.AmountPaid.Round(2)
		touch("amount_paid")
	}

	if req.Currency != nil {
		currency, ok := balance.ParseCurrency(*req.Currency)
		if !ok {
			return nil, domain.ErrInvalidCurrency
		}
		r.Currency = string(currency)
		touch("currency")
	}
	if req.PaymentMethod != nil {
		method, ok := balance.ParsePaymentMethod(*req.PaymentMethod)
		if !ok {
			return nil, domain.ErrInvalidMethod
		}
		r.PaymentMethod = string(method)
		touch("payment_method")
	}
	if req.PaymentDetails != nil {
		r.PaymentDetails = strings.TrimSpace(*req.PaymentDetails)
		touch("payment_details")
	}
	if req.Status != nil {
		status, ok := domain.ParseStatus(*req.Status)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		r.Status = status
		touch("status")
	}
	if req.Notes != nil {
		r.Notes = strings.TrimSpace(*req.Notes)
		touch("notes")
	}
	return columns, nil
}

// Delete removes children before the parent: payout expenses, installments,
// invoice claims, then the reservation itself.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := actor.RequireAdmin(ctx); err != nil {
		return err
	}
	reservationID, err := parseID(id)
	if err != nil {
		return err
	}

	var deleted domain.Reservation
	var payouts int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := s.load(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		deleted = reservation

		payouts, err = s.expenses.DeleteByReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}

		installmentIDs, err := s.repo.InstallmentIDs(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if err := s.sequence.ReleaseAll(ctx, tx, sequencedomain.SourceReservationInstallment, installmentIDs); err != nil {
			return err
		}
		if err := s.repo.DeleteInstallments(ctx, tx, reservationID); err != nil {
			return err
		}

		if err := s.sequence.Release(ctx, tx, reservation.InvoiceNumber, sequencedomain.SourceReservation, reservationID); err != nil {
			return err
		}
		rows, err := s.repo.Delete(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit(ctx, "reservation.delete", deleted, map[string]any{
		"invoice_number":   deleted.InvoiceNumber,
		"payouts_removed":  payouts,
		"owner_price":      deleted.OwnerPrice.String(),
		"villa_code":       deleted.VillaCode,
		"customer_name":    deleted.CustomerName,
		"total_amount":     deleted.TotalAmount.String(),
		"reservation_date": deleted.ReservationDate.Format(time.DateOnly),
	})
	return nil
}

func (s *Service) ReconcilePayouts(ctx context.Context) (domain.ReconcileResult, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return domain.ReconcileResult{}, err
	}

	token, ok, err := s.lock.TryLock(ctx, reconcileLockKey, reconcileLockTTL)
	if err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("acquire reconcile lock: %w", err)
	}
	if !ok {
		return domain.ReconcileResult{}, domain.ErrReconcileRunning
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), reconcileLockKey, token); err != nil {
			s.log.Warn("release reconcile lock", zap.Error(err))
		}
	}()

	started := s.clock.Now()
	result, err := s.reconcile(ctx)
	s.ledgerMetrics.ObserveReconcile(s.clock.Now().Sub(started), err)
	s.ledgerMetrics.AddReconcileRepairs("payout", result.PayoutsCreated)
	if err != nil {
		return result, err
	}

	s.log.Info("payout reconciliation finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("payouts_created", result.PayoutsCreated),
		zap.Int("skipped", result.Skipped),
	)
	if result.PayoutsCreated > 0 {
		s.auditSystem(ctx, "reservation.reconcile_payouts", map[string]any{
			"payouts_created": result.PayoutsCreated,
			"invoices":        strings.Join(result.RepairedInvoices, ","),
		})
	}
	return result, nil
}

func (s *Service) reconcile(ctx context.Context) (domain.ReconcileResult, error) {
	act, _ := actor.FromContext(ctx)
	result := domain.ReconcileResult{RepairedInvoices: []string{}}

	candidates, err := s.repo.MissingPayouts(ctx, s.db)
	if err != nil {
		return result, err
	}
	result.Scanned = len(candidates)

	for _, reservation := range candidates {
		villa, err := s.villas.FindByID(ctx, *reservation.VillaID)
		if err != nil {
			return result, err
		}
		if villa == nil {
			result.Skipped++
			continue
		}

		var created bool
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			created, err = s.applyPayout(ctx, tx, *reservation, *villa, act.ID())
			return err
		})
		if err != nil {
			return result, fmt.Errorf("reconcile reservation %s: %w", reservation.ID, err)
		}
		if !created {
			result.Skipped++
			continue
		}
		result.PayoutsCreated++
		result.OwnersAccrued++
		result.RepairedInvoices = append(result.RepairedInvoices, reservation.InvoiceNumber)
		s.metrics.RecordPayout(ctx, "reconcile")
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, conn *gorm.DB, id snowflake.ID) (domain.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, conn, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if reservation == nil {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return *reservation, nil
}

func (s *Service) audit(ctx context.Context, action string, reservation domain.Reservation, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := reservation.ID.String()
	if err := s.auditSvc.AuditLog(ctx, action, "reservation", &targetID, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) auditSystem(ctx context.Context, action string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, action, "reservation", nil, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func normalizeExtras(in []domain.ExtraServiceLine) (datatypes.JSONSlice[domain.ExtraServiceLine], decimal.Decimal, error) {
	lines := make(datatypes.JSONSlice[domain.ExtraServiceLine], 0, len(in))
	total := decimal.Zero
	for _, line := range in {
		line.ServiceName = strings.TrimSpace(line.ServiceName)
		if line.ServiceName == "" || line.Quantity < 1 {
			return nil, decimal.Zero, domain.ErrInvalidExtra
		}
		if line.UnitPrice.IsNegative() || line.Total.IsNegative() {
			return nil, decimal.Zero, domain.ErrNegativeAmount
		}
		if line.Total.IsZero() {
			line.Total = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		}
		line.UnitPrice = line.UnitPrice.Round(2)
		line.Total = line.Total.Round(2)
		total = total.Add(line.Total)
		lines = append(lines, line)
	}
	return lines, total, nil
}

func valueOr(v *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if v == nil {
		return fallback
	}
	return *v
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
