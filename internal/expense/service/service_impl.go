package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/balance"
	categorydomain "github.com/smallbiznis/villadesk/internal/category/domain"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/smallbiznis/villadesk/internal/expense/domain"
	sequencedomain "github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   *config.InvoicingConfigHolder
	Repo     domain.Repository
	Sequence sequencedomain.Service

	Categories categorydomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	cfg      *config.InvoicingConfigHolder
	repo     domain.Repository
	sequence sequencedomain.Service

	categories categorydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("expense.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		cfg:      p.Config,
		repo:     p.Repo,
		sequence: p.Sequence,

		categories: p.Categories,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.Expense, error) {
	category, ok := domain.ParseCategory(req.Category, s.payoutCategory())
	if !ok {
		return domain.Expense{}, domain.ErrInvalidCategory
	}
	expenseType, ok := domain.ParseExpenseType(req.ExpenseType)
	if !ok {
		return domain.Expense{}, domain.ErrInvalidType
	}
	currency, ok := balance.ParseCurrency(req.Currency)
	if !ok {
		return domain.Expense{}, domain.ErrInvalidCurrency
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return domain.Expense{}, domain.ErrInvalidDesc
	}
	if !req.Amount.IsPositive() {
		return domain.Expense{}, domain.ErrInvalidAmount
	}
	status, err := parseStatus(req.PaymentStatus)
	if err != nil {
		return domain.Expense{}, err
	}
	reminder, err := reminderOf(req.Reminder)
	if err != nil {
		return domain.Expense{}, err
	}
	groupID, err := s.expenseCategory(ctx, req.ExpenseCategoryID)
	if err != nil {
		return domain.Expense{}, err
	}

	act, _ := actor.FromContext(ctx)
	now := s.clock.Now()
	expense := domain.Expense{
		ID:                 s.genID.Generate(),
		Category:           category,
		ExpenseCategoryID:  groupID,
		Description:        description,
		Amount:             req.Amount.Round(2),
		Currency:           string(currency),
		ExpenseDate:        now,
		PaymentStatus:      status,
		ExpenseType:        expenseType,
		Notes:              strings.TrimSpace(req.Notes),
		ReservationCheckIn: req.ReservationCheckIn,
		Reminder:           reminder,
		CreatedBy:          act.ID(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.ExpenseDate != nil && !req.ExpenseDate.IsZero() {
		expense.ExpenseDate = req.ExpenseDate.UTC()
	}

	if err := s.repo.Insert(ctx, s.db, &expense); err != nil {
		return domain.Expense{}, err
	}
	withTotals(&expense, decimal.Zero)
	return expense, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Expense, error) {
	filter := domain.ListFilter{Search: strings.TrimSpace(req.Search)}
	if strings.TrimSpace(req.Category) != "" {
		category, ok := domain.ParseCategory(req.Category, s.payoutCategory())
		if !ok {
			return nil, domain.ErrInvalidCategory
		}
		filter.Category = category
	}
	if raw := strings.TrimSpace(req.ExpenseCategoryID); raw != "" {
		groupID, err := snowflake.ParseString(raw)
		if err != nil || groupID == 0 {
			return nil, domain.ErrInvalidGroupID
		}
		filter.ExpenseCategoryID = &groupID
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	totals, err := s.repo.SumInstallments(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	expenses := make([]domain.Expense, 0, len(items))
	for _, item := range items {
		withTotals(item, totals[item.ID])
		expenses = append(expenses, *item)
	}
	return expenses, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Expense, error) {
	expenseID, err := parseID(id)
	if err != nil {
		return domain.Expense{}, err
	}
	return s.load(ctx, s.db, expenseID)
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (domain.Expense, error) {
	expenseID, err := parseID(id)
	if err != nil {
		return domain.Expense{}, err
	}

	var updated domain.Expense
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expense, err := s.loadForUpdate(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		if err := s.applyPatch(ctx, &expense, req); err != nil {
			return err
		}
		// Once installments exist the stored status follows them.
		if expense.TotalPaid.IsPositive() {
			expense.PaymentStatus = balance.ExpensePaymentStatus(expense.Amount, expense.TotalPaid)
		}
		expense.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, &expense); err != nil {
			return err
		}
		withTotals(&expense, expense.TotalPaid)
		updated = expense
		return nil
	})
	if err != nil {
		return domain.Expense{}, err
	}
	return updated, nil
}

func (s *Service) applyPatch(ctx context.Context, expense *domain.Expense, req domain.UpdateRequest) error {
	// Payout expenses mirror the reservation's owner price and stay linked
	// to it under the payout category.
	linked := expense.RelatedReservationID != nil
	if req.Category != nil {
		category, ok := domain.ParseCategory(*req.Category, s.payoutCategory())
		if !ok {
			return domain.ErrInvalidCategory
		}
		if linked && category != expense.Category {
			return domain.ErrPayoutLocked
		}
		expense.Category = category
	}
	if req.ExpenseCategoryID != nil {
		groupID, err := s.expenseCategory(ctx, *req.ExpenseCategoryID)
		if err != nil {
			return err
		}
		expense.ExpenseCategoryID = groupID
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			return domain.ErrInvalidDesc
		}
		expense.Description = description
	}
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return domain.ErrInvalidAmount
		}
		if linked && !req.Amount.Round(2).Equal(expense.Amount) {
			return domain.ErrPayoutLocked
		}
		expense.Amount = req.Amount.Round(2)
	}
	if req.Currency != nil {
		currency, ok := balance.ParseCurrency(*req.Currency)
		if !ok {
			return domain.ErrInvalidCurrency
		}
		expense.Currency = string(currency)
	}
	if req.ExpenseDate != nil && !req.ExpenseDate.IsZero() {
		expense.ExpenseDate = req.ExpenseDate.UTC()
	}
	if req.PaymentStatus != nil {
		status, err := parseStatus(*req.PaymentStatus)
		if err != nil {
			return err
		}
		expense.PaymentStatus = status
	}
	if req.ExpenseType != nil {
		expenseType, ok := domain.ParseExpenseType(*req.ExpenseType)
		if !ok {
			return domain.ErrInvalidType
		}
		expense.ExpenseType = expenseType
	}
	if req.Notes != nil {
		expense.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.ReservationCheckIn != nil {
		expense.ReservationCheckIn = req.ReservationCheckIn
	}
	if req.Reminder != nil {
		reminder, err := reminderOf(req.Reminder)
		if err != nil {
			return err
		}
		expense.Reminder = reminder
	}
	return nil
}

// expenseCategory resolves the optional grouping an expense is filed under.
func (s *Service) expenseCategory(ctx context.Context, raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidGroupID
	}
	if s.categories != nil {
		if err := s.categories.Ensure(ctx, categorydomain.KindExpense, id); err != nil {
			return nil, err
		}
	}
	return &id, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := actor.RequireAdmin(ctx); err != nil {
		return err
	}
	expenseID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.deleteCascade(ctx, tx, []snowflake.ID{expenseID})
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (s *Service) EnsurePayout(ctx context.Context, tx *gorm.DB, req domain.PayoutRequest) (domain.Expense, bool, error) {
	if tx == nil {
		tx = s.db
	}
	if !req.Amount.IsPositive() {
		return domain.Expense{}, false, domain.ErrInvalidAmount
	}
	category := domain.Category(s.payoutCategory())

	existing, err := s.repo.FindPayout(ctx, tx, req.ReservationID)
	if err != nil {
		return domain.Expense{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}

	code := strings.ToUpper(strings.TrimSpace(req.VillaCode))
	reservationID := req.ReservationID
	now := s.clock.Now()
	expense := domain.Expense{
		ID:                   s.genID.Generate(),
		Category:             category,
		Description:          "Pago propietario villa " + code + " - Factura #" + req.InvoiceNumber,
		Amount:               req.Amount.Round(2),
		Currency:             req.Currency,
		ExpenseDate:          req.ExpenseDate,
		PaymentStatus:        balance.StatusPending,
		ExpenseType:          domain.TypeVariable,
		Notes:                "Auto-generado por reservación. Cliente: " + strings.TrimSpace(req.CustomerName),
		RelatedReservationID: &reservationID,
		ReservationCheckIn:   req.CheckIn,
		Reminder:             datatypes.NewJSONType(domain.Reminder{}),
		CreatedBy:            req.CreatedBy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if expense.ExpenseDate.IsZero() {
		expense.ExpenseDate = now
	}
	if expense.Currency == "" {
		expense.Currency = string(balance.CurrencyDOP)
	}

	if err := s.repo.Insert(ctx, tx, &expense); err != nil {
		return domain.Expense{}, false, err
	}
	withTotals(&expense, decimal.Zero)
	return expense, true, nil
}

func (s *Service) DeleteByReservation(ctx context.Context, tx *gorm.DB, reservationID snowflake.ID) (int64, error) {
	if tx == nil {
		tx = s.db
	}
	ids, err := s.repo.IDsByReservation(ctx, tx, reservationID)
	if err != nil {
		return 0, err
	}
	return s.deleteCascade(ctx, tx, ids)
}

// deleteCascade removes expenses after their installments and the invoice
// numbers those installments held.
func (s *Service) deleteCascade(ctx context.Context, tx *gorm.DB, ids []snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	installmentIDs, err := s.repo.InstallmentIDs(ctx, tx, ids)
	if err != nil {
		return 0, err
	}
	if err := s.sequence.ReleaseAll(ctx, tx, sequencedomain.SourceExpenseInstallment, installmentIDs); err != nil {
		return 0, err
	}
	if err := s.repo.DeleteInstallments(ctx, tx, ids); err != nil {
		return 0, err
	}
	return s.repo.Delete(ctx, tx, ids)
}

func (s *Service) load(ctx context.Context, conn *gorm.DB, id snowflake.ID) (domain.Expense, error) {
	expense, err := s.repo.FindByID(ctx, conn, id)
	if err != nil {
		return domain.Expense{}, err
	}
	if expense == nil {
		return domain.Expense{}, domain.ErrNotFound
	}
	totals, err := s.repo.SumInstallments(ctx, conn, []snowflake.ID{id})
	if err != nil {
		return domain.Expense{}, err
	}
	withTotals(expense, totals[id])
	return *expense, nil
}

// loadForUpdate locks the expense so installment writers see the patched
// amount before deriving a status from it.
func (s *Service) loadForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (domain.Expense, error) {
	expense, err := s.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return domain.Expense{}, err
	}
	if expense == nil {
		return domain.Expense{}, domain.ErrNotFound
	}
	totals, err := s.repo.SumInstallments(ctx, tx, []snowflake.ID{id})
	if err != nil {
		return domain.Expense{}, err
	}
	withTotals(expense, totals[id])
	return *expense, nil
}

func (s *Service) payoutCategory() string {
	return s.cfg.Get().Payout.Category
}

func withTotals(expense *domain.Expense, totalPaid decimal.Decimal) {
	expense.TotalPaid = totalPaid
	expense.BalanceDue = balance.ExpenseBalance(expense.Amount, []decimal.Decimal{totalPaid})
}

func reminderOf(in *domain.Reminder) (datatypes.JSONType[domain.Reminder], error) {
	if in == nil {
		return datatypes.NewJSONType(domain.Reminder{}), nil
	}
	if in.Enabled && (in.DayOfMonth < 1 || in.DayOfMonth > 31) {
		return datatypes.JSONType[domain.Reminder]{}, domain.ErrInvalidReminder
	}
	return datatypes.NewJSONType(*in), nil
}

func parseStatus(raw string) (string, error) {
	switch status := strings.ToLower(strings.TrimSpace(raw)); status {
	case "":
		return balance.StatusPending, nil
	case balance.StatusPending, balance.StatusPaid:
		return status, nil
	default:
		return "", domain.ErrInvalidStatus
	}
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
