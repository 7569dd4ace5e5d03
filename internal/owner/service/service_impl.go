package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/balance"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/smallbiznis/villadesk/internal/owner/domain"
	"github.com/smallbiznis/villadesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config *config.InvoicingConfigHolder
	Repo   domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	cfg   *config.InvoicingConfigHolder
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("owner.service"),
		genID: p.GenID,
		clock: p.Clock,
		cfg:   p.Config,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.OwnerInput) (domain.Owner, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Owner{}, domain.ErrInvalidName
	}
	if !validCommission(req.Commission) {
		return domain.Owner{}, domain.ErrInvalidComm
	}

	act, _ := actor.FromContext(ctx)
	now := s.clock.Now()
	owner := domain.Owner{
		ID:         s.genID.Generate(),
		OwnerKey:   ownerKey(name),
		Name:       name,
		Phone:      strings.TrimSpace(req.Phone),
		Email:      strings.TrimSpace(req.Email),
		Villas:     normalizeVillas(req.Villas),
		Commission: req.Commission.Round(2),
		TotalOwed:  decimal.Zero,
		AmountPaid: decimal.Zero,
		BalanceDue: decimal.Zero,
		Notes:      strings.TrimSpace(req.Notes),
		CreatedBy:  act.ID(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, &owner); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Owner{}, domain.ErrOwnerExists
		}
		return domain.Owner{}, err
	}
	return owner, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Owner, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	owners := make([]domain.Owner, 0, len(items))
	for _, item := range items {
		owners = append(owners, *item)
	}
	return owners, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Owner, error) {
	ownerID, err := parseID(id)
	if err != nil {
		return domain.Owner{}, err
	}
	return s.load(ctx, s.db, ownerID)
}

func (s *Service) Update(ctx context.Context, id string, req domain.OwnerInput) (domain.Owner, error) {
	owner, err := s.Get(ctx, id)
	if err != nil {
		return domain.Owner{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Owner{}, domain.ErrInvalidName
	}
	if !validCommission(req.Commission) {
		return domain.Owner{}, domain.ErrInvalidComm
	}

	owner.Name = name
	owner.OwnerKey = ownerKey(name)
	owner.Phone = strings.TrimSpace(req.Phone)
	owner.Email = strings.TrimSpace(req.Email)
	owner.Villas = normalizeVillas(req.Villas)
	owner.Commission = req.Commission.Round(2)
	owner.Notes = strings.TrimSpace(req.Notes)
	owner.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateProfile(ctx, s.db, &owner); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Owner{}, domain.ErrOwnerExists
		}
		return domain.Owner{}, err
	}
	return owner, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := actor.RequireAdmin(ctx); err != nil {
		return err
	}
	ownerID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeletePayments(ctx, tx, ownerID); err != nil {
			return err
		}
		rows, err := s.repo.Delete(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (s *Service) RecordPayment(ctx context.Context, id string, req domain.PaymentInput) (domain.Owner, domain.Payment, error) {
	ownerID, err := parseID(id)
	if err != nil {
		return domain.Owner{}, domain.Payment{}, err
	}
	if !req.Amount.IsPositive() {
		return domain.Owner{}, domain.Payment{}, domain.ErrInvalidAmount
	}
	currency, ok := balance.ParseCurrency(req.Currency)
	if !ok {
		return domain.Owner{}, domain.Payment{}, domain.ErrInvalidCurr
	}
	method, ok := balance.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return domain.Owner{}, domain.Payment{}, domain.ErrInvalidMethod
	}

	act, _ := actor.FromContext(ctx)
	now := s.clock.Now()
	payment := domain.Payment{
		ID:            s.genID.Generate(),
		OwnerID:       ownerID,
		Amount:        req.Amount.Round(2),
		Currency:      string(currency),
		PaymentMethod: string(method),
		PaymentDate:   now,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedBy:     act.ID(),
		CreatedAt:     now,
	}
	if req.PaymentDate != nil && !req.PaymentDate.IsZero() {
		payment.PaymentDate = req.PaymentDate.UTC()
	}

	var owner domain.Owner
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.load(ctx, tx, ownerID); err != nil {
			return err
		}
		if err := s.repo.InsertPayment(ctx, tx, &payment); err != nil {
			return err
		}
		if err := s.repo.AddPaid(ctx, tx, ownerID, payment.Amount, now); err != nil {
			return err
		}
		owner, err = s.load(ctx, tx, ownerID)
		return err
	})
	if err != nil {
		return domain.Owner{}, domain.Payment{}, err
	}

	s.log.Info("owner payment recorded",
		zap.String("owner_id", ownerID.String()),
		zap.String("amount", payment.Amount.String()),
	)
	return owner, payment, nil
}

func (s *Service) ListPayments(ctx context.Context, id string) ([]domain.Payment, error) {
	owner, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListPayments(ctx, s.db, owner.ID)
	if err != nil {
		return nil, err
	}
	payments := make([]domain.Payment, 0, len(items))
	for _, item := range items {
		payments = append(payments, *item)
	}
	return payments, nil
}

func (s *Service) SetTotalOwed(ctx context.Context, id string, amount decimal.Decimal) (domain.Owner, error) {
	ownerID, err := parseID(id)
	if err != nil {
		return domain.Owner{}, err
	}
	if amount.IsNegative() {
		return domain.Owner{}, domain.ErrInvalidOwed
	}

	var owner domain.Owner
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.load(ctx, tx, ownerID); err != nil {
			return err
		}
		if err := s.repo.SetOwed(ctx, tx, ownerID, amount.Round(2), s.clock.Now()); err != nil {
			return err
		}
		owner, err = s.load(ctx, tx, ownerID)
		return err
	})
	return owner, err
}

func (s *Service) Accrue(ctx context.Context, tx *gorm.DB, in domain.Accrual) (domain.Owner, error) {
	if tx == nil {
		tx = s.db
	}
	if !in.Amount.IsPositive() {
		return domain.Owner{}, domain.ErrInvalidAmount
	}

	code := strings.ToUpper(strings.TrimSpace(in.VillaCode))
	name := strings.TrimSpace(s.cfg.Get().Payout.OwnerNamePrefix + " " + code)
	key := ownerKey(name)
	now := s.clock.Now()

	existing, err := s.repo.FindByKey(ctx, tx, key)
	if err != nil {
		return domain.Owner{}, err
	}
	if existing != nil {
		if err := s.repo.AddOwed(ctx, tx, existing.ID, in.Amount, now); err != nil {
			return domain.Owner{}, err
		}
		return s.load(ctx, tx, existing.ID)
	}

	owner := domain.Owner{
		ID:         s.genID.Generate(),
		OwnerKey:   key,
		Name:       name,
		Phone:      strings.TrimSpace(in.VillaPhone),
		Villas:     datatypes.JSONSlice[string]{code},
		Commission: decimal.Zero,
		TotalOwed:  in.Amount,
		AmountPaid: decimal.Zero,
		BalanceDue: balance.OwnerBalance(in.Amount, decimal.Zero),
		Notes:      "Auto-generado para " + code,
		CreatedBy:  in.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, tx, &owner); err != nil {
		return domain.Owner{}, err
	}

	s.log.Info("owner ledger created",
		zap.String("owner_key", key),
		zap.String("villa_code", code),
	)
	return owner, nil
}

func (s *Service) load(ctx context.Context, conn *gorm.DB, id snowflake.ID) (domain.Owner, error) {
	owner, err := s.repo.FindByID(ctx, conn, id)
	if err != nil {
		return domain.Owner{}, err
	}
	if owner == nil {
		return domain.Owner{}, domain.ErrNotFound
	}
	return *owner, nil
}

func validCommission(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(decimal.NewFromInt(100))
}

func ownerKey(name string) string {
	return slug.Make(name)
}

func normalizeVillas(codes []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

