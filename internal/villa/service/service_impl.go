package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/balance"
	categorydomain "github.com/smallbiznis/villadesk/internal/category/domain"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/villa/domain"
	"github.com/smallbiznis/villadesk/pkg/db"
	"github.com/smallbiznis/villadesk/pkg/db/option"
	"github.com/smallbiznis/villadesk/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Store repository.Repository[domain.Villa]

	Categories categorydomain.Service `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	store      repository.Repository[domain.Villa]
	categories categorydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("villa.service"),
		genID: p.GenID,
		clock: p.Clock,
		store: p.Store,

		categories: p.Categories,
	}
}

func (s *Service) Create(ctx context.Context, req domain.VillaInput) (domain.Villa, error) {
	if err := validate(&req); err != nil {
		return domain.Villa{}, err
	}
	categoryID, err := s.category(ctx, req.CategoryID)
	if err != nil {
		return domain.Villa{}, err
	}

	existing, err := s.store.FindOne(ctx, &domain.Villa{Code: req.Code})
	if err != nil {
		return domain.Villa{}, err
	}
	if existing != nil {
		return domain.Villa{}, domain.ErrCodeExists
	}

	act, _ := actor.FromContext(ctx)
	now := s.clock.Now()
	villa := domain.Villa{
		ID:        s.genID.Generate(),
		IsActive:  true,
		CreatedBy: act.ID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(&villa, req)
	villa.CategoryID = categoryID

	if err := s.store.Create(ctx, &villa); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Villa{}, domain.ErrCodeExists
		}
		return domain.Villa{}, err
	}
	return villa, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Villa, error) {
	opts := []option.QueryOption{
		option.WithSearch(req.Search, "code", "name"),
		option.WithSortBy("code", option.ASC),
	}
	if req.ActiveOnly {
		opts = append(opts, option.WithWhere("is_active = ?", true))
	}
	if raw := strings.TrimSpace(req.CategoryID); raw != "" {
		categoryID, err := snowflake.ParseString(raw)
		if err != nil || categoryID == 0 {
			return nil, domain.ErrInvalidCategory
		}
		opts = append(opts, option.WithWhere("category_id = ?", categoryID))
	}

	items, err := s.store.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	villas := make([]domain.Villa, 0, len(items))
	for _, item := range items {
		villas = append(villas, *item)
	}
	return villas, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Villa, error) {
	villaID, err := parseID(id)
	if err != nil {
		return domain.Villa{}, err
	}
	villa, err := s.FindByID(ctx, villaID)
	if err != nil {
		return domain.Villa{}, err
	}
	if villa == nil {
		return domain.Villa{}, domain.ErrNotFound
	}
	return *villa, nil
}

func (s *Service) FindByID(ctx context.Context, id snowflake.ID) (*domain.Villa, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, req domain.VillaInput) (domain.Villa, error) {
	villa, err := s.Get(ctx, id)
	if err != nil {
		return domain.Villa{}, err
	}
	if err := validate(&req); err != nil {
		return domain.Villa{}, err
	}
	categoryID, err := s.category(ctx, req.CategoryID)
	if err != nil {
		return domain.Villa{}, err
	}

	if req.Code != villa.Code {
		clash, err := s.store.FindOne(ctx, &domain.Villa{Code: req.Code})
		if err != nil {
			return domain.Villa{}, err
		}
		if clash != nil && clash.ID != villa.ID {
			return domain.Villa{}, domain.ErrCodeExists
		}
	}

	apply(&villa, req)
	villa.CategoryID = categoryID
	villa.UpdatedAt = s.clock.Now()

	_, err = s.store.Update(ctx, villa.ID, map[string]any{
		"code":                     villa.Code,
		"name":                     villa.Name,
		"description":              villa.Description,
		"phone":                    villa.Phone,
		"category_id":              villa.CategoryID,
		"check_in_time":            villa.CheckInTime,
		"check_out_time":           villa.CheckOutTime,
		"default_price_short_stay": villa.DefaultPriceShortStay,
		"default_price_overnight":  villa.DefaultPriceOvernight,
		"default_price_event":      villa.DefaultPriceEvent,
		"owner_price_short_stay":   villa.OwnerPriceShortStay,
		"owner_price_overnight":    villa.OwnerPriceOvernight,
		"owner_price_event":        villa.OwnerPriceEvent,
		"max_guests":               villa.MaxGuests,
		"amenities":                villa.Amenities,
		"is_active":                villa.IsActive,
		"updated_at":               villa.UpdatedAt,
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Villa{}, domain.ErrCodeExists
		}
		return domain.Villa{}, err
	}
	return villa, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	villaID, err := parseID(id)
	if err != nil {
		return err
	}
	rows, err := s.store.Delete(ctx, villaID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// category resolves the optional villa grouping; an empty id leaves the
// villa uncategorized.
func (s *Service) category(ctx context.Context, raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidCategory
	}
	if s.categories != nil {
		if err := s.categories.Ensure(ctx, categorydomain.KindVilla, id); err != nil {
			return nil, err
		}
	}
	return &id, nil
}

func validate(req *domain.VillaInput) error {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" {
		return domain.ErrInvalidCode
	}
	if req.Name == "" {
		return domain.ErrInvalidName
	}
	if !balance.NonNegative(
		req.DefaultPriceShortStay, req.DefaultPriceOvernight, req.DefaultPriceEvent,
		req.OwnerPriceShortStay, req.OwnerPriceOvernight, req.OwnerPriceEvent,
	) {
		return domain.ErrInvalidPrice
	}
	if req.MaxGuests < 0 {
		return domain.ErrInvalidGuest
	}
	return nil
}

func apply(villa *domain.Villa, req domain.VillaInput) {
	villa.Code = req.Code
	villa.Name = req.Name
	villa.Description = strings.TrimSpace(req.Description)
	villa.Phone = strings.TrimSpace(req.Phone)
	villa.CheckInTime = defaultString(req.CheckInTime, "9:00 AM")
	villa.CheckOutTime = defaultString(req.CheckOutTime, "8:00 PM")
	villa.DefaultPriceShortStay = req.DefaultPriceShortStay
	villa.DefaultPriceOvernight = req.DefaultPriceOvernight
	villa.DefaultPriceEvent = req.DefaultPriceEvent
	villa.OwnerPriceShortStay = req.OwnerPriceShortStay
	villa.OwnerPriceOvernight = req.OwnerPriceOvernight
	villa.OwnerPriceEvent = req.OwnerPriceEvent
	villa.MaxGuests = req.MaxGuests
	villa.Amenities = datatypes.JSONSlice[string](req.Amenities)
	if villa.Amenities == nil {
		villa.Amenities = datatypes.JSONSlice[string]{}
	}
	if req.IsActive != nil {
		villa.IsActive = *req.IsActive
	}
}

func defaultString(value, def string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return def
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
