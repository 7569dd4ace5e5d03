package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/extraservice/domain"
	"github.com/smallbiznis/villadesk/pkg/db/option"
	"github.com/smallbiznis/villadesk/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Store repository.Repository[domain.ExtraService]
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	store repository.Repository[domain.ExtraService]
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("extraservice.service"),
		genID: p.GenID,
		clock: p.Clock,
		store: p.Store,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.ExtraService, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ExtraService{}, domain.ErrInvalidName
	}
	if req.DefaultPrice.IsNegative() {
		return domain.ExtraService{}, domain.ErrInvalidPrice
	}

	act, _ := actor.FromContext(ctx)
	now := s.clock.Now()
	item := domain.ExtraService{
		ID:           s.genID.Generate(),
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		DefaultPrice: req.DefaultPrice.Round(2),
		IsActive:     true,
		CreatedBy:    act.ID(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, &item); err != nil {
		return domain.ExtraService{}, err
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.ExtraService, error) {
	opts := []option.QueryOption{option.WithSortBy("name", option.ASC)}
	if activeOnly {
		opts = append(opts, option.WithWhere("is_active = ?", true))
	}
	items, err := s.store.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ExtraService, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (domain.ExtraService, error) {
	itemID, err := parseID(id)
	if err != nil {
		return domain.ExtraService{}, err
	}
	item, err := s.store.FindByID(ctx, itemID)
	if err != nil {
		return domain.ExtraService{}, err
	}
	if item == nil {
		return domain.ExtraService{}, domain.ErrNotFound
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.ExtraService{}, domain.ErrInvalidName
		}
		item.Name = name
		fields["name"] = name
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
		fields["description"] = item.Description
	}
	if req.DefaultPrice != nil {
		if req.DefaultPrice.IsNegative() {
			return domain.ExtraService{}, domain.ErrInvalidPrice
		}
		item.DefaultPrice = req.DefaultPrice.Round(2)
		fields["default_price"] = item.DefaultPrice
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
		fields["is_active"] = item.IsActive
	}
	if len(fields) == 0 {
		return *item, nil
	}

	item.UpdatedAt = s.clock.Now()
	fields["updated_at"] = item.UpdatedAt
	if _, err := s.store.Update(ctx, item.ID, fields); err != nil {
		return domain.ExtraService{}, err
	}
	return *item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	itemID, err := parseID(id)
	if err != nil {
		return err
	}
	rows, err := s.store.Delete(ctx, itemID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
