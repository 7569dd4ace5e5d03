package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/actor"
	auditdomain "github.com/smallbiznis/villadesk/internal/audit/domain"
	"github.com/smallbiznis/villadesk/internal/category/domain"
	"github.com/smallbiznis/villadesk/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("category.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, kind domain.Kind, req domain.CreateRequest) (domain.Category, error) {
	if err := validKind(kind); err != nil {
		return domain.Category{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, domain.ErrInvalidName
	}

	act, _ := actor.FromContext(ctx)
	now := s.clock.Now()
	category := domain.Category{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
		CreatedBy:   act.ID(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clash, err := s.repo.FindByName(ctx, tx, kind, name)
		if err != nil {
			return err
		}
		if clash != nil {
			return domain.ErrNameExists
		}
		return s.repo.Insert(ctx, tx, kind, &category)
	})
	if err != nil {
		return domain.Category{}, err
	}

	s.audit(ctx, "category.created", kind, category.ID, map[string]any{"name": category.Name})
	return category, nil
}

func (s *Service) List(ctx context.Context, kind domain.Kind, includeInactive bool) ([]domain.Category, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, s.db, kind, !includeInactive)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Category{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, kind domain.Kind, id string) (domain.Category, error) {
	if err := validKind(kind); err != nil {
		return domain.Category{}, err
	}
	categoryID, err := parseID(id)
	if err != nil {
		return domain.Category{}, err
	}
	category, err := s.repo.FindByID(ctx, s.db, kind, categoryID)
	if err != nil {
		return domain.Category{}, err
	}
	if category == nil {
		return domain.Category{}, domain.ErrNotFound
	}
	return *category, nil
}

func (s *Service) Update(ctx context.Context, kind domain.Kind, id string, req domain.UpdateRequest) (domain.Category, error) {
	category, err := s.Get(ctx, kind, id)
	if err != nil {
		return domain.Category{}, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Category{}, domain.ErrInvalidName
		}
		category.Name = name
		fields["name"] = name
	}
	if req.Description != nil {
		category.Description = strings.TrimSpace(*req.Description)
		fields["description"] = category.Description
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
		fields["is_active"] = category.IsActive
	}
	if len(fields) == 0 {
		return category, nil
	}
	category.UpdatedAt = s.clock.Now()
	fields["updated_at"] = category.UpdatedAt

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.Name != nil {
			clash, err := s.repo.FindByName(ctx, tx, kind, category.Name)
			if err != nil {
				return err
			}
			if clash != nil && clash.ID != category.ID {
				return domain.ErrNameExists
			}
		}
		return s.repo.Update(ctx, tx, kind, category.ID, fields)
	})
	if err != nil {
		return domain.Category{}, err
	}

	s.audit(ctx, "category.updated", kind, category.ID, map[string]any{"fields": keys(fields)})
	return category, nil
}

func (s *Service) Delete(ctx context.Context, kind domain.Kind, id string) error {
	if err := validKind(kind); err != nil {
		return err
	}
	categoryID, err := parseID(id)
	if err != nil {
		return err
	}

	var detached int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.repo.Delete(ctx, tx, kind, categoryID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrNotFound
		}
		detached, err = s.repo.Detach(ctx, tx, kind, categoryID)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("category deleted",
		zap.String("kind", string(kind)),
		zap.String("category_id", categoryID.String()),
		zap.Int64("detached", detached),
	)
	s.audit(ctx, "category.deleted", kind, categoryID, map[string]any{"detached": detached})
	return nil
}

func (s *Service) Ensure(ctx context.Context, kind domain.Kind, id snowflake.ID) error {
	category, err := s.repo.FindByID(ctx, s.db, kind, id)
	if err != nil {
		return err
	}
	if category == nil {
		return domain.ErrUnknown
	}
	return nil
}

func (s *Service) audit(ctx context.Context, action string, kind domain.Kind, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	metadata["kind"] = string(kind)
	targetID := id.String()
	if err := s.auditSvc.AuditLog(ctx, action, "category", &targetID, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func validKind(kind domain.Kind) error {
	if _, ok := domain.ParseKind(string(kind)); !ok {
		return domain.ErrInvalidKind
	}
	return nil
}

func keys(fields map[string]any) []string {
	out := make([]string, 0, len(fields))
	for key := range fields {
		if key != "updated_at" {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
