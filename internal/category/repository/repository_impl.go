package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/category/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, kind domain.Kind, category *domain.Category) error {
	return db.WithContext(ctx).Table(kind.Table()).Create(category).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, kind domain.Kind, id snowflake.ID) (*domain.Category, error) {
	var items []domain.Category
	err := db.WithContext(ctx).Table(kind.Table()).Where("id = ?", id).Limit(1).Find(&items).Error
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, kind domain.Kind, name string) (*domain.Category, error) {
	var items []domain.Category
	err := db.WithContext(ctx).Table(kind.Table()).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Limit(1).
		Find(&items).Error
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, kind domain.Kind, activeOnly bool) ([]domain.Category, error) {
	stmt := db.WithContext(ctx).Table(kind.Table())
	if activeOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	var items []domain.Category
	if err := stmt.Order("LOWER(name) ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, kind domain.Kind, id snowflake.ID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).Table(kind.Table()).Where("id = ?", id).Updates(fields).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, kind domain.Kind, id snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Table(kind.Table()).Where("id = ?", id).Delete(&domain.Category{})
	return res.RowsAffected, res.Error
}

func (r *repo) Detach(ctx context.Context, db *gorm.DB, kind domain.Kind, id snowflake.ID) (int64, error) {
	table, column := kind.Reference()
	res := db.WithContext(ctx).Table(table).Where(column+" = ?", id).Update(column, nil)
	return res.RowsAffected, res.Error
}
