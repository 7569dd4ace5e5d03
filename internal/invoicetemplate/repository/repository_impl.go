package repository

import (
	"context"

	"github.com/smallbiznis/villadesk/internal/invoicetemplate/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindTemplate(ctx context.Context, db *gorm.DB, id string) (*domain.Template, error) {
	var items []domain.Template
	if err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) SaveTemplate(ctx context.Context, db *gorm.DB, tmpl *domain.Template) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(templateColumns),
		}).
		Create(tmpl).Error
}

// templateColumns are rewritten on save; created_at keeps the first write.
var templateColumns = []string{
	"show_customer_name", "show_customer_phone", "show_customer_identification",
	"show_villa_code", "show_villa_description", "show_rental_type", "show_reservation_date",
	"show_check_in_time", "show_check_out_time", "show_guests", "show_extra_services",
	"show_payment_method", "show_deposit", "show_logo",
	"policies", "custom_fields", "footer_note", "primary_color", "secondary_color",
	"updated_by", "updated_at",
}

func (r *repo) FindLogo(ctx context.Context, db *gorm.DB, id string) (*domain.Logo, error) {
	var items []domain.Logo
	if err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) SaveLogo(ctx context.Context, db *gorm.DB, logo *domain.Logo) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"filename", "mime_type", "data", "uploaded_by", "uploaded_at"}),
		}).
		Create(logo).Error
}

func (r *repo) DeleteLogo(ctx context.Context, db *gorm.DB, id string) (int64, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Logo{})
	return res.RowsAffected, res.Error
}
