package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ExtraService is a billable add-on offered with a reservation.
type ExtraService struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Description  string          `json:"description,omitempty"`
	DefaultPrice decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"default_price"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
	CreatedBy    string          `gorm:"size:32" json:"created_by"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
}
