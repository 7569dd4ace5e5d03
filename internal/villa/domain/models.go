package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type RentalType string

const (
	RentalShortStay RentalType = "short_stay"
	RentalOvernight RentalType = "overnight"
	RentalEvent     RentalType = "event"
)

func ParseRentalType(raw string) (RentalType, bool) {
	switch RentalType(strings.ToLower(strings.TrimSpace(raw))) {
	case RentalShortStay, "":
		return RentalShortStay, true
	case RentalOvernight:
		return RentalOvernight, true
	case RentalEvent:
		return RentalEvent, true
	default:
		return "", false
	}
}

type Villa struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	Code         string        `gorm:"size:64;not null;uniqueIndex" json:"code"`
	Name         string        `gorm:"not null" json:"name"`
	Description  string        `json:"description,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	CategoryID   *snowflake.ID `gorm:"index" json:"category_id,omitempty"`
	CheckInTime  string        `gorm:"size:16;not null" json:"default_check_in_time"`
	CheckOutTime string        `gorm:"size:16;not null" json:"default_check_out_time"`

	DefaultPriceShortStay decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"default_price_short_stay"`
	DefaultPriceOvernight decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"default_price_overnight"`
	DefaultPriceEvent     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"default_price_event"`
	OwnerPriceShortStay   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"owner_price_short_stay"`
	OwnerPriceOvernight   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"owner_price_overnight"`
	OwnerPriceEvent       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"owner_price_event"`

	MaxGuests int                        `gorm:"not null" json:"max_guests"`
	Amenities datatypes.JSONSlice[string] `json:"amenities"`
	IsActive  bool                       `gorm:"not null" json:"is_active"`
	CreatedBy string                     `gorm:"size:32" json:"created_by"`
	CreatedAt time.Time                  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time                  `gorm:"not null" json:"updated_at"`
}

// Prices returns the guest price and the owner's share for a rental type.
func (v Villa) Prices(rt RentalType) (decimal.Decimal, decimal.Decimal) {
	switch rt {
	case RentalOvernight:
		return v.DefaultPriceOvernight, v.OwnerPriceOvernight
	case RentalEvent:
		return v.DefaultPriceEvent, v.OwnerPriceEvent
	default:
		return v.DefaultPriceShortStay, v.OwnerPriceShortStay
	}
}
