package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Customer struct {
	ID                     snowflake.ID `gorm:"primaryKey" json:"id"`
	Name                   string       `gorm:"not null;index" json:"name"`
	Phone                  string       `gorm:"not null" json:"phone"`
	Email                  string       `json:"email,omitempty"`
	IdentificationDocument string       `json:"identification_document,omitempty"`
	Address                string       `json:"address,omitempty"`
	Notes                  string       `json:"notes,omitempty"`
	CreatedBy              string       `gorm:"size:32" json:"created_by"`
	CreatedAt              time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time    `gorm:"not null" json:"updated_at"`
}
