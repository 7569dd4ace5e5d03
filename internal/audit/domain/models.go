package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeAdmin    ActorType = "admin"
	ActorTypeEmployee ActorType = "employee"
	ActorTypeSystem   ActorType = "system"
)

// AuditLog is an append-only record of a mutating operation.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorType  string            `gorm:"size:16;not null" json:"actor_type"`
	ActorID    *string           `gorm:"size:32" json:"actor_id,omitempty"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	TargetType string            `gorm:"size:32;not null;index:idx_audit_logs_target" json:"target_type"`
	TargetID   *string           `gorm:"size:64;index:idx_audit_logs_target" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	IPAddress  *string           `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent  *string           `json:"user_agent,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

// ParseActorType accepts the roles that can appear on an entry.
func ParseActorType(raw string) (ActorType, bool) {
	switch t := ActorType(strings.ToLower(strings.TrimSpace(raw))); t {
	case ActorTypeAdmin, ActorTypeEmployee, ActorTypeSystem:
		return t, true
	default:
		return "", false
	}
}

type ListFilter struct {
	Action        string
	TargetType    string
	TargetID      string
	ActorType     ActorType
	ActorID       string
	InvoiceNumber string
	StartAt       *time.Time
	EndAt         *time.Time
	Cursor        *AuditCursor
	Limit         int
}
