// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/actor"
)

// User represents a staff account.
type User struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	Username            string       `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email               string       `gorm:"size:255;not null;uniqueIndex" json:"email"`
	FullName            string       `gorm:"not null" json:"full_name"`
	Role                actor.Role   `gorm:"size:16;not null" json:"role"`
	PasswordHash        string       `gorm:"type:text;not null" json:"-"`
	IsActive            bool         `gorm:"not null" json:"is_active"`
	LastPasswordChanged *time.Time   `json:"last_password_changed,omitempty"`
	CreatedAt           time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Actor returns the identity services see for this user.
func (u User) Actor() actor.Actor {
	return actor.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
