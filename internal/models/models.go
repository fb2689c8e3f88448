// Package models contains the system tables of the reference backend:
// admin users and the audit trail. Entity records themselves live in
// schema-driven data_* tables managed by internal/store.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values for admin users.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// User is a dashboard user.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string     `json:"-" gorm:"size:255"`
	FirstName    string     `json:"first_name" gorm:"size:100"`
	LastName     string     `json:"last_name" gorm:"size:100"`
	Role         string     `json:"role" gorm:"size:30;default:admin"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate assigns the uuid primary key. The default-from-database
// approach needs uuid-ossp; generating in Go works on every dialect.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// AuditLog records every write against an entity record.
type AuditLog struct {
	ID            uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        *uuid.UUID  `json:"user_id" gorm:"type:uuid"`
	EntityCode    string      `json:"entity_code" gorm:"size:50;index"`
	RecordUUID    string      `json:"record_uuid" gorm:"size:36;index"`
	Action        string      `json:"action" gorm:"not null;size:30"`
	OldValues     JSONB       `json:"old_values"`
	NewValues     JSONB       `json:"new_values"`
	ChangedFields StringArray `json:"changed_fields"`
	CreatedAt     time.Time   `json:"created_at" gorm:"index"`
}

// BeforeCreate assigns the uuid primary key.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
