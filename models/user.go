package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a control-panel user. Passwords are stored as bcrypt hashes only.
// IsStaff marks site administrators; organizer-level capabilities come from
// OrganizerPermission rows.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string         `gorm:"size:255" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	IsStaff      bool           `gorm:"default:false" json:"is_staff"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// OrganizerPermission grants one user a named capability on one organizer.
// Mirrors the host's team permission model, which this service only consults.
type OrganizerPermission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index:idx_org_perm,unique;not null" json:"user_id"`
	OrganizerID uint      `gorm:"index:idx_org_perm,unique;not null" json:"organizer_id"`
	Capability  string    `gorm:"size:64;index:idx_org_perm,unique;not null" json:"capability"`
	CreatedAt   time.Time `json:"created_at"`
}

// CanChangeOrganizerSettings is the capability required by every
// organizer-scoped control endpoint.
const CanChangeOrganizerSettings = "can_change_organizer_settings"
