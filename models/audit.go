package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is the durable history of every settings and file mutation, used
// for compliance and debugging. One row per logged action.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   string    `gorm:"size:36;uniqueIndex" json:"event_id"`
	Action    string    `gorm:"size:128;index;not null" json:"action"`
	Scope     string    `gorm:"size:64;index" json:"scope"` // "organizer:<id>" or "global"
	UserID    uint      `gorm:"index" json:"user_id"`
	Data      string    `gorm:"type:text" json:"data"` // JSON payload, may be empty
	CreatedAt time.Time `json:"created_at"`
}

// LogAction writes one audit row inside the given transaction. Marshal errors
// on the payload are impossible for the map types we pass, so data is dropped
// silently if they ever occur.
func LogAction(tx *gorm.DB, action, scope string, userID uint, data map[string]string) error {
	var payload string
	if len(data) > 0 {
		if b, err := json.Marshal(data); err == nil {
			payload = string(b)
		}
	}
	entry := AuditLog{
		EventID: uuid.NewString(),
		Action:  action,
		Scope:   scope,
		UserID:  userID,
		Data:    payload,
	}
	return tx.Create(&entry).Error
}
