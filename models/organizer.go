package models

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Organizer is the host application's organizer entity, mirrored here with the
// fields this service needs: a unique slug for routing and a description shown
// on the default organizer page.
type Organizer struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Slug        string         `gorm:"size:64;not null;uniqueIndex" json:"slug"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate derives a URL-safe slug from the name when none was given.
func (o *Organizer) BeforeCreate(tx *gorm.DB) error {
	if o.Slug == "" {
		o.Slug = slug.Make(o.Name)
	}
	return nil
}

// Event is the host's event entity. Landing pages inject the organizer's live
// public events split into upcoming and previous by DateFrom.
type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrganizerID uint      `gorm:"index;not null" json:"organizer_id"`
	Slug        string    `gorm:"size:64;not null" json:"slug"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	DateFrom    time.Time `gorm:"index" json:"date_from"`
	Live        bool      `gorm:"default:false" json:"live"`
	IsPublic    bool      `gorm:"default:false" json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpcomingEventsFor returns the organizer's live public events starting after now.
func UpcomingEventsFor(db *gorm.DB, organizerID uint, now time.Time) ([]Event, error) {
	var events []Event
	err := db.Where("organizer_id = ? AND date_from > ? AND live = ? AND is_public = ?",
		organizerID, now, true, true).
		Order("date_from ASC").
		Find(&events).Error
	return events, err
}

// PreviousEventsFor returns the organizer's live public events that already started.
func PreviousEventsFor(db *gorm.DB, organizerID uint, now time.Time) ([]Event, error) {
	var events []Event
	err := db.Where("organizer_id = ? AND date_from <= ? AND live = ? AND is_public = ?",
		organizerID, now, true, true).
		Order("date_from DESC").
		Find(&events).Error
	return events, err
}
