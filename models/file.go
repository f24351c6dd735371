package models

import "time"

// LandingpageFile records one uploaded asset for an organizer. The index
// document is tracked on LandingpageSettings, never as an asset row.
type LandingpageFile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrganizerID uint      `gorm:"index:idx_org_filename,unique;not null" json:"organizer_id"`
	Filename    string    `gorm:"size:255;index:idx_org_filename,unique;not null" json:"filename"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StartingpageFile records one uploaded asset in the global scope.
type StartingpageFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Filename  string    `gorm:"size:255;uniqueIndex;not null" json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
