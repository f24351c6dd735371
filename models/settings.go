package models

import "time"

// LandingpageSettings holds the per-organizer landing page state, created
// lazily through get-or-create on first access.
//
// Invariant: Active may only be true while IndexName is set. The reconciler
// refuses to persist a violation and deleting the index clears Active.
type LandingpageSettings struct {
	OrganizerID uint      `gorm:"primaryKey" json:"organizer_id"`
	Active      bool      `gorm:"default:false" json:"active"`
	IndexName   string    `gorm:"size:255" json:"index_name"` // empty means no index document uploaded
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasIndex reports whether an index document has been uploaded for this scope.
func (s *LandingpageSettings) HasIndex() bool {
	return s.IndexName != ""
}

// StartingpageSettingsID is the fixed primary key of the singleton row.
const StartingpageSettingsID = 1

// StartingpageSettings is the global singleton controlling the homepage.
// StartingpageActive and RedirectActive are mutually exclusive.
type StartingpageSettings struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	StartingpageActive bool      `gorm:"default:false" json:"startingpage_active"`
	IndexName          string    `gorm:"size:255" json:"index_name"`
	RedirectActive     bool      `gorm:"default:false" json:"redirect_active"`
	RedirectLink       string    `gorm:"size:1024" json:"redirect_link"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// HasIndex reports whether a global index document has been uploaded.
func (s *StartingpageSettings) HasIndex() bool {
	return s.IndexName != ""
}
