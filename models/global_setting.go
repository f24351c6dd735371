package models

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// GlobalSetting is a key/value row for installation-wide plugin flags,
// editable from the global settings panel.
type GlobalSetting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"size:1024" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// SettingEnableForAll enables the landing page feature for every organizer
	// and takes precedence over the individual list when true.
	SettingEnableForAll = "enable_landingpage_for_all_organizers"
	// SettingEnableIndividually holds a comma separated list of organizer ids
	// for which the feature is enabled.
	SettingEnableIndividually = "enable_landingpage_individually"
)

// GetGlobalSetting returns the stored value or the given default when the row is absent.
func GetGlobalSetting(db *gorm.DB, key, def string) string {
	var row GlobalSetting
	if err := db.First(&row, "`key` = ?", key).Error; err != nil {
		return def
	}
	return row.Value
}

// SetGlobalSetting upserts one key/value row.
func SetGlobalSetting(db *gorm.DB, key, value string) error {
	row := GlobalSetting{Key: key, Value: value}
	return db.Save(&row).Error
}

// LandingpageAvailable reports whether the feature is enabled for the
// organizer, either through the blanket flag or the individual list.
func LandingpageAvailable(db *gorm.DB, organizerID uint) bool {
	if GetGlobalSetting(db, SettingEnableForAll, "true") == "true" {
		return true
	}
	raw := GetGlobalSetting(db, SettingEnableIndividually, "")
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			continue
		}
		if uint(id) == organizerID {
			return true
		}
	}
	return false
}
