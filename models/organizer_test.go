package models

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Organizer{}, &Event{}))
	return db
}

func TestOrganizerSlugDerivedFromName(t *testing.T) {
	db := newTestDB(t)

	organizer := &Organizer{Name: "ACME Live Events"}
	require.NoError(t, db.Create(organizer).Error)
	require.Equal(t, "acme-live-events", organizer.Slug)

	explicit := &Organizer{Slug: "acme", Name: "ACME Live Events"}
	require.NoError(t, db.Create(explicit).Error)
	require.Equal(t, "acme", explicit.Slug)
}

func TestEventSplitByDate(t *testing.T) {
	db := newTestDB(t)
	organizer := &Organizer{Name: "ACME"}
	require.NoError(t, db.Create(organizer).Error)

	now := time.Now()
	for _, e := range []Event{
		{OrganizerID: organizer.ID, Slug: "past", Name: "Past", DateFrom: now.Add(-48 * time.Hour), Live: true, IsPublic: true},
		{OrganizerID: organizer.ID, Slug: "next", Name: "Next", DateFrom: now.Add(48 * time.Hour), Live: true, IsPublic: true},
		{OrganizerID: organizer.ID, Slug: "draft", Name: "Draft", DateFrom: now.Add(72 * time.Hour), Live: false, IsPublic: true},
		{OrganizerID: organizer.ID, Slug: "hidden", Name: "Hidden", DateFrom: now.Add(72 * time.Hour), Live: true, IsPublic: false},
	} {
		e := e
		require.NoError(t, db.Create(&e).Error)
	}

	upcoming, err := UpcomingEventsFor(db, organizer.ID, now)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	require.Equal(t, "Next", upcoming[0].Name)

	previous, err := PreviousEventsFor(db, organizer.ID, now)
	require.NoError(t, err)
	require.Len(t, previous, 1)
	require.Equal(t, "Past", previous[0].Name)
}
