// Package services contains the page plumbing behind the control panel and
// the public routes: upload reconciliation, activation, deletion, starting
// page configuration and the request-time page selection.
package services

import (
	"errors"
	"io"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/storage"
)

var (
	// ErrNotFound is returned when a named asset or scope does not exist.
	ErrNotFound = errors.New("not found")
)

// UploadFile is one incoming file of an upload batch, decoupled from
// multipart so the reconciler stays testable.
type UploadFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// UploadResult tells the caller which of the four upload outcomes happened:
// saved with nothing to upload, saved and uploaded, saved but duplicated, or
// rejected (the error return).
type UploadResult struct {
	Duplicated bool
	Written    []string
}

// Uploaded reports whether any file actually reached storage.
func (r UploadResult) Uploaded() bool {
	return len(r.Written) > 0
}

// CacheInvalidator drops a scope's rendered page from the page cache. The
// call is synchronous best-effort: implementations must never fail a request.
type CacheInvalidator interface {
	InvalidatePage(scope storage.Scope)
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidatePage(storage.Scope) {}

// Service owns the settings records and file store of both scopes.
type Service struct {
	db    *gorm.DB
	store *storage.Store
	log   *zap.SugaredLogger
	cache CacheInvalidator
}

// New creates a Service. A nil invalidator disables cache invalidation.
func New(db *gorm.DB, store *storage.Store, log *zap.SugaredLogger, cache CacheInvalidator) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &Service{db: db, store: store, log: log, cache: cache}
}

// Store exposes the underlying file store for read paths.
func (s *Service) Store() *storage.Store {
	return s.store
}

// landingSettings get-or-creates the organizer's settings row inside tx.
func landingSettings(tx *gorm.DB, organizerID uint) (*models.LandingpageSettings, error) {
	var settings models.LandingpageSettings
	err := tx.Where(models.LandingpageSettings{OrganizerID: organizerID}).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// startingSettings get-or-creates the singleton starting page row inside tx.
func startingSettings(tx *gorm.DB) (*models.StartingpageSettings, error) {
	var settings models.StartingpageSettings
	err := tx.Where(models.StartingpageSettings{ID: models.StartingpageSettingsID}).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
