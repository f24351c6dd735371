package services

import (
	"gorm.io/gorm"

	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/storage"
)

// StartingPageConfig is the desired global homepage configuration submitted
// from the settings panel, optionally together with an upload batch.
type StartingPageConfig struct {
	RedirectEnabled     bool
	RedirectLink        string
	StartingpageEnabled bool
	Files               []UploadFile
}

// ConfigResult reports whether the configuration was accepted and whether
// files were part of the request.
type ConfigResult struct {
	Saved    bool
	Uploaded bool
}

// ApplyStartingPageConfig validates and applies the global starting page
// configuration. The rules are checked in order and the first failing one
// rejects the whole request with no side effects:
//
//  1. redirect and custom starting page are mutually exclusive
//  2. redirect requires a non-empty link
//  3. enabling the starting page while uploading requires index.html in the batch
//  4. enabling the starting page without an upload requires a previously stored index
//
// An accepted request uploads the files (existing ones are overwritten), then
// persists the redirect and starting page flags, each change audited
// separately. Rejections are reported through Saved=false rather than an
// error; the failing rule is logged.
func (s *Service) ApplyStartingPageConfig(cfg StartingPageConfig, actorID uint) (ConfigResult, error) {
	switch {
	case cfg.RedirectEnabled && cfg.StartingpageEnabled:
		s.log.Debugw("starting page config rejected", "rule", "redirect and starting page both enabled")
		return ConfigResult{}, nil
	case cfg.RedirectEnabled && cfg.RedirectLink == "":
		s.log.Debugw("starting page config rejected", "rule", "redirect enabled without link")
		return ConfigResult{}, nil
	case cfg.StartingpageEnabled && len(cfg.Files) > 0 && !containsIndex(cfg.Files):
		s.log.Debugw("starting page config rejected", "rule", "upload without index.html")
		return ConfigResult{}, nil
	case cfg.StartingpageEnabled && len(cfg.Files) == 0:
		settings, err := startingSettings(s.db)
		if err != nil {
			return ConfigResult{}, err
		}
		if !settings.HasIndex() {
			s.log.Debugw("starting page config rejected", "rule", "no stored index document")
			return ConfigResult{}, nil
		}
	}

	if _, err := s.ApplyUpload(storage.GlobalScope, cfg.Files, true, actorID); err != nil {
		return ConfigResult{}, err
	}
	if err := s.setRedirect(cfg.RedirectEnabled, cfg.RedirectLink, actorID); err != nil {
		return ConfigResult{}, err
	}
	if err := s.setStartingPage(cfg.StartingpageEnabled, actorID); err != nil {
		return ConfigResult{}, err
	}

	return ConfigResult{Saved: true, Uploaded: len(cfg.Files) > 0}, nil
}

func containsIndex(files []UploadFile) bool {
	for _, f := range files {
		if f.Name == storage.IndexFilename {
			return true
		}
	}
	return false
}

func (s *Service) setRedirect(enabled bool, link string, actorID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		settings, err := startingSettings(tx)
		if err != nil {
			return err
		}
		settings.RedirectActive = enabled
		settings.RedirectLink = link
		if err := tx.Save(settings).Error; err != nil {
			return err
		}
		status := "not redirecting"
		if enabled {
			status = "redirecting"
		}
		return models.LogAction(tx, "startingpagesettings.redirect_changed", storage.GlobalScope.String(), actorID,
			map[string]string{"new_status": status, "link": link})
	})
}

func (s *Service) setStartingPage(enabled bool, actorID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		settings, err := startingSettings(tx)
		if err != nil {
			return err
		}
		if enabled && !settings.HasIndex() {
			// validated earlier; the guard keeps the invariant under races
			enabled = false
		}
		settings.StartingpageActive = enabled
		if err := tx.Save(settings).Error; err != nil {
			return err
		}
		status := "inactive"
		if enabled {
			status = "active"
		}
		return models.LogAction(tx, "startingpagesettings.status_changed", storage.GlobalScope.String(), actorID,
			map[string]string{"new_status": status})
	})
}
