package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/storage"
)

// ApplyUpload reconciles a batch of uploaded files against the scope's stored
// state. Duplicate detection covers the index document and asset filenames;
// when a duplicate is found and override is off, nothing is written and the
// result reports Duplicated. A filename outside the allowed character set
// fails the whole batch before any write.
//
// The settings and asset bookkeeping runs in one transaction per scope so a
// concurrent activation cannot observe a half-applied upload. File content is
// written atomically per filename (temp + rename), matching the last-write-wins
// model for concurrent uploads.
func (s *Service) ApplyUpload(scope storage.Scope, files []UploadFile, override bool, actorID uint) (UploadResult, error) {
	var res UploadResult
	if len(files) == 0 {
		return res, nil
	}

	for _, f := range files {
		if !storage.ValidFilename(f.Name) {
			return UploadResult{}, storage.ErrInvalidFilename
		}
	}

	indexWritten := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		hasIndex, existing, err := s.scopeState(tx, scope)
		if err != nil {
			return err
		}

		for _, f := range files {
			if f.Name == storage.IndexFilename {
				res.Duplicated = res.Duplicated || hasIndex
			} else if existing[f.Name] {
				res.Duplicated = true
			}
		}
		if res.Duplicated && !override {
			return nil
		}

		for _, f := range files {
			if f.Name == storage.IndexFilename {
				if err := s.writeIndex(tx, scope, f, actorID); err != nil {
					return err
				}
				indexWritten = true
			} else {
				if err := s.writeAsset(tx, scope, f, actorID); err != nil {
					return err
				}
			}
			res.Written = append(res.Written, f.Name)
		}
		return nil
	})
	if err != nil {
		return UploadResult{}, err
	}

	if indexWritten {
		s.cache.InvalidatePage(scope)
	}
	return res, nil
}

func (s *Service) writeIndex(tx *gorm.DB, scope storage.Scope, f UploadFile, actorID uint) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	_, err = s.store.SaveIndex(scope, rc)
	rc.Close()
	if err != nil {
		return err
	}

	if scope.IsGlobal() {
		settings, err := startingSettings(tx)
		if err != nil {
			return err
		}
		settings.IndexName = storage.IndexFilename
		if err := tx.Save(settings).Error; err != nil {
			return err
		}
		return models.LogAction(tx, "startingpagesettings.index_updated", scope.String(), actorID, nil)
	}

	settings, err := landingSettings(tx, scope.OrganizerID)
	if err != nil {
		return err
	}
	settings.IndexName = storage.IndexFilename
	if err := tx.Save(settings).Error; err != nil {
		return err
	}
	return models.LogAction(tx, "landingpagesettings.index_updated", scope.String(), actorID, nil)
}

func (s *Service) writeAsset(tx *gorm.DB, scope storage.Scope, f UploadFile, actorID uint) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	size, err := s.store.SaveAsset(scope, f.Name, rc)
	rc.Close()
	if err != nil {
		return err
	}

	if scope.IsGlobal() {
		var row models.StartingpageFile
		if err := tx.Where(models.StartingpageFile{Filename: f.Name}).FirstOrCreate(&row).Error; err != nil {
			return err
		}
		row.Size = size
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		return models.LogAction(tx, "startingpagefile.updated", scope.String(), actorID, map[string]string{"file": f.Name})
	}

	var row models.LandingpageFile
	if err := tx.Where(models.LandingpageFile{OrganizerID: scope.OrganizerID, Filename: f.Name}).FirstOrCreate(&row).Error; err != nil {
		return err
	}
	row.Size = size
	if err := tx.Save(&row).Error; err != nil {
		return err
	}
	return models.LogAction(tx, "landingpagefile.updated", scope.String(), actorID, map[string]string{"file": f.Name})
}

// scopeState returns whether the scope already has an index document and the
// set of existing asset filenames, get-or-creating the settings row.
func (s *Service) scopeState(tx *gorm.DB, scope storage.Scope) (bool, map[string]bool, error) {
	existing := map[string]bool{}

	if scope.IsGlobal() {
		settings, err := startingSettings(tx)
		if err != nil {
			return false, nil, err
		}
		var rows []models.StartingpageFile
		if err := tx.Find(&rows).Error; err != nil {
			return false, nil, err
		}
		for _, r := range rows {
			existing[r.Filename] = true
		}
		return settings.HasIndex(), existing, nil
	}

	settings, err := landingSettings(tx, scope.OrganizerID)
	if err != nil {
		return false, nil, err
	}
	var rows []models.LandingpageFile
	if err := tx.Where("organizer_id = ?", scope.OrganizerID).Find(&rows).Error; err != nil {
		return false, nil, err
	}
	for _, r := range rows {
		existing[r.Filename] = true
	}
	return settings.HasIndex(), existing, nil
}

// SetActive persists the organizer's landing page flag. Activation without an
// index document is coerced to inactive: nothing is persisted and applied is
// false so the caller can report the failure. The read-modify-write runs in
// one transaction to close the lost-update race with a concurrent upload.
func (s *Service) SetActive(organizerID uint, desired bool, actorID uint) (bool, error) {
	applied := false
	scope := storage.Scope{OrganizerID: organizerID}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		settings, err := landingSettings(tx, organizerID)
		if err != nil {
			return err
		}
		if desired && !settings.HasIndex() {
			return nil
		}
		settings.Active = desired
		if err := tx.Save(settings).Error; err != nil {
			return err
		}
		status := "inactive"
		if desired {
			status = "active"
		}
		if err := models.LogAction(tx, "landingpagesettings.status_changed", scope.String(), actorID,
			map[string]string{"new_status": status}); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// DeleteFile removes one stored file. The reserved index name deactivates the
// scope as a side effect; deleting an absent index is a no-op. Deleting an
// unknown asset returns ErrNotFound, which callers surface fail-soft.
func (s *Service) DeleteFile(scope storage.Scope, filename string, actorID uint) error {
	if filename == storage.IndexFilename {
		return s.deleteIndex(scope, actorID)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if scope.IsGlobal() {
			var row models.StartingpageFile
			if err := tx.Where("filename = ?", filename).First(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			if err := tx.Delete(&row).Error; err != nil {
				return err
			}
			if err := models.LogAction(tx, "startingpagefile.deleted", scope.String(), actorID,
				map[string]string{"file": filename}); err != nil {
				return err
			}
		} else {
			var row models.LandingpageFile
			if err := tx.Where("organizer_id = ? AND filename = ?", scope.OrganizerID, filename).First(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			if err := tx.Delete(&row).Error; err != nil {
				return err
			}
			if err := models.LogAction(tx, "landingpagefile.deleted", scope.String(), actorID,
				map[string]string{"file": filename}); err != nil {
				return err
			}
		}
		return s.store.DeleteAsset(scope, filename)
	})
}

func (s *Service) deleteIndex(scope storage.Scope, actorID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if scope.IsGlobal() {
			settings, err := startingSettings(tx)
			if err != nil {
				return err
			}
			if settings.HasIndex() {
				if err := models.LogAction(tx, "startingpagesettings.index_deleted", scope.String(), actorID, nil); err != nil {
					return err
				}
			}
			settings.IndexName = ""
			settings.StartingpageActive = false
			if err := tx.Save(settings).Error; err != nil {
				return err
			}
		} else {
			settings, err := landingSettings(tx, scope.OrganizerID)
			if err != nil {
				return err
			}
			if settings.HasIndex() {
				if err := models.LogAction(tx, "landingpagesettings.index_deleted", scope.String(), actorID, nil); err != nil {
					return err
				}
			}
			settings.IndexName = ""
			settings.Active = false
			if err := tx.Save(settings).Error; err != nil {
				return err
			}
		}
		return s.store.DeleteIndex(scope)
	})
	if err != nil {
		return err
	}
	s.cache.InvalidatePage(scope)
	return nil
}

// DeleteAll removes every asset and the index document of the scope and
// deactivates it. Invoking it on an empty scope succeeds as a no-op.
func (s *Service) DeleteAll(scope storage.Scope, actorID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if scope.IsGlobal() {
			var rows []models.StartingpageFile
			if err := tx.Find(&rows).Error; err != nil {
				return err
			}
			for _, row := range rows {
				if err := models.LogAction(tx, "startingpagefile.deleted", scope.String(), actorID,
					map[string]string{"file": row.Filename}); err != nil {
					return err
				}
			}
			if len(rows) > 0 {
				if err := tx.Where("1 = 1").Delete(&models.StartingpageFile{}).Error; err != nil {
					return err
				}
			}
			settings, err := startingSettings(tx)
			if err != nil {
				return err
			}
			if settings.HasIndex() {
				if err := models.LogAction(tx, "startingpagesettings.index_deleted", scope.String(), actorID, nil); err != nil {
					return err
				}
			}
			settings.IndexName = ""
			settings.StartingpageActive = false
			if err := tx.Save(settings).Error; err != nil {
				return err
			}
		} else {
			var rows []models.LandingpageFile
			if err := tx.Where("organizer_id = ?", scope.OrganizerID).Find(&rows).Error; err != nil {
				return err
			}
			for _, row := range rows {
				if err := models.LogAction(tx, "landingpagefile.deleted", scope.String(), actorID,
					map[string]string{"file": row.Filename}); err != nil {
					return err
				}
			}
			if len(rows) > 0 {
				if err := tx.Where("organizer_id = ?", scope.OrganizerID).Delete(&models.LandingpageFile{}).Error; err != nil {
					return err
				}
			}
			settings, err := landingSettings(tx, scope.OrganizerID)
			if err != nil {
				return err
			}
			if settings.HasIndex() {
				if err := models.LogAction(tx, "landingpagesettings.index_deleted", scope.String(), actorID, nil); err != nil {
					return err
				}
			}
			settings.IndexName = ""
			settings.Active = false
			if err := tx.Save(settings).Error; err != nil {
				return err
			}
		}
		return s.store.DeleteAll(scope)
	})
	if err != nil {
		return err
	}
	s.cache.InvalidatePage(scope)
	return nil
}
