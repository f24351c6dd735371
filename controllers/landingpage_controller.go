package controllers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventra/landingpages/middleware"
	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/services"
	"github.com/eventra/landingpages/storage"
	"github.com/eventra/landingpages/utils"
)

// maxUploadSize bounds a single uploaded file.
const maxUploadSize = 50 * 1024 * 1024

// LandingpageController handles the organizer-scoped settings endpoints.
type LandingpageController struct {
	db  *gorm.DB
	svc *services.Service
}

// NewLandingpageController creates a new LandingpageController instance.
func NewLandingpageController(db *gorm.DB, svc *services.Service) *LandingpageController {
	return &LandingpageController{db: db, svc: svc}
}

// Settings returns the organizer's landing page settings and stored files.
func (l *LandingpageController) Settings(ctx *gin.Context) {
	organizer, ok := l.availableOrganizer(ctx)
	if !ok {
		return
	}
	scope := storage.Scope{OrganizerID: organizer.ID}

	settings, err := l.svc.LandingSettings(organizer.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load settings")
		return
	}
	files, err := l.svc.FileInformation(scope)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to list files")
		return
	}

	utils.Success(ctx, gin.H{
		"organizer": organizer.Slug,
		"active":    settings.Active,
		"has_index": settings.HasIndex(),
		"files":     files,
	})
}

// Update applies an upload batch and the active flag in one request, then
// reports exactly one of: saved without files, saved and uploaded, saved but
// duplicated, or a validation rejection.
func (l *LandingpageController) Update(ctx *gin.Context) {
	organizer, ok := l.availableOrganizer(ctx)
	if !ok {
		return
	}
	actorID, _ := middleware.GetUserID(ctx)
	scope := storage.Scope{OrganizerID: organizer.ID}

	form, err := ctx.MultipartForm()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid multipart form")
		return
	}
	files, err := uploadFiles(form.File["file_field"])
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, err.Error())
		return
	}
	override := formBool(ctx, "override_files")
	desiredActive := formBool(ctx, "active")

	res, err := l.svc.ApplyUpload(scope, files, override, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFilename) {
			utils.Error(ctx, http.StatusBadRequest, 40012, err.Error())
			return
		}
		utils.Sugar.Errorw("landing page upload failed", "organizer", organizer.Slug, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50012, "upload failed")
		return
	}

	applied, err := l.svc.SetActive(organizer.ID, desiredActive, actorID)
	if err != nil {
		utils.Sugar.Errorw("landing page activation failed", "organizer", organizer.Slug, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to save settings")
		return
	}

	utils.Success(ctx, gin.H{
		"saved":      true,
		"uploaded":   res.Uploaded(),
		"duplicated": res.Duplicated && !override,
		"failed":     desiredActive && !applied,
	})
}

// DeleteFile removes one asset or the index document. Fail-soft: any failure
// is logged and reported as a generic message instead of an error page.
func (l *LandingpageController) DeleteFile(ctx *gin.Context) {
	organizer, ok := l.availableOrganizer(ctx)
	if !ok {
		return
	}
	actorID, _ := middleware.GetUserID(ctx)
	scope := storage.Scope{OrganizerID: organizer.ID}
	filename := ctx.Param("filename")

	if err := l.svc.DeleteFile(scope, filename, actorID); err != nil {
		utils.Sugar.Warnw("landing page file deletion failed",
			"organizer", organizer.Slug, "file", filename, "err", err)
		utils.Success(ctx, gin.H{"deleted": false, "message": "deletion failed"})
		return
	}
	utils.Success(ctx, gin.H{"deleted": true, "message": "successfully deleted"})
}

// DeleteAll removes every stored file of the organizer and deactivates the page.
func (l *LandingpageController) DeleteAll(ctx *gin.Context) {
	organizer, ok := l.availableOrganizer(ctx)
	if !ok {
		return
	}
	actorID, _ := middleware.GetUserID(ctx)
	scope := storage.Scope{OrganizerID: organizer.ID}

	if err := l.svc.DeleteAll(scope, actorID); err != nil {
		utils.Sugar.Warnw("landing page delete-all failed", "organizer", organizer.Slug, "err", err)
		utils.Success(ctx, gin.H{"deleted": false, "message": "deletion failed"})
		return
	}
	utils.Success(ctx, gin.H{"deleted": true, "message": "successfully deleted"})
}

// availableOrganizer returns the resolved organizer when the feature is
// enabled for it; otherwise it answers 404, like an unknown page.
func (l *LandingpageController) availableOrganizer(ctx *gin.Context) (*models.Organizer, bool) {
	organizer, ok := middleware.OrganizerFromContext(ctx)
	if !ok {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "organizer not resolved")
		return nil, false
	}
	if !l.svc.PluginAvailable(organizer.ID) {
		utils.Error(ctx, http.StatusNotFound, 40403, "this page is unavailable for the selected organizer")
		return nil, false
	}
	return organizer, true
}

// uploadFiles adapts multipart headers into the reconciler's upload type.
func uploadFiles(headers []*multipart.FileHeader) ([]services.UploadFile, error) {
	var files []services.UploadFile
	for _, fh := range headers {
		if fh.Size > maxUploadSize {
			return nil, errors.New("file size exceeds 50MB")
		}
		header := fh
		files = append(files, services.UploadFile{
			Name: filepath.Base(header.Filename),
			Size: header.Size,
			Open: func() (io.ReadCloser, error) {
				return header.Open()
			},
		})
	}
	return files, nil
}

func formBool(ctx *gin.Context, field string) bool {
	switch ctx.PostForm(field) {
	case "true", "on", "1":
		return true
	}
	return false
}
