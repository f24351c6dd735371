package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventra/landingpages/middleware"
	"github.com/eventra/landingpages/services"
	"github.com/eventra/landingpages/storage"
	"github.com/eventra/landingpages/utils"
)

// StartingpageController handles the global starting page settings endpoints.
// All of them require administrator rights.
type StartingpageController struct {
	svc *services.Service
}

// NewStartingpageController creates a new StartingpageController instance.
func NewStartingpageController(svc *services.Service) *StartingpageController {
	return &StartingpageController{svc: svc}
}

// Settings returns the current starting page configuration and stored files.
// A starting page flag set without a stored index document is reported as off.
func (s *StartingpageController) Settings(ctx *gin.Context) {
	settings, err := s.svc.StartingSettings()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load settings")
		return
	}
	files, err := s.svc.FileInformation(storage.GlobalScope)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list files")
		return
	}

	utils.Success(ctx, gin.H{
		"startingpage_active": settings.StartingpageActive && settings.HasIndex(),
		"has_index":           settings.HasIndex(),
		"redirect_active":     settings.RedirectActive,
		"redirect_link":       settings.RedirectLink,
		"files":               files,
	})
}

// Update applies a submitted starting page configuration, optionally with an
// upload batch. Invalid combinations come back as saved=false.
func (s *StartingpageController) Update(ctx *gin.Context) {
	actorID, _ := middleware.GetUserID(ctx)

	form, err := ctx.MultipartForm()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid multipart form")
		return
	}
	files, err := uploadFiles(form.File["file_field"])
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, err.Error())
		return
	}

	cfg := services.StartingPageConfig{
		RedirectEnabled:     formBool(ctx, "enable_redirect"),
		RedirectLink:        ctx.PostForm("redirect_link"),
		StartingpageEnabled: formBool(ctx, "use_startingpage"),
		Files:               files,
	}

	res, err := s.svc.ApplyStartingPageConfig(cfg, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFilename) {
			utils.Error(ctx, http.StatusBadRequest, 40022, err.Error())
			return
		}
		utils.Sugar.Errorw("starting page config failed", "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to save settings")
		return
	}

	utils.Success(ctx, gin.H{
		"saved":    res.Saved,
		"uploaded": res.Uploaded,
	})
}

// DeleteFile removes one stored starting page file. Fail-soft like the
// organizer-scoped variant.
func (s *StartingpageController) DeleteFile(ctx *gin.Context) {
	actorID, _ := middleware.GetUserID(ctx)
	filename := ctx.Param("filename")

	if err := s.svc.DeleteFile(storage.GlobalScope, filename, actorID); err != nil {
		utils.Sugar.Warnw("starting page file deletion failed", "file", filename, "err", err)
		utils.Success(ctx, gin.H{"deleted": false, "message": "deletion failed"})
		return
	}
	utils.Success(ctx, gin.H{"deleted": true, "message": "successfully deleted"})
}

// DeleteAll removes every stored starting page file and deactivates the page.
func (s *StartingpageController) DeleteAll(ctx *gin.Context) {
	actorID, _ := middleware.GetUserID(ctx)

	if err := s.svc.DeleteAll(storage.GlobalScope, actorID); err != nil {
		utils.Sugar.Warnw("starting page delete-all failed", "err", err)
		utils.Success(ctx, gin.H{"deleted": false, "message": "deletion failed"})
		return
	}
	utils.Success(ctx, gin.H{"deleted": true, "message": "successfully deleted"})
}
