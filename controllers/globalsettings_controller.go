package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventra/landingpages/middleware"
	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/storage"
	"github.com/eventra/landingpages/utils"
)

// GlobalSettingsController handles the installation-wide feature flags.
// Administrator only.
type GlobalSettingsController struct {
	db *gorm.DB
}

// NewGlobalSettingsController creates a new GlobalSettingsController instance.
func NewGlobalSettingsController(db *gorm.DB) *GlobalSettingsController {
	return &GlobalSettingsController{db: db}
}

type globalSettingsRequest struct {
	EnableForAll          bool   `json:"enable_landingpage_for_all_organizers"`
	EnableIndividuallyFor []uint `json:"enable_landingpage_individually"`
}

// Settings returns the current global flags.
func (g *GlobalSettingsController) Settings(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"enable_landingpage_for_all_organizers": models.GetGlobalSetting(g.db, models.SettingEnableForAll, "true") == "true",
		"enable_landingpage_individually":       parseIDList(models.GetGlobalSetting(g.db, models.SettingEnableIndividually, "")),
	})
}

// Update stores the global flags and audits the change.
func (g *GlobalSettingsController) Update(ctx *gin.Context) {
	var req globalSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request body")
		return
	}
	actorID, _ := middleware.GetUserID(ctx)

	err := g.db.Transaction(func(tx *gorm.DB) error {
		if err := models.SetGlobalSetting(tx, models.SettingEnableForAll, strconv.FormatBool(req.EnableForAll)); err != nil {
			return err
		}
		ids := formatIDList(req.EnableIndividuallyFor)
		if err := models.SetGlobalSetting(tx, models.SettingEnableIndividually, ids); err != nil {
			return err
		}
		return models.LogAction(tx, "globalsettings.changed", storage.GlobalScope.String(), actorID,
			map[string]string{
				"enable_for_all":      strconv.FormatBool(req.EnableForAll),
				"enable_individually": ids,
			})
	})
	if err != nil {
		utils.Sugar.Errorw("global settings update failed", "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to save settings")
		return
	}

	utils.Success(ctx, gin.H{"saved": true})
}

func parseIDList(raw string) []uint {
	ids := []uint{}
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

func formatIDList(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}
