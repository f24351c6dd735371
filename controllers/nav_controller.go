package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventra/landingpages/middleware"
	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/services"
	"github.com/eventra/landingpages/utils"
)

// NavController contributes the control panel navigation entries for the
// authenticated user: one landing page entry per organizer the user may
// manage (feature availability permitting), plus the global entries for staff.
type NavController struct {
	db  *gorm.DB
	svc *services.Service
}

// NewNavController creates a new NavController instance.
func NewNavController(db *gorm.DB, svc *services.Service) *NavController {
	return &NavController{db: db, svc: svc}
}

type navEntry struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Entries lists the navigation entries visible to the requesting user.
func (n *NavController) Entries(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	var user models.User
	if err := n.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	organizers, err := n.manageableOrganizers(&user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load navigation")
		return
	}

	entries := []navEntry{}
	for _, organizer := range organizers {
		if !n.svc.PluginAvailable(organizer.ID) {
			continue
		}
		entries = append(entries, navEntry{
			Label: organizer.Name,
			URL:   "/control/organizer/" + organizer.Slug + "/landingpage/",
		})
	}
	if user.IsStaff {
		entries = append(entries,
			navEntry{Label: "Starting page", URL: "/control/startingpage_settings/"},
			navEntry{Label: "Landing page settings", URL: "/control/global_settings/"},
		)
	}

	utils.Success(ctx, gin.H{"entries": entries})
}

func (n *NavController) manageableOrganizers(user *models.User) ([]models.Organizer, error) {
	var organizers []models.Organizer
	if user.IsStaff {
		err := n.db.Order("name ASC").Find(&organizers).Error
		return organizers, err
	}
	err := n.db.
		Joins("JOIN organizer_permissions ON organizer_permissions.organizer_id = organizers.id").
		Where("organizer_permissions.user_id = ? AND organizer_permissions.capability = ?",
			user.ID, models.CanChangeOrganizerSettings).
		Order("name ASC").
		Find(&organizers).Error
	return organizers, err
}
