package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/utils"
)

// ContextOrganizerKey stores the resolved organizer model inside Gin context.
const ContextOrganizerKey = "organizer"

// OrganizerPermissionRequired resolves the organizer slug route parameter and
// checks that the authenticated user holds the capability on that organizer.
// Staff users pass unconditionally. Must run after AuthRequired.
func OrganizerPermissionRequired(db *gorm.DB, capability string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		slug := ctx.Param("organizer")
		var organizer models.Organizer
		if err := db.First(&organizer, "slug = ?", slug).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Error(ctx, http.StatusNotFound, 40402, "the selected organizer was not found")
			} else {
				utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to resolve organizer")
			}
			ctx.Abort()
			return
		}
		ctx.Set(ContextOrganizerKey, &organizer)

		userID, ok := GetUserID(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
			ctx.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
			ctx.Abort()
			return
		}
		if user.IsStaff {
			ctx.Next()
			return
		}

		var count int64
		err := db.Model(&models.OrganizerPermission{}).
			Where("user_id = ? AND organizer_id = ? AND capability = ?", userID, organizer.ID, capability).
			Count(&count).Error
		if err != nil || count == 0 {
			utils.Error(ctx, http.StatusForbidden, 40301, "permission denied")
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}

// AdministratorRequired restricts a route to staff users. Must run after AuthRequired.
func AdministratorRequired(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, ok := GetUserID(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
			ctx.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil || !user.IsStaff {
			utils.Error(ctx, http.StatusForbidden, 40302, "administrator privilege required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// OrganizerFromContext returns the organizer resolved by OrganizerPermissionRequired.
func OrganizerFromContext(ctx *gin.Context) (*models.Organizer, bool) {
	v, ok := ctx.Get(ContextOrganizerKey)
	if !ok {
		return nil, false
	}
	organizer, ok := v.(*models.Organizer)
	return organizer, ok
}
