package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventra/landingpages/config"
	"github.com/eventra/landingpages/controllers"
	"github.com/eventra/landingpages/middleware"
	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/services"
	"github.com/eventra/landingpages/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, svc *services.Service) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Uploaded assets are served straight from the media root.
	r.Static("/media", cfg.MediaDir)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	presaleController := controllers.NewPresaleController(db, svc)
	landingController := controllers.NewLandingpageController(db, svc)
	startingController := controllers.NewStartingpageController(svc)
	globalController := controllers.NewGlobalSettingsController(db)
	navController := controllers.NewNavController(db, svc)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	control := r.Group("/control")
	control.Use(middleware.RateLimitMiddleware(), middleware.AuthRequired())
	control.GET("/nav/", navController.Entries)

	organizer := control.Group("/organizer/:organizer/landingpage")
	organizer.Use(middleware.OrganizerPermissionRequired(db, models.CanChangeOrganizerSettings))
	organizer.GET("/", landingController.Settings)
	organizer.POST("/", landingController.Update)
	organizer.POST("/delete_files/:filename/", landingController.DeleteFile)
	organizer.POST("/delete_all/", landingController.DeleteAll)

	starting := control.Group("/startingpage_settings")
	starting.Use(middleware.AdministratorRequired(db))
	starting.GET("/", startingController.Settings)
	starting.POST("/", startingController.Update)
	starting.POST("/delete_files/:filename/", startingController.DeleteFile)
	starting.POST("/delete_all/", startingController.DeleteAll)

	global := control.Group("/global_settings")
	global.Use(middleware.AdministratorRequired(db))
	global.GET("/", globalController.Settings)
	global.POST("/", globalController.Update)

	// Visitor-facing pages, registered last so static prefixes win.
	r.GET("/", presaleController.Home)
	r.GET("/:organizer/", presaleController.OrganizerPage)

	return r
}
