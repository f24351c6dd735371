package main

import (
	"github.com/eventra/landingpages/config"
	"github.com/eventra/landingpages/models"
	"github.com/eventra/landingpages/routes"
	"github.com/eventra/landingpages/services"
	"github.com/eventra/landingpages/storage"
	"github.com/eventra/landingpages/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{}, &models.OrganizerPermission{},
		&models.Organizer{}, &models.Event{},
		&models.LandingpageSettings{}, &models.StartingpageSettings{},
		&models.LandingpageFile{}, &models.StartingpageFile{},
		&models.AuditLog{}, &models.GlobalSetting{},
	)

	store := storage.New(cfg.DataDir, cfg.MediaDir)
	svc := services.New(db, store, utils.Sugar, utils.PageCache{})

	r := routes.SetupRouter(db, svc)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
