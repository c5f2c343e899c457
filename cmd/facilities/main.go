package main

import (
	"campusrent/internal/facilities/handler"
	"campusrent/internal/facilities/repository"
	"campusrent/internal/facilities/service"
	"campusrent/internal/facilities/validator"
	"campusrent/pkg/app"
	"campusrent/pkg/config"
)

const ServiceName = "facilities"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Facilities service")
	facilityService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewFacilityHandler(facilityService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.FacilityService {
	facilityValidator := validator.NewFacilityValidator(cfg.Log)
	facilityRepo := repository.NewMongoFacilityRepository(cfg)
	facilityService := service.NewFacilityService(
		facilityRepo,
		facilityValidator,
		cfg,
	)

	cfg.Log.Info("Facility service initialized", "database", cfg.MongoDatabaseName)
	return facilityService
}
