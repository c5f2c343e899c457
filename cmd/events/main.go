package main

import (
	applicationsrepo "campusrent/internal/applications/repository"
	"campusrent/internal/events/handler"
	"campusrent/internal/events/repository"
	"campusrent/internal/events/service"
	"campusrent/internal/events/validator"
	facilitiesrepo "campusrent/internal/facilities/repository"
	"campusrent/pkg/app"
	"campusrent/pkg/config"
)

const ServiceName = "events"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Events service")
	eventService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewEventHandler(eventService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.EventService {
	eventValidator := validator.NewEventValidator(cfg.Log)
	eventRepo := repository.NewMongoEventRepository(cfg)
	allocationRepo := repository.NewMongoAllocationRepository(cfg)
	facilityRepo := facilitiesrepo.NewMongoFacilityRepository(cfg)
	applicationRepo := applicationsrepo.NewMongoApplicationRepository(cfg)

	eventService := service.NewEventService(
		eventRepo,
		allocationRepo,
		facilityRepo,
		applicationRepo,
		eventValidator,
		cfg,
	)

	cfg.Log.Info("Event service initialized", "database", cfg.MongoDatabaseName)
	return eventService
}
