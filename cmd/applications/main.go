package main

import (
	"campusrent/internal/applications/handler"
	"campusrent/internal/applications/repository"
	"campusrent/internal/applications/service"
	"campusrent/internal/applications/validator"
	eventsrepo "campusrent/internal/events/repository"
	"campusrent/pkg/app"
	"campusrent/pkg/config"
	"campusrent/pkg/kafka"
	kafka_config "campusrent/pkg/kafka/config"
)

const ServiceName = "applications"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Applications service")

	producer := initProducer(cfg)
	if producer != nil {
		defer producer.Close()
	}

	applicationService := initServices(cfg, producer)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewApplicationHandler(applicationService, cfg.Log))
	serverApp.Run()
}

// initProducer builds the Kafka producer. Publishing is best-effort,
// so a broker that is down at boot only degrades the service instead
// of failing it.
func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaDecisionsTopic, cfg.KafkaDLQTopic)
	if err != nil {
		cfg.Log.Error("Failed to initialize Kafka producer; events will not be published",
			"error", err,
		)
		return nil
	}

	cfg.Log.Info("Kafka producer initialized",
		"topic", cfg.KafkaDecisionsTopic,
		"dlq_topic", cfg.KafkaDLQTopic,
	)
	return producer
}

func initServices(cfg *config.Config, producer *kafka.Producer) service.ApplicationService {
	applicationValidator := validator.NewApplicationValidator(cfg.Log)
	applicationRepo := repository.NewMongoApplicationRepository(cfg)
	lockRepo := repository.NewMongoLockRepository(cfg)
	allocationRepo := eventsrepo.NewMongoAllocationRepository(cfg)
	eventRepo := eventsrepo.NewMongoEventRepository(cfg)

	var publisher service.Publisher
	if producer != nil {
		publisher = producer
	}

	applicationService := service.NewApplicationService(
		applicationRepo,
		lockRepo,
		allocationRepo,
		eventRepo,
		applicationValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Application service initialized", "database", cfg.MongoDatabaseName)
	return applicationService
}
