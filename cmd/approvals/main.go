package main

import (
	applicationsrepo "campusrent/internal/applications/repository"
	"campusrent/internal/approvals/handler"
	"campusrent/internal/approvals/service"
	eventsrepo "campusrent/internal/events/repository"
	"campusrent/pkg/app"
	"campusrent/pkg/client"
	"campusrent/pkg/config"
	"campusrent/pkg/kafka"
	kafka_config "campusrent/pkg/kafka/config"
)

const ServiceName = "approvals"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Approvals service")

	producer := initProducer(cfg)
	if producer != nil {
		defer producer.Close()
	}

	approvalService := initServices(cfg, producer)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewApprovalHandler(approvalService, cfg.Log))
	serverApp.Run()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaDecisionsTopic, cfg.KafkaDLQTopic)
	if err != nil {
		cfg.Log.Error("Failed to initialize Kafka producer; decision events will not be published",
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

func initServices(cfg *config.Config, producer *kafka.Producer) service.ApprovalService {
	applicationRepo := applicationsrepo.NewMongoApplicationRepository(cfg)
	lockRepo := applicationsrepo.NewMongoLockRepository(cfg)
	allocationRepo := eventsrepo.NewMongoAllocationRepository(cfg)
	paymentClient := client.NewPaymentClient(cfg.PaymentBaseURL)

	var publisher service.Publisher
	if producer != nil {
		publisher = producer
	}

	approvalService := service.NewApprovalService(
		applicationRepo,
		lockRepo,
		allocationRepo,
		paymentClient,
		publisher,
		cfg,
	)

	cfg.Log.Info("Approval service initialized",
		"database", cfg.MongoDatabaseName,
		"payment_base_url", cfg.PaymentBaseURL,
	)
	return approvalService
}
