package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "campusrent"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 20
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Advisory lock lifetime for quota-critical sections. Long enough to
	// cover a multi-line submission transaction, short enough that a
	// crashed holder does not block an allocation for long.
	DefaultAllocationLockTTL = 10 * time.Second

	DefaultPaymentBaseURL = "http://localhost:8090"

	DefaultKafkaBrokers        = "localhost:9092"
	DefaultKafkaDecisionsTopic = "campusrent.application-decisions"
	DefaultKafkaDLQTopic       = "campusrent.application-decisions.dlq"

	DefaultMaxFacilitiesPerSubmission = 20
	DefaultMaxBulkApprovalItems       = 100

	DefaultPaginationLimit = 100
)
