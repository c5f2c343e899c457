package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvGatewaySecret = "GATEWAY_APP_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvAllocationLockTTL = "ALLOCATION_LOCK_TTL"

	EnvPaymentBaseURL = "PAYMENT_BASE_URL"

	EnvKafkaBrokers        = "KAFKA_BROKERS"
	EnvKafkaDecisionsTopic = "KAFKA_DECISIONS_TOPIC"
	EnvKafkaDLQTopic       = "KAFKA_DLQ_TOPIC"

	EnvMaxFacilitiesPerSubmission = "MAX_FACILITIES_PER_SUBMISSION"
	EnvMaxBulkApprovalItems       = "MAX_BULK_APPROVAL_ITEMS"
)
