package kafka_config

import "time"

const (
	DefaultKafkaBrokers  = ""
	DefaultKafkaClientID = "appointly-api"

	DefaultBookingTopic    = "appointly.booking-events"
	DefaultBookingDLQTopic = ""

	// Producer defaults
	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerWriteTimeout = 5 * time.Second
	DefaultProducerRequireAcks  = -1 // Require all replicas
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	// Middleware defaults
	DefaultEnableMiddleware = true
)
