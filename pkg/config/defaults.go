package config

import "time"

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
	EnvironmentTest        = "test"

	DefaultEnvironment = EnvironmentDevelopment

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "appointly"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultJWTSecret  = "dev-only-secret-change-me-in-production"
	DefaultJWTIssuer  = "appointly"
	DefaultTokenTTL   = 24 * time.Hour
	DefaultBcryptCost = 10
	MinJWTSecretBytes = 32

	DefaultCORSAllowedOrigins = "*"

	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = 1 * time.Minute
	DefaultTrustedProxies    = ""

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultCurrency = "USD"
	DefaultTimezone = "UTC"

	DefaultPageSize        = 10
	DefaultPaginationLimit = 100
)
