package main

import (
	"appointly/internal/bookings/events"
	bookingshandler "appointly/internal/bookings/handler"
	bookingsrepo "appointly/internal/bookings/repository"
	bookingsservice "appointly/internal/bookings/service"
	cataloghandler "appointly/internal/catalog/handler"
	catalogrepo "appointly/internal/catalog/repository"
	catalogservice "appointly/internal/catalog/service"
	identityhandler "appointly/internal/identity/handler"
	identitymiddleware "appointly/internal/identity/middleware"
	identityservice "appointly/internal/identity/service"
	searchhandler "appointly/internal/search/handler"
	searchrepo "appointly/internal/search/repository"
	searchservice "appointly/internal/search/service"
	tenantshandler "appointly/internal/tenants/handler"
	tenantsrepo "appointly/internal/tenants/repository"
	tenantsservice "appointly/internal/tenants/service"
	usershandler "appointly/internal/users/handler"
	usersrepo "appointly/internal/users/repository"
	usersservice "appointly/internal/users/service"
	"appointly/pkg/app"
	"appointly/pkg/auth"
	"appointly/pkg/config"
	"appointly/pkg/contracts"
	"appointly/pkg/kafka"
	kafka_config "appointly/pkg/kafka/config"
	kafka_middleware "appointly/pkg/kafka/middleware"
	"appointly/pkg/validation"
)

const ServiceName = "appointly-api"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Appointly API")
	serverApp := app.NewApplication(cfg)
	publisher := initPublisher(cfg, serverApp)
	serverApp.SetApp(initHandlers(cfg, publisher)...)
	serverApp.Run()
}

// initPublisher connects the booking event producer. Without brokers events are dropped.
func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("Kafka not configured, booking events disabled")
		return events.NoopPublisher{}
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.BookingTopic, kafkaCfg.BookingDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	serverApp.OnShutdown("kafka-producer", producer)
	return events.NewKafkaPublisher(producer, cfg.Log)
}

func initHandlers(cfg *config.Config, publisher events.Publisher) []contracts.Handler {
	v := validation.New(cfg.Log)
	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)

	tenantRepo := tenantsrepo.NewMongoTenantRepository(cfg)
	principalRepo := usersrepo.NewMongoPrincipalRepository(cfg)
	serviceRepo := catalogrepo.NewMongoServiceRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	searchRepo := searchrepo.NewMongoSearchRepository(cfg)

	tenantService := tenantsservice.NewTenantService(tenantRepo, v, cfg)
	userService := usersservice.NewUserService(principalRepo, hasher, v, cfg)
	identityService := identityservice.NewIdentityService(tenantRepo, principalRepo, tenantService, userService, tokens, hasher, v, cfg)
	catalogService := catalogservice.NewCatalogService(serviceRepo, principalRepo, tenantRepo, v, cfg)
	bookingService := bookingsservice.NewBookingService(bookingRepo, serviceRepo, principalRepo, v, publisher, cfg)
	searchService := searchservice.NewSearchService(searchRepo, tenantRepo, serviceRepo, v, cfg)

	authenticator := identitymiddleware.NewAuthenticator(identityService, cfg.Log)
	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		identityhandler.NewAuthHandler(identityService, authenticator, cfg.Log),
		tenantshandler.NewTenantHandler(tenantService, authenticator, cfg.Log),
		usershandler.NewUserHandler(userService, authenticator, cfg.Log),
		cataloghandler.NewServiceHandler(catalogService, authenticator, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, authenticator, cfg.Log),
		searchhandler.NewSearchHandler(searchService, authenticator, cfg.Log),
	}
}
