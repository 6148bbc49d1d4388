package di

import (
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/handler"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/publisher"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/repository"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/service"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/config"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/database"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/kafka"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/logger"
	pkgredis "github.com/prohmpiriya/booking-rush-checkin/pkg/redis"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/telemetry"
)

// Container holds all dependencies for the check-in service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *pkgredis.Client
	Kafka *kafka.Producer

	// Repositories
	TicketRepo   repository.TicketRepository
	SessionRepo  repository.SessionRepository
	VenueRepo    repository.VenueRepository
	SeatRepo     repository.SeatRepository
	ProductRepo  repository.ProductRepository
	AlertRepo    repository.AlertRepository
	OperatorRepo repository.OperatorRepository

	// Event sinks
	Publisher *publisher.Multi

	// Services
	CheckInService    service.CheckInService
	ValidationService service.ValidationService
	AlertService      service.AlertService

	// Handlers
	HealthHandler     *handler.HealthHandler
	CheckInHandler    *handler.CheckInHandler
	StreamHandler     *handler.StreamHandler
	ValidationHandler *handler.ValidationHandler
	AlertHandler      *handler.AlertHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB    *database.PostgresDB
	Redis *pkgredis.Client
	// Kafka is nil when the event bus is disabled
	Kafka *kafka.Producer

	Config  *config.Config
	Metrics *telemetry.CheckInMetrics
	Logger  *logger.Logger
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:    cfg.DB,
		Redis: cfg.Redis,
		Kafka: cfg.Kafka,
	}
	appCfg := cfg.Config

	// Initialize repositories
	venueRepo := repository.NewPostgresVenueRepository(c.DB.Pool())
	c.TicketRepo = repository.NewPostgresTicketRepository(c.DB.Pool())
	c.SessionRepo = venueRepo.Sessions()
	c.VenueRepo = venueRepo.Venues()
	c.SeatRepo = venueRepo.Seats()
	c.ProductRepo = venueRepo.Products()
	c.AlertRepo = repository.NewPostgresAlertRepository(c.DB.Pool())
	c.OperatorRepo = repository.NewPostgresOperatorRepository(c.DB.Pool())

	// Initialize event sinks
	c.Publisher = publisher.NewMulti(cfg.Logger, cfg.Metrics).
		Add("redis", publisher.NewRedisPublisher(c.Redis, appCfg.Redis.ChannelPrefix))
	if c.Kafka != nil {
		c.Publisher.Add("kafka", publisher.NewKafkaPublisher(c.Kafka, appCfg.Kafka.CheckInTopic, appCfg.Kafka.AlertTopic))
	}

	// Initialize services
	c.CheckInService = service.NewCheckInService(&service.CheckInServiceConfig{
		Tickets:   c.TicketRepo,
		Sessions:  c.SessionRepo,
		Operators: c.OperatorRepo,
		Publisher: c.Publisher,
		Window: &domain.WindowPolicy{
			Before: appCfg.CheckIn.WindowBefore,
			After:  appCfg.CheckIn.WindowAfter,
		},
		StoreTimeout: appCfg.Database.QueryTimeout,
		Metrics:      cfg.Metrics,
		Logger:       cfg.Logger,
	})
	c.ValidationService = service.NewValidationService(&service.ValidationServiceConfig{
		Venues:       c.VenueRepo,
		Sessions:     c.SessionRepo,
		Seats:        c.SeatRepo,
		Products:     c.ProductRepo,
		StoreTimeout: appCfg.Database.QueryTimeout,
		Metrics:      cfg.Metrics,
	})
	c.AlertService = service.NewAlertService(&service.AlertServiceConfig{
		Alerts:       c.AlertRepo,
		Venues:       c.VenueRepo,
		Validation:   c.ValidationService,
		Publisher:    c.Publisher,
		StoreTimeout: appCfg.Database.QueryTimeout,
		Metrics:      cfg.Metrics,
		Logger:       cfg.Logger,
	})

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.readinessChecks())
	c.CheckInHandler = handler.NewCheckInHandler(c.CheckInService)
	c.StreamHandler = handler.NewStreamHandler(
		c.CheckInService,
		publisher.NewRedisFeed(c.Redis, appCfg.Redis.ChannelPrefix),
		appCfg.CheckIn.StreamHeartbeat,
		cfg.Logger,
	)
	c.ValidationHandler = handler.NewValidationHandler(c.ValidationService, appCfg.Validation.StockThreshold)
	c.AlertHandler = handler.NewAlertHandler(c.AlertService)

	return c
}

// Routes returns the API handlers ready to be mounted
func (c *Container) Routes() *handler.Routes {
	return &handler.Routes{
		CheckIn:    c.CheckInHandler,
		Stream:     c.StreamHandler,
		Validation: c.ValidationHandler,
		Alert:      c.AlertHandler,
	}
}

func (c *Container) readinessChecks() map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"postgres": handler.PingFunc(c.DB.HealthCheck),
		"redis":    c.Redis,
	}
	if c.Kafka != nil {
		checks["kafka"] = c.Kafka
	}
	return checks
}

// Close releases infrastructure connections in reverse order of creation
func (c *Container) Close() {
	if c.Kafka != nil {
		c.Kafka.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	c.DB.Close()
}
