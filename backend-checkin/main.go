package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/di"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/config"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/database"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/kafka"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/logger"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/middleware"
	pkgredis "github.com/prohmpiriya/booking-rush-checkin/pkg/redis"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
		OutputPath:  "stdout",
	}); err != nil {
		_, _ = os.Stderr.WriteString("failed to init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("Check-in service stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := telemetry.Init(startupCtx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewCheckInMetrics()
	if err != nil {
		return err
	}

	db, err := database.NewPostgres(startupCtx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   2 * time.Second,
		Tracing:         cfg.OTel.Enabled,
	})
	if err != nil {
		return err
	}

	redisClient, err := pkgredis.NewClient(startupCtx, &pkgredis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		Tracing:      cfg.OTel.Enabled,
	})
	if err != nil {
		db.Close()
		return err
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(&kafka.ProducerConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
		})
		if err != nil {
			_ = redisClient.Close()
			db.Close()
			return err
		}
	} else {
		log.Info("Kafka disabled, admission events go to Redis only")
	}

	container := di.NewContainer(&di.ContainerConfig{
		DB:      db,
		Redis:   redisClient,
		Kafka:   producer,
		Config:  cfg,
		Metrics: metrics,
		Logger:  log,
	})
	defer container.Close()

	auditCfg := middleware.DefaultAuditConfig(db.Pool())
	auditCfg.Logger = log.Logger
	auditLogger := middleware.NewAuditLogger(auditCfg)
	defer func() { _ = auditLogger.Close() }()

	limiter := middleware.NewScanRateLimiter(middleware.RateLimitConfig{
		ScansPerSecond: cfg.RateLimit.ScansPerSecond,
		BurstSize:      cfg.RateLimit.Burst,
	})
	defer limiter.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.OTel.Enabled {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	api := router.Group("/api/v1")
	api.Use(middleware.JWTMiddleware(&middleware.JWTConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
	}))
	api.Use(middleware.OperatorContext())
	api.Use(middleware.AuditMiddleware(auditLogger))
	container.Routes().Register(api, middleware.RequireRole("admin"), middleware.ScanRateLimit(limiter))

	// baseCtx ends live feed streams once shutdown begins
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	server := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout is left unset so the SSE feed is not cut off
		IdleTimeout: cfg.Server.IdleTimeout,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelBase)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("Check-in service listening", zap.String("addr", server.Addr))
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stopCtx.Done():
		log.Info("Shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
	return nil
}
