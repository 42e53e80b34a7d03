package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/config"
	"github.com/smarttransit/seat-reservation/internal/database"
	"github.com/smarttransit/seat-reservation/internal/handlers"
	"github.com/smarttransit/seat-reservation/internal/redis"
	"github.com/smarttransit/seat-reservation/internal/services"
	"github.com/smarttransit/seat-reservation/pkg/jwt"
	"github.com/smarttransit/seat-reservation/pkg/notify"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SmartTransit seat reservation service")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx := context.Background()

	// New Relic
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize New Relic, continuing without APM")
			nrApp = nil
		} else {
			logger.Info("New Relic APM enabled")
		}
	}

	// Storage
	logger.WithField("driver", cfg.Storage.Driver).Info("Opening booking store...")
	store, err := database.Open(ctx, cfg.Storage, cfg.Database, nrApp != nil)
	if err != nil {
		logger.Fatalf("Failed to open booking store: %v", err)
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		logger.Fatalf("Failed to reach booking store: %v", err)
	}
	logger.Info("Booking store ready")

	// Notifications
	notifier, closeNotifier, err := newNotifier(cfg.Notifier, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize notifier: %v", err)
	}
	defer closeNotifier()
	logger.WithField("mode", notifier.Name()).Info("Booking notifier initialized")

	// Services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	catalog := services.NewTripCatalog(store, logger)
	inventory := services.NewSeatInventory(store, logger)
	ledger := services.NewBookingLedger(store, logger)
	coordinator := services.NewBookingCoordinator(store, inventory, ledger, notifier, cfg.Notifier.Timeout, logger)
	aggregator := services.NewRevenueAggregator(store, logger)
	reconciler := services.NewReconcileService(store, cfg.Reconcile.ReleaseOrphans, logger)

	// Checkout sessions live in Redis when configured, otherwise in memory
	var sessionStore services.SessionStore
	var memorySessions *services.MemorySessionStore
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		sessionStore = redis.NewSessionStore(client)
		logger.WithField("addr", cfg.Redis.Addr).Info("Checkout sessions stored in Redis")
	} else {
		memorySessions = services.NewMemorySessionStore()
		sessionStore = memorySessions
		logger.Info("Checkout sessions stored in memory")
	}
	sessions := services.NewCheckoutSessionService(sessionStore, coordinator, inventory, cfg.Checkout.SessionTTL, logger)

	// Scheduled jobs
	var cronService *services.CronService
	if cfg.Reconcile.Enabled || memorySessions != nil {
		schedule := ""
		if cfg.Reconcile.Enabled {
			schedule = cfg.Reconcile.Schedule
		}
		cronService = services.NewCronService(reconciler, schedule, memorySessions, logger)
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
		logger.Info("Cron service started")
	}

	logger.Info("Services initialized")

	router := handlers.NewRouter(handlers.RouterConfig{
		Trips:    handlers.NewTripHandler(catalog, inventory, logger),
		Bookings: handlers.NewBookingHandler(coordinator, ledger, sessions, logger),
		Admin:    handlers.NewAdminHandler(catalog, coordinator, aggregator, reconciler, cronService, logger),
		Store:    store,
		JWT:      jwtService,
		CORS:     cfg.CORS,
		NewRelic: nrApp,
		Version:  version,
		Logger:   logger,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cronService != nil {
		logger.Info("Stopping cron service...")
		cronService.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	if nrApp != nil {
		nrApp.Shutdown(10 * time.Second)
	}

	logger.Info("Server exited successfully")
}

// newNotifier builds the booking notifier for the configured mode.
// The returned func releases any broker connection.
func newNotifier(cfg config.NotifierConfig, logger *logrus.Logger) (notify.Notifier, func(), error) {
	noop := func() {}

	switch cfg.Mode {
	case "", "log":
		return notify.NewLogNotifier(logger), noop, nil

	case "smtp":
		n, err := notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.FromEmail,
		})
		if err != nil {
			return nil, noop, err
		}
		return n, noop, nil

	case "amqp":
		n, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, noop, err
		}
		return n, closer(n, logger), nil

	case "kafka":
		producer, err := notify.NewKafkaProducer(cfg.KafkaBrokers, cfg.Timeout)
		if err != nil {
			return nil, noop, err
		}
		n := notify.NewKafkaNotifier(producer, cfg.KafkaTopic)
		return n, closer(n, logger), nil

	default:
		return nil, noop, fmt.Errorf("unknown notifier mode %q", cfg.Mode)
	}
}

func closer(c io.Closer, logger *logrus.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close notifier")
		}
	}
}
