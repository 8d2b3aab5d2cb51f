package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/microtask_backend/config"
	"github.com/HSouheill/microtask_backend/controllers"
	"github.com/HSouheill/microtask_backend/middleware"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/repositories"
	"github.com/HSouheill/microtask_backend/repositories/memory"
	"github.com/HSouheill/microtask_backend/routes"
	"github.com/HSouheill/microtask_backend/services"
	"github.com/HSouheill/microtask_backend/websocket"
)

// app holds everything the HTTP server is built from
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	stores    services.Stores
	cache     repositories.LeaderboardCache
	processor services.PaymentProcessor
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		cfg:       cfg,
		log:       logger,
		processor: services.NewStripeProcessor(cfg.StripeAPIURL, cfg.StripeSecretKey, logger),
	}

	// Connect to database
	var client *mongo.Client
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("Using the in-memory store, data is lost on restart")
		store := memory.New()
		a.stores = services.Stores{
			Users:       store.Users(),
			Tasks:       store.Tasks(),
			Submissions: store.Submissions(),
			Withdrawals: store.Withdrawals(),
			Payments:    store.Payments(),
		}
	default:
		client, err = config.ConnectDB(cfg)
		if err != nil {
			logger.WithError(err).Fatal("MongoDB connection failed")
		}
		db := client.Database(cfg.DBName)
		indexCtx, cancel := context.WithTimeout(ctx, config.IndexTimeout)
		if err := repositories.EnsureIndexes(indexCtx, db); err != nil {
			logger.WithError(err).Error("Index setup incomplete")
		}
		cancel()
		a.stores = services.Stores{
			Users:       repositories.NewUserRepository(db),
			Tasks:       repositories.NewTaskRepository(db),
			Submissions: repositories.NewSubmissionRepository(db),
			Withdrawals: repositories.NewWithdrawalRepository(db),
			Payments:    repositories.NewPaymentRepository(db),
		}
	}

	// Connect to Redis
	if rdb := config.ConnectRedis(cfg); rdb != nil {
		defer rdb.Close()
		a.cache = repositories.NewRedisLeaderboardCache(rdb, cfg.LeaderboardTTL)
	}

	e, hub, limiter := a.server()
	go hub.Run(ctx)
	go func() {
		ticker := time.NewTicker(config.RateLimitIdleTimeout)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup()
			}
		}
	}()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
	if client != nil {
		_ = client.Disconnect(shutdownCtx)
	}
}

// server wires services, controllers and routes into an Echo instance.
func (a *app) server() (*echo.Echo, *websocket.Hub, *middleware.RateLimiter) {
	cfg, logger := a.cfg, a.log

	hub := websocket.NewHub(logger)
	a.stores.Leaderboard = a.cache

	identity := services.NewIdentityService(cfg.JWTSecret, cfg.JWTTTL, a.stores.Users)
	signupCoins := map[models.Role]int64{
		models.RoleWorker: cfg.WorkerSignupCoins,
		models.RoleBuyer:  cfg.BuyerSignupCoins,
	}
	accounts := services.NewAccountService(a.stores.Users, a.cache, signupCoins, logger)
	tasks := services.NewTaskService(a.stores.Tasks, logger)
	submissions := services.NewSubmissionService(a.stores, hub, logger)
	withdrawals := services.NewWithdrawalService(a.stores, hub, logger)
	purchases := services.NewPurchaseService(a.stores, a.processor, cfg.PaymentCurrency, logger)
	reporting := services.NewReportingService(a.stores, a.cache, logger)

	e := echo.New()
	e.HideBanner = true
	e.Validator = controllers.NewValidator()
	e.HTTPErrorHandler = controllers.HTTPErrorHandler

	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			logger.WithFields(logrus.Fields{
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latency":   v.Latency.String(),
				"requestId": v.RequestID,
				"remoteIp":  v.RemoteIP,
			}).Info("request")
			return nil
		},
	}))
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS(cfg.CORSAllowedOrigins))
	e.Use(middleware.SecurityHeaders())
	e.Use(rateLimiter.RateLimit())

	routes.SetupRoutes(e, identity, routes.Controllers{
		Auth:        controllers.NewAuthController(identity),
		Users:       controllers.NewUserController(accounts),
		Tasks:       controllers.NewTaskController(tasks),
		Submissions: controllers.NewSubmissionController(submissions),
		Withdrawals: controllers.NewWithdrawalController(withdrawals),
		Payments:    controllers.NewPaymentController(purchases),
		Status:      controllers.NewStatusController(reporting),
	}, websocket.NewHandler(hub, identity, cfg.CORSAllowedOrigins), services.MetricsHandler())

	return e, hub, rateLimiter
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("Unknown LOG_LEVEL, using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
