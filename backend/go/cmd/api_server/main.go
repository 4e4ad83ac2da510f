package main

import (
	"flag"
	"log"
	"time"

	"Hokage/backend/go/internal/agentauth"
	alertapi "Hokage/backend/go/internal/alert_service/api"
	alertservice "Hokage/backend/go/internal/alert_service/service"
	alertstore "Hokage/backend/go/internal/alert_service/store"
	"Hokage/backend/go/internal/analysis"
	"Hokage/backend/go/internal/config"
	"Hokage/backend/go/internal/database/mysql"
	redisdb "Hokage/backend/go/internal/database/redis"
	ingestapi "Hokage/backend/go/internal/ingest_service/api"
	ingestservice "Hokage/backend/go/internal/ingest_service/service"
	ingeststore "Hokage/backend/go/internal/ingest_service/store"
	inventoryapi "Hokage/backend/go/internal/inventory_service/api"
	inventoryservice "Hokage/backend/go/internal/inventory_service/service"
	inventorystore "Hokage/backend/go/internal/inventory_service/store"
	"Hokage/backend/go/internal/models"
	taskapi "Hokage/backend/go/internal/task_service/api"
	taskservice "Hokage/backend/go/internal/task_service/service"
	taskstore "Hokage/backend/go/internal/task_service/store"
	userapi "Hokage/backend/go/internal/user_service/api"
	userservice "Hokage/backend/go/internal/user_service/service"
	userstore "Hokage/backend/go/internal/user_service/store"
	"Hokage/backend/go/pkg/circuitbreaker"
	"Hokage/backend/go/pkg/httpmiddleware"
	"Hokage/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("api_server", "", "")

	appLogger.Info("Logger initialized")

	// Initialize database connections
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	rdb, err := redisdb.GetClient(&cfg.Databases.Redis)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Database connections established")

	// Auto-migrate database schema
	err = db.AutoMigrate(
		&models.User{},
		&models.Tenant{},
		&models.DataSource{},
		&models.BackupJob{},
		&models.AgentTask{},
		&models.Asset{},
		&models.Alert{},
	)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Database migration completed")

	// AI analyzer, guarded by a circuit breaker so a misbehaving provider
	// degrades into fallback verdicts instead of stalling the pipeline
	var breaker circuitbreaker.CircuitBreaker
	if cfg.Middleware.CircuitBreaker.Enabled {
		breaker = circuitbreaker.New(
			cfg.Middleware.CircuitBreaker.FailureThreshold,
			cfg.Middleware.CircuitBreaker.SuccessThreshold,
			parseDurationOr(cfg.Middleware.CircuitBreaker.Timeout, 30*time.Second),
		)
	}
	analyzer, err := analysis.NewPerplexity(&cfg.AI.Perplexity, breaker, logger.New("analysis", "", ""))
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Initialize dependencies (Store -> Service -> Handler)
	presence := agentauth.NewPresence(rdb)

	userStore := userstore.NewStore(db)
	userService := userservice.NewService(userStore, cfg.Auth.JwtSecret, cfg.Auth.TokenTTL)
	userHandler := userapi.NewHandler(userService)

	ingestStore := ingeststore.NewStore(db)
	ingestService := ingestservice.NewService(ingestStore, presence)
	ingestHandler := ingestapi.NewHandler(ingestService, logger.New("ingest_service", "", ""))

	inventoryStore := inventorystore.NewStore(db)
	inventoryService := inventoryservice.NewService(inventoryStore)
	inventoryHandler := inventoryapi.NewHandler(inventoryService, logger.New("inventory_service", "", ""))

	alertStore := alertstore.NewStore(db)
	alertService := alertservice.NewService(alertStore)
	alertHandler := alertapi.NewHandler(alertService, logger.New("alert_service", "", ""))

	tasks := taskstore.NewGormTaskStore(db)
	waiters := taskservice.NewWaiterRegistry()
	dispatcher := taskservice.NewDispatcher(tasks, waiters,
		time.Duration(cfg.Dispatch.LongPollSeconds)*time.Second,
		logger.New("dispatcher", "", ""))
	triage := taskservice.NewTriage(tasks, tasks, analyzer, dispatcher,
		logger.New("triage", "", ""),
		cfg.Dispatch.TriageEventLimit, cfg.Dispatch.FallbackLogs)
	taskHandler := taskapi.NewAPI(triage, dispatcher, logger.New("task_service", "", ""))

	appLogger.Info("Dependencies injected")

	// Setup and start Gin router
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	limiter, err := httpmiddleware.NewRateLimiter(cfg.Middleware.RateLimiter)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	if limiter != nil {
		router.Use(httpmiddleware.RateLimit(limiter))
	}

	userAuth := userapi.AuthMiddleware(cfg.Auth.JwtSecret, userStore)
	agentAuth := agentauth.Middleware(db, presence)

	userapi.RegisterRoutes(router, userHandler, userAuth)
	ingestapi.RegisterRoutes(router, ingestHandler, userAuth, agentAuth)
	inventoryapi.RegisterRoutes(router, inventoryHandler, userAuth, agentAuth)
	alertapi.RegisterRoutes(router, alertHandler, userAuth, agentAuth)
	taskapi.RegisterRoutes(router, taskHandler, userAuth, agentAuth)

	appLogger.Info("Router setup completed")
	appLogger.Info("Starting server on " + cfg.Server.Address)

	if err := router.Run(cfg.Server.Address); err != nil {
		appLogger.Fatal(err.Error())
	}
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
