package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	_ "github.com/lib/pq"

	"rentdesk-backend/db"
	httpapi "rentdesk-backend/internal/api/http"
	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/repository/memory"
	"rentdesk-backend/internal/repository/postgres"
	"rentdesk-backend/internal/security"
	"rentdesk-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentDesk Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())

	// Initialize the store
	var store repository.Store
	switch cfg.Database.Driver {
	case "memory":
		logger.Info("Using in-memory store")
		store = memory.NewStore()
	default:
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		sqlDB, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer sqlDB.Close()

		// Test database connection
		if err := sqlDB.Ping(); err != nil {
			logger.Error("Failed to ping database", "error", err)
			log.Fatalf("Failed to ping database: %v", err)
		}
		logger.Info("Database connection established")

		// Apply schema migrations
		if err := db.Migrate(sqlDB); err != nil {
			logger.Error("Failed to apply migrations", "error", err)
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		logger.Info("Schema migrations applied")

		store = postgres.NewStore(sqlDB)
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)

	// Initialize Services. Stock and order services share one lock set so
	// manual adjustments and order commits serialize on the same items.
	locks := service.NewItemLocker()
	catalogSvc := service.NewCatalogService(store)
	stockSvc := service.NewStockService(store, locks)
	availabilitySvc := service.NewAvailabilityService(store)
	orderSvc := service.NewOrderService(store, locks)

	// Set up HTTP server
	router := httpapi.NewRouter(&httpapi.Handlers{
		Catalog:      catalogSvc,
		Stock:        stockSvc,
		Availability: availabilitySvc,
		Orders:       orderSvc,
	}, tokenManager)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
