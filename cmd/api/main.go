package main

import (
	"fmt"
	"os"

	"pocketledger/internal/config"
	"pocketledger/internal/database"
	"pocketledger/internal/logger"
	"pocketledger/internal/server"
	"pocketledger/internal/services"
	"pocketledger/internal/validator"
)

// @title           PocketLedger API
// @version         1.0
// @description     PocketLedger tracks accounts, transactions, transfers and monthly goals for personal finances.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, manager, err := database.OpenStore(appConfig, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open ledger store: %w", err)
	}
	if manager != nil {
		defer func() {
			if err := manager.Close(); err != nil {
				log.Warnf("database close error: %v", err)
			}
		}()
	}

	validator.Register()

	facade := services.NewFacade(store, services.WithTransferFallbackID(appConfig.TransferFallback))
	router := server.NewRouter(facade, services.NewAuditService(), server.Options{
		JWTSecret:   appConfig.JWTSecret,
		AdminAPIKey: appConfig.AdminAPIKey,
	})

	if appConfig.AdminAPIKey == "" {
		log.Info("ADMIN_API_KEY not set; admin endpoints are disabled")
	}
	log.Infow("Starting PocketLedger server", "port", appConfig.Port, "store", appConfig.StoreBackend)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
