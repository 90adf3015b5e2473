// Package server assembles the HTTP surface of the ledger API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "pocketledger/internal/docs" // Register swagger docs
	"pocketledger/internal/handlers"
	"pocketledger/internal/middleware"
	"pocketledger/internal/services"
)

// Options holds the secrets the router needs.
type Options struct {
	JWTSecret   string
	AdminAPIKey string
}

// NewRouter wires every handler against facade.
func NewRouter(facade *services.Facade, audit services.AuditServicer, opts Options) *gin.Engine {
	accountHandler := handlers.NewAccountHandler(facade.Accounts, audit)
	transactionHandler := handlers.NewTransactionHandler(facade.Transactions, audit)
	transferHandler := handlers.NewTransferHandler(facade.Transfers, audit)
	categoryHandler := handlers.NewCategoryHandler(facade.Categories, audit)
	goalHandler := handlers.NewGoalHandler(facade.Goals, audit)
	reportHandler := handlers.NewReportHandler(facade.Reports)
	setupHandler := handlers.NewSetupHandler(facade.Provisioning, audit)
	adminHandler := handlers.NewAdminHandler(facade.Provisioning, facade.Goals, audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Operator routes
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminKeyMiddleware(opts.AdminAPIKey))
	admin.POST("/users/:userId/provision", adminHandler.ProvisionUser)
	admin.DELETE("/users/:userId", adminHandler.DeleteUser)
	admin.POST("/users/:userId/accounts/:id/recompute", adminHandler.RecomputeGoals)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(opts.JWTSecret))

	protected.POST("/setup", setupHandler.Setup)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)
	accounts.DELETE("/:id/transactions/:txId", transactionHandler.DeleteTransaction)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)

	protected.POST("/transfers", transferHandler.CreateTransfer)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetGoals)
	goals.GET("/achievements", goalHandler.GetAchievements)
	goals.GET("/:id", goalHandler.GetGoal)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)

	protected.GET("/dashboard", reportHandler.GetDashboard)
	protected.GET("/reports/transactions", reportHandler.GetTransactionReport)

	return router
}
