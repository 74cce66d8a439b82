package main

import (
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"catalog-sync-service/internal/cache"
	"catalog-sync-service/internal/config"
	"catalog-sync-service/internal/database"
	"catalog-sync-service/internal/handlers"
	"catalog-sync-service/internal/middleware"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
	"catalog-sync-service/internal/scheduler"
	"catalog-sync-service/internal/secrets"
	"catalog-sync-service/internal/services"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := buildLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.Integration{},
		&models.Product{},
		&models.Variation{},
		&models.Item{},
		&models.ProductGroup{},
		&models.Attribute{},
		&models.AttributeValue{},
		&models.SystemAttribute{},
		&models.SystemCategory{},
		&models.Category{},
		&models.CategoryAttribute{},
		&models.CategoryMarketplaceMap{},
		&models.Dictionary{},
		&models.MarketplaceProduct{},
		&models.AttributeSyncLink{},
		&models.CatalogSyncJob{},
		&models.CatalogSyncLog{},
	); err != nil {
		logger.Warn("Auto-migration failed", zap.Error(err))
	}
	logger.Info("Database models migrated")

	vault, err := secrets.NewTokenVault(cfg.TokenMasterKey)
	if err != nil {
		logger.Fatal("Failed to initialize token vault", zap.Error(err))
	}

	dictCache, err := cache.NewDictionaryCache(cfg.RedisURL)
	if err != nil {
		logger.Warn("Dictionary cache disabled", zap.Error(err))
		dictCache, _ = cache.NewDictionaryCache("")
	}
	defer dictCache.Close()

	// Repositories
	integrationRepo := repository.NewIntegrationRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	attributeRepo := repository.NewAttributeRepository(db)
	dictionaryRepo := repository.NewDictionaryRepository(db)
	mappingRepo := repository.NewMappingRepository(db)
	syncRepo := repository.NewSyncRepository(db)

	// Services
	index := services.NewAttributeIndex(attributeRepo, dictionaryRepo, mappingRepo, dictCache, logger)
	notifier := services.NewLogNotifier(logger)
	exportService := services.NewExportService(catalogRepo, categoryRepo, attributeRepo, mappingRepo, index, notifier, logger, cfg.SyncBatchSize)
	importService := services.NewImportService(catalogRepo, categoryRepo, attributeRepo, mappingRepo, index, logger, cfg.SyncBatchSize)
	priceStock := services.NewPriceStockService(catalogRepo, mappingRepo, logger, cfg.SyncBatchSize)
	syncService := services.NewSyncService(syncRepo, integrationRepo, vault, cfg, exportService, importService, priceStock, logger)
	statusService := services.NewStatusService(categoryRepo, integrationRepo, mappingRepo)
	resolverService := services.NewResolverService(categoryRepo)

	// Handlers
	healthHandler := handlers.NewHealthHandler(syncService.Concurrency())
	integrationHandler := handlers.NewIntegrationHandler(integrationRepo, vault)
	syncHandler := handlers.NewSyncHandler(syncService)
	statusHandler := handlers.NewStatusHandler(statusService, resolverService)
	mappingHandler := handlers.NewMappingHandler(mappingRepo, dictionaryRepo)
	ordersHandler := handlers.NewOrdersHandler(integrationRepo, vault)

	router := setupRouter(cfg, logger, healthHandler, integrationHandler, syncHandler, statusHandler, mappingHandler, ordersHandler)

	sched := scheduler.New(cfg, integrationRepo, catalogRepo, syncService, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	logger.Info("Catalog Sync Service starting",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func buildLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// setupRouter configures the HTTP router
func setupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	healthHandler *handlers.HealthHandler,
	integrationHandler *handlers.IntegrationHandler,
	syncHandler *handlers.SyncHandler,
	statusHandler *handlers.StatusHandler,
	mappingHandler *handlers.MappingHandler,
	ordersHandler *handlers.OrdersHandler,
) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())

	origins := cfg.AllowedOrigins
	if env := os.Getenv("CORS_ALLOWED_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}
	router.Use(middleware.CORS(origins))
	router.Use(middleware.TenantMiddleware())

	// Health checks
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/health/concurrency", healthHandler.Concurrency)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireTenantID())
	{
		integrations := v1.Group("/integrations")
		{
			integrations.GET("", integrationHandler.List)
			integrations.POST("", integrationHandler.Create)
			integrations.GET("/:id", integrationHandler.Get)
			integrations.PATCH("/:id", integrationHandler.Update)
			integrations.POST("/:id/test", integrationHandler.TestConnection)
			integrations.GET("/:id/orders/new", ordersHandler.ListNewOrders)
		}

		syncJobs := v1.Group("/sync")
		{
			syncJobs.GET("/jobs", syncHandler.ListJobs)
			syncJobs.POST("/jobs", syncHandler.CreateJob)
			syncJobs.GET("/jobs/:id", syncHandler.GetJob)
			syncJobs.POST("/jobs/:id/cancel", syncHandler.CancelJob)
			syncJobs.GET("/jobs/:id/logs", syncHandler.GetJobLogs)
		}

		mappings := v1.Group("/mappings")
		{
			mappings.GET("/entities", mappingHandler.ListForEntities)
			mappings.GET("/barcodes", mappingHandler.FindByBarcodes)
			mappings.GET("/attributes/:attributeId/link", mappingHandler.GetSyncLink)
			mappings.GET("/dictionaries/:dictionaryId/values", mappingHandler.ListDictionaryValues)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("/:id/sync-status", statusHandler.GetCategoryStatus)
			categories.GET("/:id/attribute-plan", statusHandler.GetAttributePlan)
		}
	}

	return router
}
