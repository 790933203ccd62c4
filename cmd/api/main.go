package main

import (
	"context"
	"log"
	"os"

	_ "busfleet/api/swagger" // swagger docs
	"busfleet/internal/config"
	"busfleet/internal/database"
	"busfleet/internal/events"
	"busfleet/internal/handler"
	"busfleet/internal/middleware"
	"busfleet/internal/repository"
	"busfleet/internal/service"
	"busfleet/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Bus Fleet Inventory API
// @version         1.0
// @description     Fleet inventory backend: transporters, drivers, amenities and bus seat-diagram configuration.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "busfleet"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Redis-backed response cache for read-heavy seat-map endpoints. Nil
	// client means the caching middleware becomes a pass-through.
	cacheCfg := config.LoadCacheConfig()
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("Redis unavailable, response caching disabled")
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// AMQP publisher for downstream consumers (booking, reporting). Publishes
	// are best-effort and failures are not fatal.
	publisher := events.NewAMQPPublisher()

	// Permission middleware resolves role -> permission codes through the DB
	middleware.InitPermissionMiddleware(db)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	diagramRepo := repository.NewDiagramRepository(db)
	spaceRepo := repository.NewSpaceRepository(db)
	amenityRepo := repository.NewAmenityRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	transporterRepo := repository.NewTransporterRepository(db)
	driverRepo := repository.NewDriverRepository(db)

	userService := service.NewUserService(userRepo)
	roleService := service.NewRoleService(db)
	diagramService := service.NewDiagramService(diagramRepo, spaceRepo, amenityRepo, auditRepo, txManager, wsHub, publisher)
	transporterService := service.NewTransporterService(transporterRepo, auditRepo, txManager)
	driverService := service.NewDriverService(driverRepo, transporterRepo, auditRepo, txManager)
	amenityService := service.NewAmenityService(amenityRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo)
	statsService := service.NewStatsService(db)

	// Seed default roles/permissions so a fresh database is usable
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Println("WARNING: Failed to seed roles and permissions:", err)
	}

	dropCache := func(ctx context.Context) {
		middleware.InvalidateCache(ctx, cacheCfg, rdb)
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	diagramHandler := handler.NewDiagramHandler(diagramService, dropCache)
	transporterHandler := handler.NewTransporterHandler(transporterService)
	driverHandler := handler.NewDriverHandler(driverService)
	amenityHandler := handler.NewAmenityHandler(amenityService)
	auditHandler := handler.NewAuditHandler(auditService)
	statsHandler := handler.NewStatsHandler(statsService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = []string{origins}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	responseCache := middleware.ResponseCache(cacheCfg, rdb)
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	diagramHandler.RegisterRoutes(router.Group(""), responseCache)
	transporterHandler.RegisterRoutes(router.Group(""))
	driverHandler.RegisterRoutes(router.Group(""))
	amenityHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statsHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
