package main

import (
	"log"
	"strconv"

	_ "teashop/api/swagger" // swagger docs
	"teashop/internal/config"
	"teashop/internal/database"
	"teashop/internal/handler"
	"teashop/internal/mail"
	"teashop/internal/payment"
	"teashop/internal/repository"
	"teashop/internal/service"
	"teashop/internal/websocket"
	"teashop/pkg/cache"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Tea Shop API
// @version         1.0
// @description     Online tea shop backend: catalog, cart, checkout with hosted payment and inventory ledger.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := config.NewLogger(cfg.Logger)

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	logger.Info().Msg("connected to PostgreSQL")

	jwtSecret := []byte(cfg.Auth.JWTSecret)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	teaRepo := repository.NewTeaRepository(db)
	productRepo := repository.NewProductRepository(db)
	taxRepo := repository.NewTaxRateRepository(db)
	shippingRepo := repository.NewShippingFeeRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	stockRepo := repository.NewStockMovementRepository(db)

	mailer := mail.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.Timeout)

	var events cache.Cache
	if cfg.Redis.Enabled {
		events = cache.NewRedisCache(cfg.Redis.Addr, "teashop")
	}

	pricingService := service.NewPricingService(taxRepo, shippingRepo)
	authService := service.NewAuthService(userRepo, mailer, jwtSecret, cfg.Auth.TokenTTL, cfg.Server.BaseURL, logger)
	catalogService := service.NewCatalogService(teaRepo, pricingService)
	cartService := service.NewCartService(cartRepo, productRepo, pricingService, txManager, logger)
	checkoutService := service.NewCheckoutService(
		cartRepo, orderRepo, productRepo, stockRepo, userRepo,
		pricingService, gateway, events, txManager, wsHub, cfg.Server.BaseURL, logger)
	orderService := service.NewOrderService(orderRepo, logger)
	inventoryService := service.NewInventoryService(productRepo, stockRepo, txManager, logger)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	teaHandler := handler.NewTeaHandler(catalogService, jwtSecret)
	cartHandler := handler.NewCartHandler(cartService, jwtSecret)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, jwtSecret)
	orderHandler := handler.NewOrderHandler(orderService, jwtSecret)
	adminHandler := handler.NewAdminHandler(pricingService, inventoryService, orderService, jwtSecret)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "Stripe-Signature"}
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
		websocket.ServeWs(wsHub, c, jwtSecret)
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	teaHandler.RegisterRoutes(router.Group(""))
	cartHandler.RegisterRoutes(router.Group(""))
	checkoutHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	adminHandler.RegisterRoutes(router.Group(""))

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	logger.Info().Str("addr", addr).Msg("server listening")
	if err := router.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
