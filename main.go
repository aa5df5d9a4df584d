package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/worshipstreet/storefront-backend/common/logger"
	"github.com/worshipstreet/storefront-backend/config"
	"github.com/worshipstreet/storefront-backend/controllers"
	"github.com/worshipstreet/storefront-backend/database"
	"github.com/worshipstreet/storefront-backend/models"
	"github.com/worshipstreet/storefront-backend/repository"
	"github.com/worshipstreet/storefront-backend/routes"
	"github.com/worshipstreet/storefront-backend/services"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	db, err := database.ConnectPostgres(cfg,
		&models.Product{},
		&models.ProductVariant{},
		&models.CustomDesign{},
		&models.InventoryRecord{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.PaymentTransaction{},
		&models.Ministry{},
		&models.MinistryAllocation{},
	)
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	cartRepo := repository.NewGormCartRepository(db)
	catalogRepo := repository.NewGormCatalogRepository(db)
	inventoryRepo := repository.NewGormInventoryRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	ministryRepo := repository.NewGormMinistryRepository(db)

	pricing := services.NewPricingPolicy(cfg)
	inventorySvc := services.NewInventoryService(inventoryRepo, logger.Log)
	cartSvc := services.NewCartService(cartRepo, catalogRepo, inventorySvc, pricing, cfg.CartTTL, logger.Log)
	checkoutSvc := services.NewCheckoutService(orderRepo, pricing, logger.Log)
	allocationSvc := services.NewAllocationService(orderRepo, ministryRepo, logger.Log)
	paymentSvc := services.NewPaymentService(paymentRepo, orderRepo, allocationSvc, logger.Log)
	statusSvc := services.NewOrderStatusService(orderRepo, logger.Log)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())

	routes.Register(r,
		controllers.NewCartController(cartSvc),
		controllers.NewOrderController(checkoutSvc, paymentSvc, statusSvc, allocationSvc),
		controllers.NewInventoryController(inventorySvc),
	)

	go sweepExpiredCarts(cartSvc, cfg.CartSweepInterval)

	logger.Log.Info("Starting server", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Error starting server", zap.Error(err))
	}
}

// sweepExpiredCarts periodically purges carts past their TTL. This is the
// only background job; everything else is request-path.
func sweepExpiredCarts(carts *services.CartService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := carts.CleanupExpired(ctx); err != nil {
			logger.Log.Error("Cart sweep failed", zap.Error(err))
		}
		cancel()
	}
}
