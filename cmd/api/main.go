package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lobomat-api/internal/cache"
	"lobomat-api/internal/catalog"
	"lobomat-api/internal/config"
	"lobomat-api/internal/handler"
	"lobomat-api/internal/middleware"
	"lobomat-api/internal/provider"
	"lobomat-api/internal/repository"
	"lobomat-api/internal/router"
	"lobomat-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Lobomat API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize pending-purchase store based on config
	var purchaseStore repository.PendingPurchaseRepository
	switch cfg.PurchaseDB.Type {
	case "mysql":
		db, err := sql.Open("mysql", cfg.PurchaseDB.DSN())
		if err != nil {
			log.Fatalf("Failed to open MySQL: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.Ping(); err != nil {
			log.Fatalf("MySQL ping failed: %v", err)
		}
		defer db.Close()

		mysqlStore, err := repository.NewMySQLPendingPurchaseRepository(db)
		if err != nil {
			log.Fatalf("Failed to initialize MySQL purchase store: %v", err)
		}
		purchaseStore = mysqlStore
		log.Println("MySQL purchase store initialized")
	case "memory":
		purchaseStore = repository.NewMemoryPendingPurchaseRepository()
		log.Println("In-memory purchase store initialized (no persistence)")
	default: // sqlite
		if err := os.MkdirAll(filepath.Dir(cfg.PurchaseDB.Path), 0o755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		sqliteStore, err := repository.NewSQLitePendingPurchaseRepository(cfg.PurchaseDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite purchase store: %v", err)
		}
		defer sqliteStore.Close()
		purchaseStore = sqliteStore
		log.Println("SQLite purchase store initialized")
	}

	// Initialize fulfillment attempt log (optional)
	var attemptLog repository.FulfillmentLogRepository
	attemptRepo, err := repository.NewSQLiteFulfillmentLogRepository(cfg.PurchaseDB.LogPath)
	if err != nil {
		log.Printf("Warning: attempt log initialization failed: %v", err)
	} else {
		defer attemptRepo.Close()
		attemptLog = attemptRepo
	}

	// Initialize shop-feed cache
	var shopCache cache.Cache
	if cfg.Cache.Type == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed, using memory cache: %v", err)
			shopCache = cache.NewMemoryCache()
		} else {
			shopCache = cache.NewRedisCache(redisClient)
			log.Println("Redis shop cache initialized")
			defer redisClient.Close()
		}
		cancel()
	} else {
		shopCache = cache.NewMemoryCache()
		log.Println("Memory shop cache initialized")
	}

	// Delivery providers (ordered, fixed)
	providers := cfg.Providers.Parse()
	if len(providers) == 0 {
		log.Println("Warning: no delivery providers configured; fulfillment will always exhaust")
	}
	for _, p := range providers {
		log.Printf("Delivery provider: %s -> %s", p.ID, p.BaseURL)
	}
	providerClient := provider.NewClient(cfg.Providers.Timeout)

	// Initialize services
	catalogClient := catalog.NewClient(cfg.Catalog.APIURL, cfg.Catalog.APIKey, cfg.Catalog.Timeout)
	catalogService := service.NewCatalogService(catalogClient, shopCache, cfg.Catalog.CacheTTL, cfg.Catalog.Lang)
	paymentService := service.NewPaymentService(cfg.Payment, purchaseStore, catalogService)
	fulfillmentService := service.NewFulfillmentService(
		purchaseStore, providers, providerClient, attemptLog, cfg.Providers.MinFriendshipHours)

	// Attempt-log pruner
	var pruner *service.AttemptLogPruner
	if attemptLog != nil {
		pruner = service.NewAttemptLogPruner(attemptLog, service.PrunerConfig{})
		pruner.Start()
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	shopHandler := handler.NewShopHandler(catalogService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	giftHandler := handler.NewGiftHandler(fulfillmentService)
	providerHandler := handler.NewProviderHandler(providers, providerClient)
	adminHandler := handler.NewAdminHandler(attemptLog, purchaseStore, cfg.PurchaseDB.Type)

	// Create router
	r := router.New(router.Config{
		Handler:         healthHandler,
		ShopHandler:     shopHandler,
		PaymentHandler:  paymentHandler,
		GiftHandler:     giftHandler,
		ProviderHandler: providerHandler,
		AdminHandler:    adminHandler,
		AdminMiddleware: middleware.NewLoginKeyMiddleware(cfg.App.LoginKey),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if pruner != nil {
		pruner.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
