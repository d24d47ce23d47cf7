package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/mkraev/storefront/internal/cache"
	"github.com/mkraev/storefront/internal/config"
	h "github.com/mkraev/storefront/internal/http"
	"github.com/mkraev/storefront/internal/inventory"
	"github.com/mkraev/storefront/internal/repository"
	"github.com/mkraev/storefront/internal/service"
)

func main() {
	cfg := config.Load()

	products := repository.NewMemoryProductRepository()
	categories := repository.NewMemoryCategoryRepository()
	carts := repository.NewMemoryCartRepository()
	orders := repository.NewMemoryOrderRepository()
	users := repository.NewMemoryUserRepository()
	addresses := repository.NewMemoryAddressRepository()
	ledger := inventory.NewLedger(products)

	// The cart cache is optional; without REDIS_ADDR every read goes to
	// the repository.
	var cartCache cache.CartCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable at %s, caching disabled: %v", cfg.RedisAddr, err)
		} else {
			cartCache = cache.NewRedisCache(client)
			log.Printf("cart caching enabled via redis at %s", cfg.RedisAddr)
		}
		cancel()
	}

	locks := service.NewCartLocks()
	cartSvc := service.NewCartService(carts, products, users, ledger, cartCache, locks, cfg.MaxLineQuantity)
	catalogSvc := service.NewCatalogService(products, categories, ledger)
	checkoutSvc := service.NewCheckoutService(orders, carts, products, users, addresses, ledger, cartCache, locks, cfg)
	userSvc := service.NewUserService(users, addresses, cfg.MaxAddressesPerUser)

	if cfg.SeedDemoData {
		seedCatalog(catalogSvc)
	}

	router := h.NewRouter(cartSvc, catalogSvc, checkoutSvc, userSvc)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func seedCatalog(catalog *service.CatalogService) {
	demo := []struct {
		sku, name, price string
		stock            int
	}{
		{"KB-001", "Mechanical Keyboard", "89.90", 25},
		{"MS-001", "Wireless Mouse", "34.50", 40},
		{"MN-001", "27in Monitor", "219.00", 12},
		{"HS-001", "USB Headset", "49.99", 30},
	}
	ctx := context.Background()
	for _, d := range demo {
		if _, err := catalog.CreateProduct(ctx, d.sku, d.name, "", decimal.RequireFromString(d.price), d.stock); err != nil {
			log.Printf("seed product %s: %v", d.sku, err)
		}
	}
	log.Printf("seeded %d demo products", len(demo))
}
