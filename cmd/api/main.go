package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	"toystore/internal/config"
	"toystore/internal/db"
	"toystore/internal/events"
	"toystore/internal/httpserver"
	"toystore/internal/payment"
	cartrepo "toystore/internal/repository/cart"
	customerrepo "toystore/internal/repository/customer"
	orderrepo "toystore/internal/repository/order"
	productrepo "toystore/internal/repository/product"
	wishlistrepo "toystore/internal/repository/wishlist"
	cartsvc "toystore/internal/service/cart"
	checkoutsvc "toystore/internal/service/checkout"
	customersvc "toystore/internal/service/customer"
	"toystore/internal/service/notify"
	ordersvc "toystore/internal/service/order"
	wishlistsvc "toystore/internal/service/wishlist"
	"toystore/internal/session"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	var sessions session.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatalf("connect to redis: %v", err)
		}
		defer client.Close()
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
	} else {
		logger.Printf("REDIS_ADDR not set, using in-memory sessions")
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	wishlistRepo := wishlistrepo.NewPostgres(dbpool)

	gateway := payment.NewStub()
	bus := events.NewBus()

	cartService := cartsvc.New(cartRepo, productRepo)
	customerService := customersvc.New(customerRepo, cfg.JWTSecret, cfg.JWTTTL)
	checkoutService := checkoutsvc.New(cartService, customerService, orderRepo, gateway, bus, cfg.ShippingChargeCents, logger)
	orderService := ordersvc.New(orderRepo, bus, logger)

	notify.New(nil, logger).Register(bus)
	wishlistsvc.NewReconciler(wishlistRepo, logger).Register(bus)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Sessions:   sessions,
		SessionTTL: cfg.SessionTTL,
		Products:   productRepo,
		Carts:      cartService,
		Customers:  customerService,
		Checkout:   checkoutService,
		Orders:     orderService,
		Wishlists:  wishlistRepo,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
