package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joao-fontenele/storefront/internal/account"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/session"
	"github.com/joao-fontenele/storefront/internal/storefront"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const serviceName = "storefront"

func main() {
	ctx := context.Background()

	cfg, err := config.LoadStorefront()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(serviceName, cfg.SlogLevel())

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.ServiceVersion, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.ConnectPostgres(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = rdb.Close() }()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	var publisher checkout.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrdersTopic, logger)
		defer func() { _ = producer.Close() }()
		publisher = producer
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events are disabled")
	}

	sessions := session.NewManager(rdb, cfg.SessionTTL)
	cookies := session.Cookies{Name: cfg.SessionCookie, Secure: cfg.SecureCookies}

	productRepo := catalog.NewProductRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	userRepo := account.NewUserRepository(db)

	catalogSvc := catalog.NewService(productRepo, logger)
	cartSvc := cart.NewService(cart.NewRedisStore(rdb, cfg.SessionTTL), logger)
	accountSvc := account.NewService(userRepo, logger)
	checkoutSvc, err := checkout.NewService(cartSvc, catalogSvc, orderRepo, publisher, logger)
	if err != nil {
		logger.Error("failed to create checkout service", "error", err)
		os.Exit(1)
	}

	router := storefront.NewRouter(storefront.Handlers{
		Catalog:  catalog.NewHandler(catalogSvc, logger),
		Cart:     cart.NewHandler(cartSvc, catalogSvc, logger),
		Checkout: checkout.NewHandler(checkoutSvc, logger),
		Orders:   orders.NewHandler(orderRepo, logger),
		Account:  account.NewHandler(accountSvc, sessions, cookies, cartSvc, logger),
	}, storefront.Options{
		Sessions:       sessions,
		Cookies:        cookies,
		AdminToken:     cfg.AdminToken,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        metricsHandler,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      storefront.Instrument(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
