package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/marketbay/storefront/internal/api"
	"github.com/marketbay/storefront/internal/cart"
	"github.com/marketbay/storefront/internal/checkout"
	"github.com/marketbay/storefront/internal/config"
	"github.com/marketbay/storefront/internal/db"
	"github.com/marketbay/storefront/internal/logger"
	"github.com/marketbay/storefront/internal/order"
	"github.com/marketbay/storefront/internal/payment"
	"github.com/marketbay/storefront/internal/product"
	"github.com/marketbay/storefront/internal/publisher"
)

func main() {
	log := logger.New("storefront")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Mongo holds carts.
	mongoCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	mongoDB, err := cart.ConnectMongoDB(mongoCtx, cfg.MongoURI, cfg.MongoDBName)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		_ = mongoDB.Client().Disconnect(context.Background())
	}()

	cartRepo := cart.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create cart indexes")
	}

	// Redis serves the cart cache, checkout handoff and product views.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Postgres holds the catalog and orders.
	pgPort, err := strconv.Atoi(cfg.PostgresPort)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid postgres port")
	}
	sqlDB, err := db.Connect(&db.Credentials{
		Host:     cfg.PostgresHost,
		Port:     pgPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		DBName:   cfg.PostgresDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(sqlDB, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	cartService := cart.NewService(cartRepo, cart.NewRedisCache(redisClient), log)
	checkoutStore := checkout.NewStore(redisClient)
	productService := product.NewService(product.NewPostgresRepository(sqlDB), product.NewKV(redisClient), log)

	orderStore := order.NewRepository(sqlDB)

	var verifier *payment.SignatureVerifier
	if cfg.PaymentSecret != "" {
		verifier = payment.NewSignatureVerifier(cfg.PaymentSecret)
	}
	orderService := order.NewService(orderStore, verifier, log)

	var gateway payment.Gateway
	if cfg.PaymentEndpoint != "" {
		if cfg.PaymentSecret == "" {
			log.Fatal().Msg("PAYMENT_ENDPOINT is set but PAYMENT_SECRET is empty; payments could not be verified")
		}
		gateway = payment.NewHTTPGateway(cfg.PaymentEndpoint, cfg.PaymentAPIKey, nil)
	}

	// Outbox events flow to Kafka in the background.
	poller := publisher.NewOutboxPoller(orderStore, log, cfg.KafkaBrokers...)
	go poller.Run(ctx)
	defer poller.Close()

	router := api.NewRouter(api.RouterDeps{
		Carts:    api.NewCartHandler(cartService, cfg.RequestTimeout),
		Checkout: api.NewCheckoutHandler(cartService, checkoutStore, gateway, cfg.PaymentSuccessURL, cfg.PaymentCancelURL, cfg.RequestTimeout),
		Orders:   api.NewOrderHandler(orderService, checkoutStore, cartService, cfg.RequestTimeout),
		Products: api.NewProductHandler(productService, cfg.RequestTimeout),
		Admin:    api.NewAdminHandler(productService, cfg.RequestTimeout),
		Logger:   log,
		Timeout:  cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("shutting down server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server exited")
}
