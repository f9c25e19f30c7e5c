package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	app_customers "kiosk/internal/app/customers"
	app_orders "kiosk/internal/app/orders"
	app_products "kiosk/internal/app/products"
	"kiosk/internal/config"
	http_customers "kiosk/internal/handler/http/customers"
	http_orders "kiosk/internal/handler/http/orders"
	http_products "kiosk/internal/handler/http/products"
	http_webhook "kiosk/internal/handler/http/webhook"
	"kiosk/internal/infrastructure/database"
	"kiosk/internal/infrastructure/kafka"
	"kiosk/internal/payment/mercadopago"
	postgres_customer_repo "kiosk/internal/repository/customer_repo/postgres"
	postgres_order_repo "kiosk/internal/repository/order_repo/postgres"
	postgres_outbox_repo "kiosk/internal/repository/outbox_repo/postgres"
	postgres_product_repo "kiosk/internal/repository/product_repo/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("Kiosk service starting...")

	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.DBHost,
		Port:     cfg.DBConfig.DBPort,
		User:     cfg.DBConfig.DBUser,
		Password: cfg.DBConfig.DBPassword,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.DBSSLMode,
	}

	var db *sql.DB
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			appLogger.Info("Connected to PostgreSQL database")
			break
		}
		appLogger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}

	if db == nil {
		appLogger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		}
	}()

	appLogger.Info("Running database migrations...")
	migrateDSN := "postgres://" + cfg.GetDBMigrationConnectionString()
	m, err := migrate.New(cfg.MigrationsPath, migrateDSN)
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed")

	kafkaProducer, err := kafka.NewProducer(cfg.GetKafkaBrokers(), appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create Kafka producer", zap.Error(err))
	}
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			appLogger.Error("Error closing Kafka producer", zap.Error(err))
		}
	}()

	orderRepository := postgres_order_repo.NewOrderRepository(db, appLogger)
	productRepository := postgres_product_repo.NewProductRepository(db, appLogger)
	customerRepository := postgres_customer_repo.NewCustomerRepository(db, appLogger)
	outboxRepository := postgres_outbox_repo.NewOutboxRepository(db, appLogger)

	paymentProvider := mercadopago.NewClient(mercadopago.Config{
		AccessToken:    cfg.MercadoPagoAccessToken,
		UserID:         cfg.MercadoPagoUserID,
		ExternalPosID:  cfg.MercadoPagoExternalPosID,
		WebhookBaseURL: cfg.WebhookBaseURL,
		Timeout:        cfg.PaymentTimeout,
	}, appLogger.With(zap.String("component", "MercadoPagoClient")))

	orderService := app_orders.NewOrderService(
		orderRepository,
		productRepository,
		outboxRepository,
		paymentProvider,
		kafkaProducer,
		cfg.KafkaOrderStatusTopic,
		appLogger,
	)
	productService := app_products.NewProductService(productRepository, appLogger)
	customerService := app_customers.NewCustomerService(customerRepository, appLogger)

	go func() {
		ticker := time.NewTicker(cfg.OutboxPollInterval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.OutboxPollTimeout)
			if err := orderService.ProcessOutbox(ctx); err != nil {
				appLogger.Error("Error processing outbox", zap.Error(err))
			}
			cancel()
		}
	}()
	appLogger.Info("Transactional outbox sender started")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	http_orders.RegisterRoutes(r, orderService, appLogger)
	http_products.RegisterRoutes(r, productService, appLogger)
	http_customers.RegisterRoutes(r, customerService, appLogger)
	http_webhook.RegisterRoutes(r, orderService, paymentProvider, appLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	serverAddr := ":" + cfg.HTTPPort
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	appLogger.Info("Kiosk service started", zap.String("address", serverAddr))

	<-sigChan

	appLogger.Info("Shutting down kiosk service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Kiosk service stopped.")
}
