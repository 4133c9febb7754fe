package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"dentallab/cmd"
	httpin "dentallab/internal/adapters/in/http"
	"dentallab/internal/adapters/out/kafka"
	"dentallab/internal/adapters/out/postgres"
	"dentallab/internal/adapters/out/s3store"
	"dentallab/internal/adapters/out/stripe"
	"dentallab/internal/core/application/usecases/commands"
	"dentallab/internal/jobs"
	"dentallab/internal/metrics"
	"dentallab/internal/tracing"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configs := getConfigs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:  "dentallab",
		OTLPEndpoint: configs.OTLPEndpoint,
		SampleRate:   configs.TraceSampleRate,
	})
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}

	gormDB, err := postgres.Open(postgres.DSN(
		configs.DBHost, configs.DBPort, configs.DBUser, configs.DBPassword, configs.DBName, configs.DBSslMode,
	))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := postgres.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	s3Client, err := s3store.NewClient(ctx, s3store.Config{
		Bucket:          configs.S3Bucket,
		Region:          configs.S3Region,
		Endpoint:        configs.S3Endpoint,
		AccessKeyID:     configs.S3AccessKeyID,
		SecretAccessKey: configs.S3SecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}

	publisher, err := kafka.NewPublisher(kafka.Config{
		Brokers: strings.Split(configs.KafkaHost, ","),
		Topic:   configs.KafkaOrderChangedTopic,
	})
	if err != nil {
		log.Fatalf("Failed to create Kafka publisher: %v", err)
	}
	defer publisher.Close()

	gateway := stripe.New(stripe.Config{
		APIKey:        configs.PaymentAPIKey,
		WebhookSecret: configs.PaymentWebhookSecret,
	}, m, logger)

	app := cmd.NewCompositionRoot(configs, gormDB, cmd.Adapters{
		Gateway:   gateway,
		Blobs:     s3store.New(s3Client, configs.S3Bucket),
		Publisher: publisher,
	}, m, logger)

	jobManager := startJobs(app, configs, logger)
	defer jobManager.StopAll()

	e := newWebServer(app, gateway, configs, m, logger)
	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), configs.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown failed", "error", err)
	}
}

func startJobs(app cmd.CompositionRoot, configs cmd.Config, logger *slog.Logger) *jobs.JobManager {
	relayCmd, err := commands.NewRelayOutboxCommand(configs.OutboxBatchSize, configs.OutboxMaxRetries)
	if err != nil {
		log.Fatalf("Invalid outbox relay settings: %v", err)
	}
	relayHandler := app.CreateRelayOutboxCommandHandler()

	jobManager := jobs.NewJobManager(
		jobs.NewOutboxRelayJob(&relayHandler, relayCmd, configs.OutboxRelaySchedule, logger),
	)
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}
	return jobManager
}

func newWebServer(
	app cmd.CompositionRoot, gateway *stripe.Gateway, configs cmd.Config, m *metrics.Metrics, logger *slog.Logger,
) *echo.Echo {
	createOrder := app.CreateCreateOrderCommandHandler()
	updateOrder := app.CreateUpdateOrderCommandHandler()
	transitionOrder := app.CreateTransitionOrderCommandHandler()
	forceOrderStatus := app.CreateForceOrderStatusCommandHandler()
	addOrderFile := app.CreateAddOrderFileCommandHandler()
	deleteOrder := app.CreateDeleteOrderCommandHandler()
	createCheckout := app.CreateCreateCheckoutCommandHandler()
	reconcilePayment := app.CreateReconcilePaymentCommandHandler()

	server := httpin.NewServer(httpin.Handlers{
		CreateOrder:      &createOrder,
		UpdateOrder:      &updateOrder,
		TransitionOrder:  &transitionOrder,
		ForceOrderStatus: &forceOrderStatus,
		AddOrderFile:     &addOrderFile,
		DeleteOrder:      &deleteOrder,
		CreateCheckout:   &createCheckout,
		ReconcilePayment: &reconcilePayment,
		GetOrder:         app.CreateGetOrderQueryHandler(),
		ListOrders:       app.CreateListOrdersQueryHandler(),
		ListLedger:       app.CreateListLedgerQueryHandler(),
		GetInvoice:       app.CreateGetInvoiceQueryHandler(),
	}, gateway, logger)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpin.NewRequestValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	}))

	server.Register(e, httpin.Authenticate([]byte(configs.JWTSecret)))
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	return e
}

func getConfigs() cmd.Config {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	config := cmd.Config{
		HTTPPort:               envOr("HTTP_PORT", "8080"),
		DBHost:                 envOr("DB_HOST", "localhost"),
		DBPort:                 envOr("DB_PORT", "5432"),
		DBUser:                 os.Getenv("DB_USER"),
		DBPassword:             os.Getenv("DB_PASSWORD"),
		DBName:                 os.Getenv("DB_NAME"),
		DBSslMode:              envOr("DB_SSLMODE", "disable"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		PaymentAPIKey:          os.Getenv("PAYMENT_API_KEY"),
		PaymentWebhookSecret:   os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		PaymentSuccessURL:      os.Getenv("PAYMENT_SUCCESS_URL"),
		PaymentCancelURL:       os.Getenv("PAYMENT_CANCEL_URL"),
		PaymentCurrency:        envOr("PAYMENT_CURRENCY", "EUR"),
		S3Bucket:               os.Getenv("S3_BUCKET"),
		S3Region:               envOr("S3_REGION", "eu-west-3"),
		S3Endpoint:             os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:          os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:      os.Getenv("S3_SECRET_ACCESS_KEY"),
		KafkaHost:              envOr("KAFKA_HOST", "localhost:9092"),
		KafkaOrderChangedTopic: envOr("KAFKA_ORDER_CHANGED_TOPIC", "orders.changed"),
		OutboxRelaySchedule:    os.Getenv("OUTBOX_RELAY_SCHEDULE"),
		OutboxBatchSize:        envInt("OUTBOX_BATCH_SIZE", 0),
		OutboxMaxRetries:       envInt("OUTBOX_MAX_RETRIES", 0),
		OTLPEndpoint:           os.Getenv("OTLP_ENDPOINT"),
		TraceSampleRate:        envFloat("TRACE_SAMPLE_RATE", 1),
		ShutdownTimeout:        envDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	if config.JWTSecret == "" {
		log.Fatalf("JWT_SECRET must be set")
	}
	return config
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s must be an integer: %v", key, err)
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("%s must be a number: %v", key, err)
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("%s must be a duration: %v", key, err)
	}
	return d
}
