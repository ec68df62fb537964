package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	appadmin "github.com/shopflow-io/shopflow/internal/application/admin"
	appcart "github.com/shopflow-io/shopflow/internal/application/cart"
	appcheckout "github.com/shopflow-io/shopflow/internal/application/checkout"
	apporder "github.com/shopflow-io/shopflow/internal/application/order"
	apppayment "github.com/shopflow-io/shopflow/internal/application/payment"
	domainaudit "github.com/shopflow-io/shopflow/internal/domain/audit"
	domaincart "github.com/shopflow-io/shopflow/internal/domain/cart"
	domainidentity "github.com/shopflow-io/shopflow/internal/domain/identity"
	domainorder "github.com/shopflow-io/shopflow/internal/domain/order"
	domainpayment "github.com/shopflow-io/shopflow/internal/domain/payment"
	"github.com/shopflow-io/shopflow/internal/infrastructure/id"
	identityprovider "github.com/shopflow-io/shopflow/internal/infrastructure/identity"
	"github.com/shopflow-io/shopflow/internal/infrastructure/memory"
	infraobs "github.com/shopflow-io/shopflow/internal/infrastructure/observability"
	"github.com/shopflow-io/shopflow/internal/infrastructure/observability/oteltrace"
	"github.com/shopflow-io/shopflow/internal/infrastructure/observability/prometrics"
	"github.com/shopflow-io/shopflow/internal/infrastructure/observability/zaplogger"
	"github.com/shopflow-io/shopflow/internal/infrastructure/outbox"
	"github.com/shopflow-io/shopflow/internal/infrastructure/postgres"
	"github.com/shopflow-io/shopflow/internal/infrastructure/redisstore"
	"github.com/shopflow-io/shopflow/internal/infrastructure/safepay"
	"github.com/shopflow-io/shopflow/internal/observability"
	httppresentation "github.com/shopflow-io/shopflow/internal/presentation/http"
	workerpresentation "github.com/shopflow-io/shopflow/internal/presentation/worker"
)

func main() {
	serviceName := getenvDefault("SERVICE_NAME", "shopflow")
	env := getenvDefault("ENV", "dev")

	logger := zaplogger.New(
		observability.F("service", serviceName),
		observability.F("env", env),
	)
	defer syncLogger(logger)

	tel := buildObservability(serviceName, logger)
	sysLog := tel.Logger().With(observability.F("component", "main"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres when DATABASE_URL is set, in-process maps otherwise.
	var (
		orderRepo   domainorder.Repository
		paymentRepo domainpayment.Repository
		auditRepo   domainaudit.Repository
	)
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		if err := postgres.RunMigrations(dsn); err != nil {
			sysLog.Error("postgres_migrations_failed", observability.F("error", err.Error()))
			os.Exit(1)
		}
		pool, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			sysLog.Error("postgres_connect_failed", observability.F("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		orderRepo = postgres.NewOrderRepository(pool)
		paymentRepo = postgres.NewPaymentRepository(pool)
		auditRepo = postgres.NewAuditRepository(pool)
		sysLog.Info("storage_backend_selected", observability.F("backend", "postgres"))
	} else {
		orderRepo = memory.NewOrderRepository()
		paymentRepo = memory.NewPaymentRepository()
		auditRepo = memory.NewAuditRepository()
		sysLog.Info("storage_backend_selected", observability.F("backend", "memory"))
	}

	// Carts and the rate limiter go to Redis when available, so sessions
	// survive restarts and the limit holds across instances.
	var (
		cartRepo domaincart.Repository
		limiter  apppayment.RateLimiter
	)
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		defer client.Close()
		cartRepo = redisstore.NewCartRepository(client)
		limiter = redisstore.NewRateLimiter(client)
		sysLog.Info("cart_backend_selected", observability.F("backend", "redis"))
	} else {
		cartRepo = memory.NewCartRepository()
		limiter = memory.NewRateLimiter()
		sysLog.Info("cart_backend_selected", observability.F("backend", "memory"))
	}

	sessionRepo := memory.NewCheckoutRepository()
	snapshotStore := memory.NewSnapshotStore()
	idGenerator := id.NewUUIDGenerator()

	identities := identityprovider.NewProvider([]identityprovider.Credential{
		{
			Email:    getenvDefault("ADMIN_EMAIL", "admin@shopflow.local"),
			Password: getenvDefault("ADMIN_PASSWORD", "admin"),
			Role:     domainidentity.RoleAdmin,
		},
		{
			Email:    getenvDefault("DEMO_USER_EMAIL", "customer@shopflow.local"),
			Password: getenvDefault("DEMO_USER_PASSWORD", "customer"),
			Role:     domainidentity.RoleCustomer,
		},
	})

	gateway := safepay.NewClient(
		os.Getenv("SAFEPAY_API_KEY"),
		getenvDefault("SAFEPAY_ENVIRONMENT", "sandbox"),
		tel.Logger(),
		safepayOptions()...,
	)

	bus := outbox.NewBus(tel.Logger())
	bus.Start(ctx)
	defer bus.Stop(context.Background())

	auditWorker := workerpresentation.NewAuditWorker(auditRepo, idGenerator, tel.Logger())
	auditWorker.Register(bus)

	cartService := appcart.NewService(cartRepo, tel.Logger())
	checkoutService := appcheckout.NewService(sessionRepo, snapshotStore, cartService, tel.Logger())
	placeOrder := appcheckout.NewPlaceOrderUseCase(sessionRepo, snapshotStore, cartService, orderRepo, idGenerator, bus, tel)
	orderService := apporder.NewService(orderRepo)
	initiate := apppayment.NewInitiateUseCase(identities, limiter, gateway, paymentRepo, orderRepo, idGenerator, tel)
	webhook := apppayment.NewWebhookUseCase(paymentRepo, orderRepo, bus, tel)
	adminService := appadmin.NewService(orderRepo, auditRepo, bus, tel.Logger())

	handler := httppresentation.NewHandler(
		cartService, checkoutService, placeOrder, orderService,
		initiate, webhook, adminService, identities, tel,
	)

	server := &http.Server{
		Addr:         getenvDefault("HTTP_ADDR", ":8080"),
		Handler:      handler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		sysLog.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			sysLog.Error("http_server_error", observability.F("error", err.Error()))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		sysLog.Error("http_server_shutdown_error", observability.F("error", err.Error()))
	} else {
		sysLog.Info("http_server_stopped")
	}
}

// buildObservability registers every metric instrument the application uses
// and assembles the provider handed to use cases and transports.
func buildObservability(serviceName string, logger observability.Logger) observability.Observability {
	registry := prometrics.New("", "")

	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: registry.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: registry.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests served.",
			"method", "route", "status",
		),
		observability.MExternalRequests: registry.Counter(
			string(observability.MExternalRequests),
			"Total number of calls to external peers.",
			"peer", "endpoint", "outcome",
		),
		observability.MWebhookEvents: registry.Counter(
			string(observability.MWebhookEvents),
			"Total number of payment webhook deliveries processed.",
			"state", "outcome",
		),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: registry.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			prometheus.DefBuckets,
			"use_case",
		),
		observability.MHTTPRequestDuration: registry.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP requests in seconds.",
			prometheus.DefBuckets,
			"method", "route", "status",
		),
		observability.MExternalRequestDuration: registry.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of calls to external peers in seconds.",
			prometheus.DefBuckets,
			"peer", "endpoint",
		),
	}

	return infraobs.New(oteltrace.New(serviceName), logger, counters, histograms)
}

func safepayOptions() []safepay.Option {
	var opts []safepay.Option
	if base := os.Getenv("SAFEPAY_BASE_URL"); base != "" {
		opts = append(opts, safepay.WithBaseURL(base))
	}
	return opts
}

func syncLogger(logger observability.Logger) {
	if s, ok := logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
