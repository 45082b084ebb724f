package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dhoini/storefront-billing/internal/api/rest"
	"github.com/Dhoini/storefront-billing/internal/api/rest/handlers"
	"github.com/Dhoini/storefront-billing/internal/config"
	"github.com/Dhoini/storefront-billing/internal/integration/primer"
	"github.com/Dhoini/storefront-billing/internal/kafka"
	"github.com/Dhoini/storefront-billing/internal/metrics"
	"github.com/Dhoini/storefront-billing/internal/repository"
	"github.com/Dhoini/storefront-billing/internal/repository/postgres"
	"github.com/Dhoini/storefront-billing/internal/scheduler"
	"github.com/Dhoini/storefront-billing/internal/service"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App собирает все компоненты сервиса и управляет их жизненным циклом
type App struct {
	cfg       *config.Config
	log       *logger.Logger
	server    *http.Server
	scheduler *scheduler.Scheduler
	dbPool    *pgxpool.Pool
	producer  kafka.Producer
}

// New создает приложение: подключает хранилища, собирает сервисы и роутер
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	app := &App{
		cfg: cfg,
		log: log,
	}

	// Хранилище: PostgreSQL, либо in-memory для локальной разработки
	var subscriptions repository.SubscriptionRepository
	var products repository.ProductRepository

	if cfg.Database.DSN != "" {
		pool, err := postgres.NewConnection(ctx, cfg.Database.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.dbPool = pool
		subscriptions = repository.NewPostgresSubscriptionRepository(pool, log)
		products = repository.NewPostgresProductRepository(pool, log)
	} else {
		log.Warn("DATABASE_DSN is empty, using in-memory storage")
		subscriptions = repository.NewInMemorySubscriptionRepository(log)
		products = repository.NewInMemoryProductRepository(log)
	}

	// Кэш продуктов поверх основного хранилища
	if cfg.Redis.Enabled {
		cache, err := repository.NewRedisCacheRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Warnw("Redis is unavailable, product cache disabled", "error", err)
		} else {
			products = repository.NewCachedProductRepository(products, cache, log)
		}
	}

	// Kafka для событий жизненного цикла подписок
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, log)
		if err != nil {
			log.Warnw("Kafka is unavailable, subscription events disabled", "error", err)
			app.producer = kafka.NoOpProducer{}
		} else {
			app.producer = producer
		}
	} else {
		app.producer = kafka.NoOpProducer{}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	billingMetrics := metrics.NewBillingMetrics(registry, log)

	gateway := primer.NewClient(primer.Config{
		APIKey:     cfg.Primer.APIKey,
		BaseURL:    cfg.Primer.BaseURL,
		APIVersion: cfg.Primer.APIVersion,
	}, log)
	verifier := primer.NewSignatureVerifier(cfg.Primer.WebhookSecret, log)

	webhookService := service.NewWebhookService(subscriptions, products, app.producer, billingMetrics, cfg.Billing, log)
	billingService := service.NewBillingService(subscriptions, gateway, app.producer, billingMetrics, cfg.Billing, log)
	checkoutService := service.NewCheckoutService(products, gateway, cfg.Billing, log)

	app.scheduler = scheduler.New(billingService, log)

	router := rest.SetupRouter(rest.Handlers{
		Webhook:  handlers.NewWebhookHandler(webhookService, verifier, log),
		Billing:  handlers.NewBillingHandler(billingService, log),
		Checkout: handlers.NewCheckoutHandler(checkoutService, log),
		Health:   handlers.NewHealthHandler(),
	}, registry, log)

	app.server = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return app, nil
}

// Run запускает HTTP сервер и планировщик и блокируется до сигнала остановки
func (a *App) Run() error {
	if err := a.scheduler.Start(a.cfg.Billing.CronSchedule); err != nil {
		return fmt.Errorf("failed to start billing scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infow("HTTP server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case sig := <-quit:
		a.log.Infow("Shutdown signal received", "signal", sig.String())
	}

	return a.shutdown()
}

// shutdown корректно останавливает компоненты в обратном порядке запуска
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Errorw("HTTP server shutdown failed", "error", err)
	}

	a.scheduler.Stop()

	if err := a.producer.Close(); err != nil {
		a.log.Errorw("Kafka producer close failed", "error", err)
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("Service stopped")
	return nil
}
