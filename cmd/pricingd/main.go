package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devco/pricingcore/internal/audit"
	"github.com/devco/pricingcore/internal/config"
	"github.com/devco/pricingcore/internal/httpserver"
	"github.com/devco/pricingcore/internal/ops"
	"github.com/devco/pricingcore/internal/platform"
	"github.com/devco/pricingcore/internal/schedlock"
	"github.com/devco/pricingcore/internal/service"
	"github.com/devco/pricingcore/internal/store"
	"github.com/devco/pricingcore/internal/telemetry"
	"github.com/devco/pricingcore/internal/version"
	"github.com/devco/pricingcore/pkg/billing"
	"github.com/devco/pricingcore/pkg/orchestration"
	"github.com/devco/pricingcore/pkg/pms"
	"github.com/devco/pricingcore/pkg/pricing"
	"github.com/devco/pricingcore/pkg/scheduler"
	"github.com/devco/pricingcore/pkg/webhook"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("starting pricingcore", "mode", cfg.Mode, "listen", cfg.ListenAddr())

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, "pricingcore", version.Version)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("shutting down tracer", "error", err)
		}
	}()

	pool, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	metricsReg := telemetry.NewMetricsRegistry(telemetry.All()...)

	st := store.New(pool)

	auditWriter := audit.NewWriter(pool, logger)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	notifier := ops.NewNotifier(cfg.SlackOpsBotToken, cfg.SlackOpsChannel, logger)

	pmsRegistry := pms.NewRegistry()
	pmsRegistry.Register(pms.NewSmoobuAdapter("https://login.smoobu.com/api", http.DefaultClient))
	pmsRegistry.Register(pms.NewBeds24Adapter("https://api.beds24.com/v2", http.DefaultClient))
	pmsRegistry.Register(pms.NewDemoAdapter(nil))

	var aiStrategy *pricing.AIStrategy
	if cfg.OpenAIAPIKey != "" {
		aiStrategy = pricing.NewAIStrategy(cfg.OpenAIAPIKey, cfg.AIModel)
	} else {
		logger.Info("ai pricing fallback disabled (OPENAI_API_KEY not set)")
	}
	calendarBuilder := pricing.NewBuilder(aiStrategy)

	stripeClient := billing.NewLiveClient(cfg.StripeSecretKey)
	prices := billing.PriceIDs{Parent: cfg.ParentPriceID(), Child: cfg.StripePriceChildID}
	reconciler := billing.NewReconciler(stripeClient, prices, logger)

	billingTrigger := service.NewBillingTrigger(st, reconciler, logger)
	webhookStore := service.NewWebhookStoreAdapter(st, notifier, logger)
	webhookHandler := webhook.NewHandler(webhookStore, logger)

	defaultTimezone, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		logger.Warn("invalid DEFAULT_TIMEZONE, falling back to UTC", "value", cfg.DefaultTimezone)
		defaultTimezone = time.UTC
	}

	repricer := service.NewPropertyRepricer(st, calendarBuilder, pmsRegistry, logger)
	schedulerAdapter := service.NewSchedulerAdapter(st, defaultTimezone)
	tickInterval, err := time.ParseDuration(cfg.SchedulerTick)
	if err != nil {
		return fmt.Errorf("parsing SCHEDULER_TICK_INTERVAL: %w", err)
	}
	propertyTimeout, err := time.ParseDuration(cfg.SchedulerPropertyTimeout)
	if err != nil {
		return fmt.Errorf("parsing SCHEDULER_PROPERTY_TIMEOUT: %w", err)
	}
	sched := scheduler.New(schedulerAdapter, repricer, logger, cfg.SchedulerWorkers, propertyTimeout)

	lock := schedlock.NewTickLock(rdb, tickInterval)
	go runSchedulerLoop(ctx, sched, lock, tickInterval, logger)

	orchestrator := orchestration.New(auditWriter, billingTrigger)
	propertySync := service.NewPropertySync(st, pmsRegistry, logger)
	propertiesHandler := httpserver.NewPropertiesHandler(orchestrator, st, propertySync, logger)

	srv := httpserver.NewServer(logger, metricsReg, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	srv.Router.Method("POST", "/webhooks/stripe", httpserver.NewStripeWebhookHandler(webhookHandler, cfg.StripeWebhookSecret, logger))
	srv.Router.Post("/properties", propertiesHandler.HandleCreateProperty)
	srv.Router.Patch("/properties/{id}/status", propertiesHandler.HandleChangeStatus)
	srv.Router.Patch("/properties/{id}/pricing-rules", propertiesHandler.HandleUpdatePricingRules)
	srv.Router.Post("/properties/{id}/group", propertiesHandler.HandleAddToGroup)
	srv.Router.Post("/properties/{id}/reservations", propertiesHandler.HandlePushReservations)
	srv.Router.Post("/properties/{id}/reservations/pull", propertiesHandler.HandlePullReservations)

	httpSrv := &http.Server{Addr: cfg.ListenAddr(), Handler: srv.Router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutting down http server", "error", err)
		}
	}()

	logger.Info("worker started")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// runSchedulerLoop runs the scheduler tick, arbitrating ownership across
// replicas via the Redis tick lock so a clustered deployment never
// reprices the same property twice in one hour.
func runSchedulerLoop(ctx context.Context, sched *scheduler.Scheduler, lock *schedlock.TickLock, tick time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			won, err := lock.Acquire(ctx, now)
			if err != nil {
				logger.Error("acquiring scheduler tick lock", "error", err)
				continue
			}
			if !won {
				continue
			}
			sched.Tick(ctx, now)
		}
	}
}
