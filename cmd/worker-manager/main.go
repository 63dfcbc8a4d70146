// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	awsclient "subtrack-workers/internal/common/aws"
	"subtrack-workers/internal/common/camunda"
	"subtrack-workers/internal/common/config"
	"subtrack-workers/internal/common/database"
	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/common/observability"
	"subtrack-workers/internal/common/usage"
	"subtrack-workers/internal/common/validation"
	"subtrack-workers/internal/entitlements"
	isx "subtrack-workers/internal/workers/import/index-subscriptions"
	"subtrack-workers/pkg/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).
		With(zap.String("service", cfg.App.Name), zap.String("version", cfg.App.Version))
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	obs, err := observability.New(cfg.Observability.ServiceName)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Stores ---
	var pg *database.PostgresClient
	err = database.RetryWithBackoff(ctx, log, "PostgreSQL connection", 15, 2*time.Second, func(ctx context.Context) error {
		var err error
		if pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
			return err
		}
		return pg.Ping(ctx)
	})
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.CheckSchema(ctx); err != nil {
		zapLog.Fatal("postgres schema check failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	var es *database.ElasticsearchClient
	err = database.RetryWithBackoff(ctx, log, "Elasticsearch connection", 15, 2*time.Second, func(ctx context.Context) error {
		var err error
		if es, err = database.NewElasticsearch(cfg.Database.Elasticsearch); err != nil {
			return err
		}
		return es.Ping(ctx)
	})
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")
	if config.IsWorkerEnabled(cfg, isx.TaskType) {
		created, err := es.EnsureIndex(ctx, cfg.Import.IndexName)
		if err != nil {
			zapLog.Fatal("subscriptions index setup failed", zap.Error(err), zap.String("index", cfg.Import.IndexName))
		}
		if created {
			zapLog.Info("subscriptions index created", zap.String("index", cfg.Import.IndexName))
		}
	}

	var rdb *database.RedisClient
	err = database.RetryWithBackoff(ctx, log, "Redis connection", 10, 2*time.Second, func(ctx context.Context) error {
		var err error
		if rdb, err = database.NewRedis(cfg.Database.Redis); err != nil {
			return err
		}
		return rdb.Ping(ctx)
	})
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	cached, err := rdb.CachedUsageEntries(ctx)
	if err != nil {
		zapLog.Warn("could not count cached usage entries", zap.Error(err))
	}
	zapLog.Info("Redis connected successfully", zap.Int("cachedUsageEntries", cached))

	// --- AWS ---
	storageAWS, err := awsclient.LoadConfig(ctx, cfg.Storage.Region)
	if err != nil {
		zapLog.Fatal("aws config for storage failed", zap.Error(err))
	}
	notifyAWS, err := awsclient.LoadConfig(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws config for notifications failed", zap.Error(err))
	}

	// --- Catalog and registry ---
	catalog := entitlements.DefaultCatalog()
	if cfg.Entitlements.PlansPath != "" {
		if catalog, err = entitlements.LoadCatalog(cfg.Entitlements.PlansPath); err != nil {
			zapLog.Fatal("plan catalog load failed", zap.Error(err), zap.String("path", cfg.Entitlements.PlansPath))
		}
	}

	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Warn("activity registry unavailable, using built-in input schemas",
			zap.Error(err), zap.String("path", cfg.RegistryPath))
		reg = &registry.ActivityRegistry{}
	}

	schemas, err := validation.NewSchemaValidator(0)
	if err != nil {
		zapLog.Fatal("schema validator init failed", zap.Error(err))
	}

	deps := &dependencies{
		db:        pg.DB,
		es:        es.Client,
		s3:        awsclient.NewS3Client(storageAWS, awsclient.S3Options{Endpoint: cfg.Storage.Endpoint, UsePathStyle: cfg.Storage.UsePathStyle}),
		ses:       awsclient.NewSESClient(notifyAWS),
		sns:       awsclient.NewSNSClient(notifyAWS),
		evaluator: entitlements.NewEvaluator(catalog),
		usage:     usage.NewStore(pg.DB, rdb.Client, cfg.UsageCacheTTL(), log),
		registry:  reg,
		schemas:   schemas,
	}

	workers, err := startWorkers(cfg, deps, zeebe.GetClient(), obs, log)
	if err != nil {
		zapLog.Fatal("worker registration failed", zap.Error(err))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr: cfg.Observability.MetricsAddr,
		Handler: newHealthMux(map[string]readinessCheck{
			"zeebe":    zeebe.HealthCheck,
			"postgres": pg.Ping,
			"redis":    rdb.Ping,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped gracefully")
}
