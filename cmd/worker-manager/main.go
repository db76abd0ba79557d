// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"recruitment-workers/internal/api"
	"recruitment-workers/internal/common/aws"
	"recruitment-workers/internal/common/camunda"
	"recruitment-workers/internal/common/config"
	"recruitment-workers/internal/common/database"
	httpx "recruitment-workers/internal/common/http"
	"recruitment-workers/internal/common/logger"
	"recruitment-workers/internal/common/observability"
	"recruitment-workers/internal/common/validation"
	"recruitment-workers/internal/compliance"
	"recruitment-workers/internal/rules"
	"recruitment-workers/internal/tasks"
	"recruitment-workers/internal/workflow"
	"recruitment-workers/pkg/registry"

	// Workflow Workers (3)
	ovs "recruitment-workers/internal/workers/workflow/override-stage"
	pst "recruitment-workers/internal/workers/workflow/perform-stage-transition"
	vst "recruitment-workers/internal/workers/workflow/validate-stage-transition"

	// Compliance Workers (2)
	css "recruitment-workers/internal/workers/compliance/check-stage-sla"
	evc "recruitment-workers/internal/workers/compliance/evaluate-compliance"

	// Operations Workers (2)
	gsa "recruitment-workers/internal/workers/operations/generate-system-alerts"
	gwq "recruitment-workers/internal/workers/operations/generate-work-queue"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: cfg.App.Name,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	ctx := context.Background()

	obsOpts := []observability.Option{observability.WithLogger(log)}
	if cfg.Tracing.Enabled {
		exporter, err := observability.NewOTLPExporter(ctx, cfg.Tracing.Endpoint, cfg.Tracing.Insecure)
		if err != nil {
			zapLog.Fatal("failed to create trace exporter", zap.Error(err))
		}
		obsOpts = append(obsOpts,
			observability.WithExporter(exporter),
			observability.WithSampleRatio(cfg.Tracing.SampleRatio),
		)
		zapLog.Info("Tracing enabled", zap.String("endpoint", cfg.Tracing.Endpoint))
	} else {
		zapLog.Info("Tracing disabled; spans are not exported")
	}
	obs := observability.New(cfg.App.Name, obsOpts...)
	defer obs.Shutdown()

	// --- Zeebe ---
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	repo := database.NewCandidateRepository(pg)
	if err := repo.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Redis ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Rules and engine ---
	countries := rules.DefaultCountryTable()
	if cfg.Compliance.RulesFile != "" {
		loaded, err := rules.LoadCountryTable(cfg.Compliance.RulesFile)
		if err != nil {
			zapLog.Warn("country rules file unusable, using built-in rules",
				zap.String("path", cfg.Compliance.RulesFile), zap.Error(err))
		} else {
			countries = loaded
		}
	}
	zapLog.Info("country rules loaded", zap.Strings("countries", countries.Countries()))

	evaluator := compliance.NewEvaluator(countries, cfg.Compliance.Config)
	engine := workflow.NewEngine(
		workflow.DefaultRequirements(countries),
		evaluator,
		workflow.DefaultSLATable().Merge(cfg.Workflow.SLAOverrides),
		workflow.WithElevatedRoles(cfg.Workflow.Roles()...),
	)
	generator := tasks.NewGenerator(engine, cfg.Tasks)

	mutator := database.NewMutator(repo, redis.Locker(config.GetDuration(cfg.Workflow.LockTTL)))
	dedup := redis.Deduplicator(cfg.Notifications.DedupTTL())
	indexer := database.NewWorkQueueIndexer(esClient, cfg.Database.Elasticsearch.WorkQueueIndex)

	// --- Input validation ---
	var validator *validation.SchemaValidator
	if cfg.Registry.ValidateInputs {
		reg, err := registry.LoadRegistry(cfg.Registry.Path)
		if err != nil {
			zapLog.Fatal("activity registry load failed", zap.Error(err))
		}
		validator, err = validation.NewSchemaValidator(reg)
		if err != nil {
			zapLog.Fatal("activity registry schemas invalid", zap.Error(err))
		}
	}

	// --- Notifications ---
	var notifier *aws.Notifier
	if cfg.Notifications.Enabled {
		notifier, err = aws.NewNotifierFromConfig(ctx, cfg.Notifications, log)
		if err != nil {
			zapLog.Fatal("notifier init failed", zap.Error(err))
		}
	}

	runtime := func(taskType string, fallback time.Duration) camunda.Runtime {
		timeout := fallback
		if wc, ok := cfg.Workers[taskType]; ok && wc.Timeout > 0 {
			timeout = config.GetDuration(wc.Timeout)
		}
		return camunda.NewRuntime(taskType, timeout, validator, obs, log)
	}

	// --- Workers ---
	pool := camunda.NewPool(zeebeClient.GetClient(), log)

	{
		hc := vst.LoadConfig()
		h := vst.NewHandler(hc, repo, engine, runtime(vst.TaskType, hc.Timeout))
		pool.Start(vst.TaskType, config.GetWorkerConfig(cfg, vst.TaskType), h.Handle)
	}
	{
		hc := pst.LoadConfig()
		h := pst.NewHandler(hc, mutator, engine, runtime(pst.TaskType, hc.Timeout))
		pool.Start(pst.TaskType, config.GetWorkerConfig(cfg, pst.TaskType), h.Handle)
	}
	{
		hc := ovs.LoadConfig()
		h := ovs.NewHandler(hc, mutator, engine, runtime(ovs.TaskType, hc.Timeout))
		pool.Start(ovs.TaskType, config.GetWorkerConfig(cfg, ovs.TaskType), h.Handle)
	}
	{
		hc := css.LoadConfig()
		h := css.NewHandler(hc, repo, engine, runtime(css.TaskType, hc.Timeout))
		pool.Start(css.TaskType, config.GetWorkerConfig(cfg, css.TaskType), h.Handle)
	}
	{
		hc := evc.LoadConfig()
		h := evc.NewHandler(hc, repo, evaluator, dedup, notifier, runtime(evc.TaskType, hc.Timeout))
		pool.Start(evc.TaskType, config.GetWorkerConfig(cfg, evc.TaskType), h.Handle)
	}
	{
		hc := gwq.LoadConfig()
		h := gwq.NewHandler(hc, repo, generator, indexer, runtime(gwq.TaskType, hc.Timeout))
		pool.Start(gwq.TaskType, config.GetWorkerConfig(cfg, gwq.TaskType), h.Handle)
	}
	{
		hc := gsa.LoadConfig()
		h := gsa.NewHandler(hc, repo, generator, dedup, notifier, runtime(gsa.TaskType, hc.Timeout))
		pool.Start(gsa.TaskType, config.GetWorkerConfig(cfg, gsa.TaskType), h.Handle)
	}

	zapLog.Info("workers registered", zap.Strings("taskTypes", pool.TaskTypes()))

	// --- Ops API ---
	router := api.NewRouter(api.Dependencies{
		Store:     repo,
		Engine:    engine,
		Generator: generator,
		Checks: map[string]api.Check{
			"postgres":      pg.Ping,
			"redis":         redis.Ping,
			"elasticsearch": esClient.Ping,
			"zeebe":         zeebeClient.HealthCheck,
		},
		Gatherer: prometheus.DefaultGatherer,
		Logger:   log,
	})
	srv := httpx.NewServer(cfg.HTTP.Port, config.GetDuration(cfg.HTTP.ReadTimeout), router)
	go func() {
		zapLog.Info("ops server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("ops server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("ops server shutdown failed", zap.Error(err))
	}
	pool.Close()
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}
