// cmd/worker-manager/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"advisor-match-workers/internal/common/auth"
	"advisor-match-workers/internal/common/aws"
	"advisor-match-workers/internal/common/camunda"
	"advisor-match-workers/internal/common/config"
	"advisor-match-workers/internal/common/database"
	"advisor-match-workers/internal/common/errors"
	commonhttp "advisor-match-workers/internal/common/http"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/common/observability"
	"advisor-match-workers/internal/search"
	"advisor-match-workers/internal/store"
)

func main() {
	// --- Init Config ---
	cfg, err := config.Load()
	if err != nil {
		// the logger is configured from cfg, so fall back to a console logger here
		logger.New("info", "console").Fatal("failed to load config", zap.Error(err))
	}

	// --- Init Logger ---
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
		"env":     cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init Observability ---
	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
	}

	// --- Init Zeebe with retry ---
	var zeebeClient zbc.Client
	err = camunda.RetryWithBackoff(ctx, camunda.DefaultRetryConfig, log, "Zeebe connection", func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Camunda.RequestTimeout))
		defer cancel()
		var err error
		zeebeClient, err = camunda.Connect(cctx, cfg.Camunda.BrokerAddress, true)
		return err
	})
	if err != nil {
		zapLog.Fatal("zeebe failed after retries", zap.Error(err))
	}
	defer zeebeClient.Close()
	log.Info("Zeebe connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

	// --- Init PostgreSQL with retry ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres config invalid", zap.Error(err))
	}
	defer pg.Close()
	if err := camunda.RetryWithBackoff(ctx, camunda.DefaultRetryConfig, log, "PostgreSQL connection", pg.Ping); err != nil {
		connErr, ok := errors.AsStandardError(err)
		if !ok {
			connErr = errors.NewDatabaseConnectionFailedError(err)
		}
		zapLog.Fatal("postgres failed after retries",
			zap.String("errorCode", string(connErr.Code)),
			zap.String("details", connErr.Details),
			zap.Error(err),
		)
	}
	if cfg.Database.Postgres.AutoMigrate {
		if err := store.Migrate(ctx, pg.DB); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		log.Info("schema migrated", nil)
	}

	// --- Init Redis with retry ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis config invalid", zap.Error(err))
	}
	defer rdb.Close()
	if err := camunda.RetryWithBackoff(ctx, camunda.DefaultRetryConfig, log, "Redis connection", rdb.Ping); err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}

	// --- Init Elasticsearch with retry ---
	// The directory is optional: workers fall back to Postgres when it is missing.
	var directory *search.Directory
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err == nil {
		esRetry := camunda.DefaultRetryConfig
		esRetry.MaxRetries = 5
		err = camunda.RetryWithBackoff(ctx, esRetry, log, "Elasticsearch connection", es.Ping)
	}
	if err == nil {
		directory = search.NewDirectory(es.Client, cfg.Search.AdvisorIndex, log)
		err = directory.EnsureIndex(ctx)
	}
	if err != nil {
		log.Warn("advisor directory unavailable, search falls back to postgres", map[string]interface{}{"error": err.Error()})
		directory = nil
	}

	// --- Init shared services ---
	st := store.New(pg.DB, log, store.WithCache(rdb.Client, time.Duration(cfg.Matching.ProfileCacheTTL)*time.Second))
	deps := &dependencies{
		cfg:       cfg,
		store:     st,
		locker:    store.NewLocker(rdb.Client, config.GetDuration(cfg.Matching.LockTTL)),
		sessions:  auth.NewSessionManager(rdb.Client, time.Duration(cfg.Auth.SessionTTL)*time.Second),
		directory: directory,
		obs:       obs,
		log:       log,
	}
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to load AWS config", zap.Error(err))
		}
		if cfg.Notifications.Email.Enabled {
			deps.email = aws.NewSESClient(awsCfg, cfg.Notifications.Email.FromEmail)
		}
		if cfg.Notifications.SMS.Enabled {
			deps.sms = aws.NewSNSClient(awsCfg)
		}
	}

	// --- Register Workers ---
	jobWorkers := registerWorkers(zeebeClient, deps)
	log.Info("workers registered", map[string]interface{}{"count": len(jobWorkers)})

	// --- Health & Metrics Server ---
	checks := map[string]commonhttp.Check{
		"postgres": pg.Ping,
		"redis":    rdb.Ping,
	}
	if directory != nil {
		checks["elasticsearch"] = es.Ping
	}
	server := commonhttp.NewServer(cfg.HTTP.Address, checks, log)
	server.Start()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	closeWorkers(jobWorkers)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping health server", map[string]interface{}{"error": err.Error()})
	}
	if obs != nil {
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.Error("error flushing metrics", map[string]interface{}{"error": err.Error()})
		}
	}

	log.Info("worker manager stopped gracefully", nil)
}

// closeWorkers stops polling and waits for in-flight jobs to finish.
func closeWorkers(jobWorkers []worker.JobWorker) {
	for _, jw := range jobWorkers {
		jw.Close()
	}
	for _, jw := range jobWorkers {
		jw.AwaitClose()
	}
}
