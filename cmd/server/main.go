// Command server runs the loan decision engine: the public evaluation
// endpoint, parameter administration, audit queries and the drift
// monitor, over Postgres, Redis and Kafka when configured and
// in-process fallbacks when not.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"lendgate/internal/audit"
	audithandler "lendgate/internal/audit/handler"
	"lendgate/internal/bureau"
	"lendgate/internal/decision"
	decisionhandler "lendgate/internal/decision/handler"
	decisionmetrics "lendgate/internal/decision/metrics"
	"lendgate/internal/grading"
	"lendgate/internal/monitor"
	monitormetrics "lendgate/internal/monitor/metrics"
	"lendgate/internal/platform/config"
	"lendgate/internal/platform/httpserver"
	"lendgate/internal/platform/logger"
	platformredis "lendgate/internal/platform/redis"
	"lendgate/internal/policy"
	policymetrics "lendgate/internal/policy/metrics"
	"lendgate/internal/regparam"
	regparamhandler "lendgate/internal/regparam/handler"
	regparammetrics "lendgate/internal/regparam/metrics"
	"lendgate/internal/scoring"
	scoringmetrics "lendgate/internal/scoring/metrics"
	httptransport "lendgate/internal/transport/http"
)

const bureauCacheTTL = time.Hour

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores. Without a DSN everything runs in process, which is only
	// suitable for local development.
	var (
		paramStore regparam.Store = regparam.NewMemoryStore()
		auditStore audit.Store    = audit.NewMemoryStore()
		gradeStore grading.Store  = grading.NewMemoryStore()
	)
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		paramStore = regparam.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		gradeStore = grading.NewPostgresStore(db)
	} else {
		log.Warn("no postgres DSN configured, running on in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var (
		paramCache  regparam.Cache = regparam.NewMemoryCache(cfg.Engine.ResolverCacheTTL)
		bureauCache bureau.Cache   = bureau.NewMemoryCache(bureauCacheTTL)
	)
	if redisClient != nil {
		defer redisClient.Close()
		paramCache = regparam.NewRedisCache(redisClient.Client, cfg.Engine.ResolverCacheTTL, log)
		bureauCache = bureau.NewRedisCache(redisClient.Client, bureauCacheTTL)
	}

	// Audit: durable store plus an optional Kafka mirror for offline
	// consumers.
	recorderOpts := []audit.Option{audit.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		stream, err := audit.NewKafkaStream(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		defer stream.Close()
		recorderOpts = append(recorderOpts, audit.WithStream(stream))
	}
	recorder := audit.NewRecorder(auditStore, recorderOpts...)

	// Governed parameters.
	if n, err := regparam.Seed(ctx, paramStore); err != nil {
		return err
	} else if n > 0 {
		log.Info("seeded regulation parameters", "count", n)
	}
	if cfg.Engine.SeedFile != "" {
		if n, err := regparam.SeedFromFile(ctx, paramStore, cfg.Engine.SeedFile); err != nil {
			return err
		} else if n > 0 {
			log.Info("seeded regulation parameters from file", "count", n, "file", cfg.Engine.SeedFile)
		}
	}

	resolver := regparam.NewResolver(paramStore,
		regparam.WithCache(paramCache),
		regparam.WithResolverLogger(log),
		regparam.WithResolverMetrics(regparammetrics.New()),
	)
	paramService, err := regparam.NewService(paramStore, recorder,
		regparam.WithServiceCache(paramCache),
		regparam.WithServiceLogger(log),
	)
	if err != nil {
		return err
	}

	// Bureau chain.
	primary := bureau.NewUpstream(bureau.SourcePrimary,
		cfg.Upstreams.BureauBaseURL, cfg.Upstreams.BureauAPIKey, cfg.Upstreams.BureauTimeout)
	bureauOpts := []bureau.Option{
		bureau.WithCache(bureauCache),
		bureau.WithLogger(log),
	}
	if cfg.Upstreams.BureauSecondaryURL != "" {
		bureauOpts = append(bureauOpts, bureau.WithSecondary(
			bureau.NewUpstream(bureau.SourceSecondary,
				cfg.Upstreams.BureauSecondaryURL, cfg.Upstreams.BureauAPIKey, cfg.Upstreams.BureauTimeout)))
	}
	bureauSvc, err := bureau.NewService(primary, bureauOpts...)
	if err != nil {
		return err
	}

	// Grading with the optional profession registry.
	gradingOpts := []grading.ResolverOption{grading.WithLogger(log)}
	if cfg.Upstreams.RegistryBaseURL != "" {
		gradingOpts = append(gradingOpts, grading.WithVerifier(
			grading.NewRegistryClient(cfg.Upstreams.RegistryBaseURL,
				cfg.Upstreams.RegistryAPIKey, cfg.Upstreams.RegistryTimeout)))
	}
	grader, err := grading.NewResolver(gradeStore, gradingOpts...)
	if err != nil {
		return err
	}

	scorer := scoring.NewAdapter(
		scoring.WithModel(scoring.NewModelClient(cfg.Upstreams.ModelBaseURL, cfg.Upstreams.ModelTimeout)),
		scoring.WithAnchorResolver(resolver),
		scoring.WithAdapterLogger(log),
		scoring.WithAdapterMetrics(scoringmetrics.New()),
	)

	engine, err := policy.NewEngine(resolver,
		policy.WithEngineLogger(log),
		policy.WithEngineMetrics(policymetrics.New()),
	)
	if err != nil {
		return err
	}

	decisionSvc, err := decision.NewService(bureauSvc, grader, scorer, engine, resolver, recorder,
		decision.WithServiceLogger(log),
		decision.WithServiceMetrics(decisionmetrics.New()),
		decision.WithEvidenceTimeout(cfg.Upstreams.EvidenceTimeout),
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	// Drift monitor tails the audit stream when Kafka is configured.
	if len(cfg.Kafka.Brokers) > 0 {
		mx := monitormetrics.New()
		mon := monitor.New(monitor.WithLogger(log), monitor.WithMetrics(mx))
		consumer, err := monitor.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic,
			cfg.Kafka.MonitorGroup, mon, log, mx)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := consumer.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	router := httptransport.NewRouter(
		decisionhandler.New(decisionSvc, log),
		regparamhandler.New(paramService, log),
		audithandler.New(auditStore, log),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	g.Go(func() error {
		log.Info("starting lendgate", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
