package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecampos-dev/epinet/internal/api"
	"github.com/ecampos-dev/epinet/internal/attendance"
	"github.com/ecampos-dev/epinet/internal/epidemic"
	"github.com/ecampos-dev/epinet/internal/events"
	"github.com/ecampos-dev/epinet/internal/network"
	"github.com/ecampos-dev/epinet/internal/topology"
	"github.com/ecampos-dev/epinet/pkg/config"
	"github.com/ecampos-dev/epinet/pkg/health"
	"github.com/ecampos-dev/epinet/pkg/kafka"
	"github.com/ecampos-dev/epinet/pkg/logger"
	"github.com/ecampos-dev/epinet/pkg/metrics"
	"github.com/ecampos-dev/epinet/pkg/middleware"
	"github.com/ecampos-dev/epinet/pkg/postgres"
	pkgredis "github.com/ecampos-dev/epinet/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting simulation service", "port", cfg.Server.Port)

	m := metrics.New()

	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgClient.Close()
	store := attendance.NewPostgresStore(pgClient)
	slog.Info("attendance store connected",
		"host", cfg.Postgres.Host,
		"database", cfg.Postgres.Database,
	)

	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, topology result caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		slog.Info("topology result cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SimulationEvents)
	defer eventProducer.Close()
	collector := events.NewCollector(eventProducer, cfg.Simulation.EventBufferSize)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("event collector started", "topic", cfg.Kafka.Topics.SimulationEvents)

	netCache := network.NewCache(cfg.Network.MaxCachedNetworks, m)
	provider := network.NewProvider(store, netCache, m)
	registry := epidemic.NewRegistry()
	simulator := epidemic.NewSimulator(provider, registry, collector, m, cfg.Simulation.DaySequence)
	analyzer := topology.NewAnalyzer(provider, topology.NewResultCache(redisClient, cfg.Redis), m)

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := pgClient.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("attendance_data", func(ctx context.Context) health.ComponentHealth {
		days, err := store.Days(ctx)
		if err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		if len(days) == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no attendance data"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d days", len(days))}
	})

	h := api.New(simulator, registry, analyzer, provider, netCache, api.Defaults{
		Beta:         cfg.Simulation.DefaultBeta,
		PatientsZero: cfg.Simulation.DefaultPatientsZero,
		WeightMode:   cfg.Network.DefaultWeightMode,
	})

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("simulation service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	// In-flight handlers may still track events until Shutdown returns;
	// only then may the deferred collector.Close run.
	<-shutdownDone

	slog.Info("simulation service stopped")
}
