package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecampos-dev/epinet/internal/attendance"
	"github.com/ecampos-dev/epinet/pkg/config"
	"github.com/ecampos-dev/epinet/pkg/kafka"
	"github.com/ecampos-dev/epinet/pkg/logger"
	"github.com/ecampos-dev/epinet/pkg/metrics"
	"github.com/ecampos-dev/epinet/pkg/postgres"
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
	slog.Info("starting attendance ingest service",
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.Topics.AttendanceRecords,
	)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AttendanceRecords, attendance.HandleRecord(store, m))
	consumer := attendance.NewConsumer(kafkaConsumer)

	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
		os.Exit(1)
	}

	slog.Info("attendance ingest service stopped")
}
