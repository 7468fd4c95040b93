package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glamlens/stylist/internal/config"
	"github.com/glamlens/stylist/internal/logger"
	"github.com/glamlens/stylist/internal/metrics"
	"github.com/glamlens/stylist/internal/sentry"
	"github.com/glamlens/stylist/internal/store"
	"github.com/glamlens/stylist/internal/telemetry"
	"github.com/glamlens/stylist/internal/worker"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	defer sentry.Recover()

	resetNow := flag.Bool("reset-now", false, "enqueue a monthly usage reset immediately and exit")
	concurrency := flag.Int("concurrency", 2, "number of tasks processed concurrently")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required for the worker")
	}

	slog.SetDefault(logger.New(cfg.Env))
	wlog := logger.Component("worker")

	if *resetNow {
		enqueueReset(cfg.RedisURL)
		return
	}

	shutdownTelemetry, err := telemetry.InitTelemetry(ctx, cfg.ServiceName+"-worker", cfg.ServiceVersion, cfg.Env,
		cfg.OtelExporterOTLPEndpoint, telemetry.ParseHeaders(cfg.OtelExporterOTLPHeaders))
	if err != nil {
		wlog.Warn("Failed to init telemetry", "error", err)
	} else {
		defer shutdownTelemetry(context.Background())
	}

	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName+"-worker", cfg.ServiceVersion); err != nil {
		wlog.Warn("Failed to init Sentry", "error", err)
	} else if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	if err := metrics.Init(); err != nil {
		wlog.Warn("Failed to init business metrics", "error", err)
	}

	if cfg.Store.Driver == config.StoreMemory {
		wlog.Warn("Worker is running against the in-memory store; resets will not reach the API process")
	}
	docs, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer docs.Close(context.Background())

	workerMetrics, err := worker.NewWorkerMetrics()
	if err != nil {
		wlog.Warn("Failed to init worker metrics", "error", err)
	}

	srv, err := worker.NewServer(cfg.RedisURL, *concurrency)
	if err != nil {
		log.Fatalf("Failed to create worker server: %v", err)
	}
	scheduler, err := worker.NewScheduler(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	mux := worker.NewMux(worker.NewUsageProcessor(docs, workerMetrics))

	if err := scheduler.Start(); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
	if err := srv.Start(mux); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}

	wlog.Info("Worker started",
		"concurrency", *concurrency,
		"store", cfg.Store.Driver,
		"usage_reset_cron", worker.ResetMonthlyUsageCron,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	wlog.Info("Shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()
}

func enqueueReset(redisURL string) {
	client, err := worker.NewClient(redisURL)
	if err != nil {
		log.Fatalf("Failed to create queue client: %v", err)
	}
	defer client.Close()

	task, err := worker.NewResetMonthlyUsageTask(worker.ResetMonthlyUsagePayload{ResetAt: time.Now().UTC()})
	if err != nil {
		log.Fatalf("Failed to create task: %v", err)
	}
	info, err := client.Enqueue(task)
	if err != nil {
		log.Fatalf("Failed to enqueue task: %v", err)
	}
	slog.Info("Enqueued monthly usage reset", "task_id", info.ID, "queue", info.Queue)
}
