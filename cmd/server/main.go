package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/glamlens/stylist/internal/api"
	"github.com/glamlens/stylist/internal/cache"
	"github.com/glamlens/stylist/internal/config"
	"github.com/glamlens/stylist/internal/logger"
	"github.com/glamlens/stylist/internal/metrics"
	"github.com/glamlens/stylist/internal/middleware"
	"github.com/glamlens/stylist/internal/sentry"
	"github.com/glamlens/stylist/internal/services/imagegen"
	"github.com/glamlens/stylist/internal/services/recommend"
	"github.com/glamlens/stylist/internal/services/storage"
	"github.com/glamlens/stylist/internal/services/styling"
	"github.com/glamlens/stylist/internal/services/vendors"
	"github.com/glamlens/stylist/internal/services/vision"
	"github.com/glamlens/stylist/internal/store"
	"github.com/glamlens/stylist/internal/telemetry"
	"github.com/glamlens/stylist/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/joho/godotenv/autoload"
	"github.com/riandyrn/otelchi"
	otelchimetric "github.com/riandyrn/otelchi/metric"
	"go.opentelemetry.io/otel"
)

func main() {
	defer sentry.Recover()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Telemetry is a no-op without an endpoint
	shutdownTelemetry, err := telemetry.InitTelemetry(ctx, cfg.ServiceName, cfg.ServiceVersion, cfg.Env,
		cfg.OtelExporterOTLPEndpoint, telemetry.ParseHeaders(cfg.OtelExporterOTLPHeaders))
	if err != nil {
		slog.Warn("Failed to init telemetry", "error", err)
	} else {
		defer shutdownTelemetry(context.Background())
	}

	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName, cfg.ServiceVersion); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	} else if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	if err := metrics.Init(); err != nil {
		slog.Warn("Failed to init business metrics", "error", err)
	}

	slog.SetDefault(logger.New(cfg.Env))

	// Document store
	docs, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer docs.Close(context.Background())

	// Cache
	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create Redis client: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	gateway := cache.NewRedisGateway(redisClient)
	var coordOpts []cache.Option
	if cfg.Cache.Consistency == config.ConsistencyLocked {
		coordOpts = append(coordOpts, cache.WithLocking(gateway, cfg.Cache.LockTTL))
	}
	coordinator := cache.NewCoordinator(gateway, coordOpts...)

	// Providers
	clients, err := vendors.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create vendor clients: %v", err)
	}
	defer clients.Close()

	deps := styling.Deps{
		Cache:        coordinator,
		Store:        docs,
		Vision:       vision.NewChain(cfg.Vision, clients),
		Recommenders: recommend.NewChain(cfg.Recommendations, clients),
		Images:       imagegen.NewChain(cfg.ImageGeneration, clients),
	}
	if cfg.S3Bucket != "" {
		uploads, err := storage.NewClient(ctx, cfg.AWSRegion, cfg.S3Bucket)
		if err != nil {
			log.Fatalf("Failed to create S3 client: %v", err)
		}
		deps.Uploads = uploads
	}

	svc := styling.NewService(deps, styling.Options{
		AnalysisTTL:       cfg.Cache.AnalysisTTL,
		RecommendationTTL: cfg.Cache.RecommendationTTL,
		Upload: validation.ImageLimits{
			MaxBytes:     cfg.Upload.MaxBytes,
			MaxDimension: cfg.Upload.MaxDimension,
		},
	})

	health := map[string]api.Pinger{
		cfg.Store.Driver: docs,
	}
	if redisClient != nil {
		health["redis"] = api.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	apiServer := api.NewServer(svc, cfg.Upload.MaxBytes, health)

	// Router
	r := chi.NewRouter()

	r.Use(sentry.HTTPMiddleware)
	r.Use(otelchi.Middleware(cfg.ServiceName,
		otelchi.WithChiRoutes(r),
		otelchi.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/api/health"
		}),
	))

	// HTTP metrics
	metricCfg := otelchimetric.NewBaseConfig(cfg.ServiceName, otelchimetric.WithMeterProvider(otel.GetMeterProvider()))
	r.Use(otelchimetric.NewRequestDurationMillis(metricCfg))
	r.Use(otelchimetric.NewRequestInFlight(metricCfg))
	r.Use(otelchimetric.NewResponseSizeBytes(metricCfg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Range", "X-Content-Range"},
		AllowCredentials: true,
		MaxAge:           600,
	}))

	apiServer.Routes(r, middleware.AuthMiddleware(cfg))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Generation with images can take several provider timeouts.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting server",
		"port", cfg.Port,
		"store", cfg.Store.Driver,
		"cache_consistency", cfg.Cache.Consistency,
		"vision", providerNames(deps.Vision),
		"recommendations", providerNames(deps.Recommenders),
		"images", providerNames(deps.Images),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

func providerNames[T interface{ Name() string }](chain []T) []string {
	names := make([]string, len(chain))
	for i, p := range chain {
		names[i] = p.Name()
	}
	return names
}
