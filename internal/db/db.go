package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/glamlens/stylist/internal/utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewPool opens a Postgres pool and waits until the server answers. Query
// tracing is opt-in because it is noisy.
func NewPool(ctx context.Context, databaseURL string, tracing bool) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	if tracing {
		config.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	_, err = utils.WithRetry(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	}, utils.ConnectRetryConfig("postgres"))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	slog.Info("Connected to Postgres", "max_conns", config.MaxConns, "tracing", tracing)
	return pool, nil
}

// ConnectMongo dials MongoDB and pings it with retries.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	_, err = utils.WithRetry(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, client.Ping(ctx, nil)
	}, utils.ConnectRetryConfig("mongo"))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	slog.Info("Connected to MongoDB")
	return client, nil
}
