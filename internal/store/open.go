package store

import (
	"context"
	"fmt"

	"github.com/glamlens/stylist/internal/config"
	"github.com/glamlens/stylist/internal/db"
)

// Open builds the store selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		s, err := NewMongoStore(ctx, client, cfg.Store.Database)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return s, nil
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBTracing)
		if err != nil {
			return nil, err
		}
		s, err := NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	case config.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
