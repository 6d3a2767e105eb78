package storage

import (
	"context"
	"fmt"
	"io"

	_ "github.com/lib/pq"           // registers the postgres driver with database/sql
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql

	"github.com/billbuzz/billbuzz/internal/config"
	sharedredis "github.com/billbuzz/billbuzz/shared/redis"
)

// Backend is an opened Store plus whatever must be released on shutdown.
// Redis is non-nil only for the redis driver and is reused for event streams.
type Backend struct {
	Store Store
	Redis *sharedredis.Client

	closer io.Closer
}

func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// Open connects the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (*Backend, error) {
	switch cfg.Driver {
	case "memory":
		return &Backend{Store: NewMemory()}, nil
	case "redis":
		client, err := sharedredis.NewClient(ctx, sharedredis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:  sharedredis.NewStore(client.Client, cfg.Redis.Prefix),
			Redis:  client,
			closer: client,
		}, nil
	case "postgres":
		s, err := OpenPostgres(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: s, closer: s}, nil
	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: s, closer: s}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
