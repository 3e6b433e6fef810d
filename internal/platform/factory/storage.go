package factory

import (
	"context"
	"fmt"

	"github.com/orma-app/orma/internal/config"
	"github.com/orma-app/orma/internal/store"
	"github.com/orma-app/orma/internal/store/postgres"
	"github.com/orma-app/orma/internal/store/sqlite"
)

// NewStore selects the storage adapter based on cfg.DBDriver.
func NewStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.Bootstrap(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return postgres.NewWithDB(db), nil
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
