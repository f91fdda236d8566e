// Package factory opens the storage backend selected by configuration.
package factory

import (
	"context"
	"log"

	"taskflow/config"
	"taskflow/store"
	"taskflow/store/postgres"
	"taskflow/store/sqlite"
)

// Open returns the postgres store when DATABASE_URL is set and the sqlite
// store otherwise. Postgres migrations run first when AUTO_MIGRATE is on.
func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Printf("using sqlite database at %s", cfg.SQLitePath)
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	if cfg.AutoMigrate {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
	}
	log.Println("using postgres database")
	s, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return s, nil
}
