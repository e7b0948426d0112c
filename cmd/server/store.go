package main

import (
	"fmt"

	"go.uber.org/zap"

	"weather-metrics/internal/database"
	"weather-metrics/pkg/config"
)

// openStore builds the store selected by STORE_DRIVER. Persistent stores
// create their schema on connect.
func openStore(cfg *config.Config) (database.Store, error) {
	zap.S().Infof("Opening %s store...", cfg.StoreDriver)

	switch cfg.StoreDriver {
	case "memory":
		return database.NewMemoryStore(), nil
	case "clickhouse":
		db, err := database.NewClickHouseDB(cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePass)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ClickHouse: %w", err)
		}
		return db, nil
	case "sqlite", "postgres":
		return database.NewSQLStore(cfg.StoreDriver, cfg.SQLDSN)
	}

	return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
}
