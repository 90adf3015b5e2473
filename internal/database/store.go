package database

import (
	"fmt"

	"pocketledger/internal/config"
	"pocketledger/internal/ledger"
	"pocketledger/internal/ledger/memstore"
	"pocketledger/internal/ledger/sqlstore"
	"pocketledger/internal/logger"
)

// OpenStore builds the ledger store selected by cfg.StoreBackend. For the sql
// backend it connects, migrates from migrationsDir and returns the Manager so
// the caller can close it; for memory the Manager is nil.
func OpenStore(cfg *config.Config, migrationsDir string) (ledger.Store, *Manager, error) {
	policy := ledger.DefaultRetryPolicy().WithMaxAttempts(cfg.TxMaxRetries)

	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		logger.Get().Warn("Using the in-memory ledger store; data is lost on exit")
		return memstore.New(memstore.WithRetryPolicy(policy)), nil, nil

	case config.StoreBackendSQL:
		manager, err := NewManager(NewConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		if err := manager.RunMigrations(migrationsDir); err != nil {
			_ = manager.Close()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		return sqlstore.New(manager.DB(), sqlstore.WithRetryPolicy(policy)), manager, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
