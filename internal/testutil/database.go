// Package testutil provides test helpers for setting up in-memory stores,
// creating fixtures, and making assertions.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pocketledger/internal/ledger"
	"pocketledger/internal/ledger/memstore"
	"pocketledger/internal/ledger/sqlstore"
)

var dbCounter atomic.Int64

// NewMemStore returns an empty in-memory ledger store.
func NewMemStore(t *testing.T, opts ...memstore.Option) *memstore.Store {
	t.Helper()
	return memstore.New(opts...)
}

// SetupTestDB creates a private in-memory SQLite database with the ledger
// tables migrated. It is closed when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testutil%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { TeardownTestDB(t, db) })

	if err := db.AutoMigrate(sqlstore.Models()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// NewSQLStore returns a ledger store backed by SetupTestDB.
func NewSQLStore(t *testing.T, opts ...sqlstore.Option) *sqlstore.Store {
	t.Helper()
	return sqlstore.New(SetupTestDB(t), opts...)
}

// StoreFactories names each backend for table-driven tests that should run
// against both.
func StoreFactories() map[string]func(t *testing.T) ledger.Store {
	return map[string]func(t *testing.T) ledger.Store{
		"memstore": func(t *testing.T) ledger.Store { return NewMemStore(t) },
		"sqlstore": func(t *testing.T) ledger.Store { return NewSQLStore(t) },
	}
}

// TeardownTestDB closes the underlying database connection.
func TeardownTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Errorf("failed to get underlying DB for teardown: %v", err)
		return
	}
	_ = sqlDB.Close()
}
