// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"alfredoptarigan/cv-screener/internal/config"
)

// NewDB opens a migrated in-memory SQLite database private to the test.
// Foreign keys are not enforced, so reports may reference owners the test
// never created.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	return open(t, false)
}

// NewDBWithForeignKeys is NewDB with foreign key constraints enforced the
// way PostgreSQL enforces them.
func NewDBWithForeignKeys(t *testing.T) *gorm.DB {
	t.Helper()
	return open(t, true)
}

func open(t *testing.T, foreignKeys bool) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if foreignKeys {
		require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	}
	require.NoError(t, config.Migrate(db))
	return db
}
