// Package integration provides integration testing utilities for the
// logistics backend. Tests get a real PostgreSQL instance per test via
// testcontainers, with the schema migrations already applied.
package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const postgresImage = "postgres:16-alpine"

// TestDB is a migrated PostgreSQL instance owned by a single test
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

// NewTestDB starts a fresh PostgreSQL container, applies every schema
// migration and registers teardown with the test
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	// postgres logs the ready line twice; the second one means the
	// server restarted after initdb and accepts connections for real.
	ready := wait.ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(60 * time.Second)

	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("logimaster_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(ready),
	)
	require.NoError(t, err, "postgres container did not start")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "container has no connection string")

	tdb := &TestDB{Container: container, DSN: dsn, t: t}
	tdb.connect()
	tdb.migrate()

	t.Cleanup(tdb.Close)
	return tdb
}

// Close releases the connection and terminates the container
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		_ = tdb.SqlDB.Close()
	}
	if tdb.Container != nil {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("container terminate: %v", err)
		}
	}
}

// CreateTestWarehouse inserts a warehouse row directly. Useful for seeding
// pre-existing master data before exercising the upload pipeline.
func (tdb *TestDB) CreateTestWarehouse(warehouseID fmt.Stringer, code, name string) {
	tdb.t.Helper()

	err := tdb.DB.Exec(`
		INSERT INTO warehouses (id, code, name, type, capacity_units, approval_status, version)
		VALUES (?, ?, ?, 'distribution', 100, 'approved', 1)
		ON CONFLICT (id) DO NOTHING
	`, warehouseID.String(), code, name).Error
	require.NoError(tdb.t, err, "seeding warehouse %s", code)
}

func (tdb *TestDB) connect() {
	tdb.t.Helper()

	logMode := logger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		logMode = logger.Info
	}

	db, err := gorm.Open(gormpostgres.Open(tdb.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	require.NoError(tdb.t, err, "opening gorm connection")

	sqlDB, err := db.DB()
	require.NoError(tdb.t, err, "unwrapping sql.DB")
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	tdb.DB, tdb.SqlDB = db, sqlDB
}

func (tdb *TestDB) migrate() {
	tdb.t.Helper()

	path := migrationsDir()
	require.NotEmpty(tdb.t, path, "migrations directory not found above this package")

	driver, err := mpg.WithInstance(tdb.SqlDB, &mpg.Config{})
	require.NoError(tdb.t, err, "wrapping sql.DB as migrate driver")

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	require.NoError(tdb.t, err, "building migrate instance")

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(tdb.t, err, "applying schema migrations")
	}
}

// migrationsDir walks up from this file until it finds the migrations
// directory
func migrationsDir() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	for dir := filepath.Dir(filename); ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, "migrations")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		if dir == filepath.Dir(dir) {
			return ""
		}
	}
}
