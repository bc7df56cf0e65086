// Package sqlstore implements ports.QuoteStore on a relational database
// through gorm. PostgreSQL serves production and SQLite serves local runs.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown sql driver")

// Options configures the connection.
type Options struct {
	Driver string
	// DSN is a PostgreSQL connection string or a SQLite file path.
	DSN string

	MaxOpenConns       int
	SlowQueryThreshold time.Duration
	Logger             *slog.Logger
}

// Open connects, migrates the schema and returns a ready store.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var dialector gorm.Dialector

	switch opts.Driver {
	case DriverPostgres:
		dialector = postgres.Open(opts.DSN)
	case DriverSQLite:
		// A single connection serializes writers; SQLite has no row locks.
		opts.MaxOpenConns = 1
		dialector = sqlite.Open(sqliteDSN(opts.DSN))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}

	gormLogger := logger.Discard
	if opts.Logger != nil {
		gormLogger = logger.NewSlogLogger(opts.Logger.With(slog.String("component", "sqlstore")), logger.Config{
			SlowThreshold:             opts.SlowQueryThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql handle: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if err := db.WithContext(ctx).AutoMigrate(&quoteRecord{}, &sequenceRecord{}, &eventRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{db: db}, nil
}

const sqliteParams = "_busy_timeout=5000&_foreign_keys=on"

// sqliteDSN appends the connection parameters to path, which may already
// carry a query string.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}

	return path + "?" + sqliteParams
}
