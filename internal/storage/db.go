// Package storage persists the analysis service's output: framed photos
// on disk and analysis records in a relational database.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSQLitePath = "snapcheck.db"

// Open connects to the records database selected by databaseURL:
// postgres://... for Postgres, sqlite://path for SQLite. An empty URL
// falls back to a local SQLite file.
func Open(ctx context.Context, databaseURL string) (*gorm.DB, error) {
	var (
		db       *gorm.DB
		err      error
		embedded bool
	)

	gormConfig := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	switch {
	case databaseURL == "":
		db, err = openSQLite(defaultSQLitePath, gormConfig)
		embedded = true
	case strings.HasPrefix(databaseURL, "sqlite://"):
		db, err = openSQLite(strings.TrimPrefix(databaseURL, "sqlite://"), gormConfig)
		embedded = true
	case strings.HasPrefix(databaseURL, "postgres://"):
		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database url: %s", databaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if embedded {
		// SQLite serializes writers; more connections just means more
		// lock contention.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping: %w", err)
	}
	return db, nil
}

func openSQLite(path string, config *gorm.Config) (*gorm.DB, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	return gorm.Open(sqlite.Open(path), config)
}
