package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps both GORM and sql.DB
type DB struct {
	*sql.DB
	GORM *gorm.DB
}

// Open resolves the driver from the connection string.
// sqlite://path and file: URLs use the embedded SQLite driver, everything else Postgres.
func Open(connStr string, logLevel logger.LogLevel) (*gorm.DB, error) {
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(connStr, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(connStr, "sqlite://"))
	case strings.HasPrefix(connStr, "file:"):
		dialector = sqlite.Open(connStr)
	default:
		dialector = postgres.Open(connStr)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return gormDB, nil
}

// NewDB creates a new database connection using GORM
func NewDB(connStr string, env string) *DB {
	level := logger.Warn
	if env == "development" {
		level = logger.Info
	}

	gormDB, err := Open(connStr, level)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("❌ Failed to get sql.DB: %v", err)
	}

	// Connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("❌ Failed to ping database: %v", err)
	}

	log.Printf("✅ Database connected (%s)!", gormDB.Dialector.Name())
	return &DB{
		DB:   sqlDB,
		GORM: gormDB,
	}
}

// Migrate creates or updates tables for the given models
func (db *DB) Migrate(models ...interface{}) error {
	if err := db.GORM.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Printf("✅ Auto-migrated %d tables", len(models))
	return nil
}

func (db *DB) Close() error {
	log.Println("🔌 Closing database connection...")
	return db.DB.Close()
}
