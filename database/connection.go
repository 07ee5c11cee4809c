package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ananth-NQI/wa-group-importer/internal/storage"
)

// Connect opens the history database for driver ("postgres" or "sqlite")
// and migrates its tables.
func Connect(driver, databaseURL, sqlitePath string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		log.Info().Msg("📦 Connecting to PostgreSQL database...")
		dialector = postgres.Open(databaseURL)
	case "sqlite":
		log.Info().Str("path", sqlitePath).Msg("📦 Opening SQLite database...")
		dialector = sqlite.Open(sqlitePath + "?_busy_timeout=5000")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	log.Info().Msg("🔄 Running database migrations...")
	if err := storage.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Msg("✅ Database connected successfully!")
	return db, nil
}

// Ping checks that the database still answers
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
