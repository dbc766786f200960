package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"whatsapp-lead-logger/internal/config"
	"whatsapp-lead-logger/internal/models"
)

// Open connects to PostgreSQL when DatabaseURL is set and to SQLite at DBPath
// otherwise, then migrates the leads table.
func Open(cfg config.ArchiveConfig, log zerolog.Logger) (*gorm.DB, error) {
	dialector, driver := dialectorFor(cfg)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// SQLite compares created_at as text, so every stored time shares one zone.
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", driver, err)
	}
	log.Info().Str("driver", driver).Msg("Connected to lead archive")

	if err := db.AutoMigrate(&models.Lead{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	log.Info().Msg("Lead archive migration completed")

	return db, nil
}

func dialectorFor(cfg config.ArchiveConfig) (gorm.Dialector, string) {
	if cfg.DatabaseURL != "" {
		return postgres.Open(cfg.DatabaseURL), "postgres"
	}
	return sqlite.Open(cfg.DBPath), "sqlite"
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
