// Package database opens the GORM connection and migrates the schema.
package database

import (
	"fmt"

	"articles/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the database selected by driver. TranslateError is enabled
// so unique violations surface as gorm.ErrDuplicatedKey on both drivers. SQLite
// DSNs should carry _foreign_keys=1 for the article owner cascade to apply.
// Query logs go to log; a nil log discards them.
func Open(driver, dsn string, log *zap.SugaredLogger, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         NewLogger(log, debug),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	return db, nil
}

// Migrate creates or updates the tables for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Article{}, &models.Token{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
