package database

import (
	"fmt"

	"github.com/chxlky/trello-pr-bridge/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the sqlite database at dbPath and migrates the delivery tables.
func Init(dbPath string) (*gorm.DB, error) {
	dbFile := sqlite.Open(dbPath)
	db, err := gorm.Open(dbFile, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Delivery{}, &models.CardSync{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	zap.L().Info("Database initialised and migrated successfully", zap.String("path", dbPath))

	return db, nil
}
