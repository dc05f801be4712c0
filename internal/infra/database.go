package infra

import (
	"fmt"

	"pantrio/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs
// AutoMigrate so a fresh database is usable without a separate migration
// step. gen_random_uuid() requires PostgreSQL 13+ (or pgcrypto).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}

// RunMigrations creates or updates the schema. Also used by integration
// tests against throwaway containers.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Location{},
		&model.Product{},
		&model.StockBatch{},
		&model.StockMovement{},
		&model.ExpiryAlert{},
		&model.ShoppingList{},
		&model.ShoppingListItem{},
	)
}
