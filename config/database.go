package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hearthworks/hearth-be/models"
)

// ConnectDatabase opens the postgres connection and migrates the schema.
// The returned handle is passed to services explicitly; there is no package
// level DB.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for every model. Shared with the
// test suites, which run it against an in-memory sqlite database.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.MembershipPlan{},
		&models.CreditTransaction{},
		&models.Workspace{},
		&models.Booking{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.WebhookEvent{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
