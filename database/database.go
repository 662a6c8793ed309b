package database

import (
	"log"

	"emsforge/internal/domain/billing"
	"emsforge/internal/domain/plans"
	"emsforge/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Init connects to postgres and migrates the payment-core tables. The
// TranslateError option is required so the store can recognize unique-index
// violations as gorm.ErrDuplicatedKey.
func Init(databaseURL string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&users.User{},
		&plans.Plan{},
		&billing.CheckoutSession{},
		&billing.WebhookEvent{},
		&billing.WebhookError{},
	); err != nil {
		log.Fatal("AutoMigrate error:", err)
	}

	return db
}
