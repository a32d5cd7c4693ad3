package database

import (
	"log"

	"contextlattice-console/internal/domain/billing"
	"contextlattice-console/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(dsn string) {
	if dsn == "" {
		log.Fatal("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	DB = db

	if err := DB.AutoMigrate(
		&users.User{},

		// billing ledger
		&billing.PaymentIntent{},
		&billing.BillingEvent{},
		&billing.BillingCustomer{},
		&billing.BillingSubscription{},
	); err != nil {
		log.Fatal("AutoMigrate error:", err)
	}
}
