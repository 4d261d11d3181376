package db

import (
	"finance_tracker/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// Migrate creates or updates the users and investments tables.
// AutoMigrate adds the investments.user_id foreign key with ON DELETE CASCADE.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{}, &domain.Investment{})
}
