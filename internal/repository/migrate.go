package repository

import (
	"safaristay/internal/domain"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Property{},
		&domain.Room{},
		&domain.Package{},
		&domain.Amenity{},
		&bookingModel{},
		&domain.UnresolvedNotification{},
	)
}
