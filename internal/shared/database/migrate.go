package database

import (
	"tourly/internal/availability"
	"tourly/internal/bookings"
	"tourly/internal/payments"
	"tourly/internal/registrations"
	"tourly/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&availability.Availability{},
		&bookings.Booking{},
		&payments.Payment{},
		&registrations.CustomTour{},
		&registrations.Registration{},
	)
}
