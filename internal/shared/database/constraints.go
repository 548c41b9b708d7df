package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the constraints the capacity ledger depends on.
// AutoMigrate creates the columns and indexes; the ledger's correctness
// additionally relies on these being enforced by the database itself.
func MigrateConstraints(db *gorm.DB) error {
	// The uuid defaults on primary keys need pgcrypto/uuid-ossp.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return err
	}

	// One availability record per tour per date. AutoMigrate declares this
	// too; keep the explicit form so a hand-managed schema stays correct.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_tour_date
		ON availabilities (tour_id, date);
	`).Error
	if err != nil {
		return err
	}

	// Backstop for the conditional reserve update: even a buggy write path
	// cannot push the ledger past capacity or below zero.
	err = db.Exec(`
		DO $$ BEGIN
			ALTER TABLE availabilities
			ADD CONSTRAINT chk_reserved_within_capacity
			CHECK (reserved_spots >= 0 AND reserved_spots <= total_capacity);
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$;
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		DO $$ BEGIN
			ALTER TABLE custom_tours
			ADD CONSTRAINT chk_remaining_within_max
			CHECK (remaining_tourists >= 0 AND remaining_tourists <= max_tourists);
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$;
	`).Error
	if err != nil {
		return err
	}

	// Booking lookups by availability dominate the cancellation path.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_availability_status
		ON bookings (availability_id, status);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
