package registrations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateTour(ctx context.Context, tour *CustomTour) error
	GetTourByID(ctx context.Context, id uuid.UUID) (*CustomTour, error)
	ListActiveTours(ctx context.Context) ([]CustomTour, error)

	CreateRegistration(ctx context.Context, registration *Registration) error
	GetRegistrationByID(ctx context.Context, id uuid.UUID) (*Registration, error)
	ListByTour(ctx context.Context, tourID uuid.UUID) ([]Registration, error)
	ListByTourist(ctx context.Context, touristID uuid.UUID) ([]Registration, error)

	// ApproveWithDecrement flips the registration to approved and takes one
	// spot off the tour counter in a single transaction. The decrement is a
	// conditional update guarded by remaining_tourists > 0; losing the race
	// for the last spot returns ErrNoSpotsRemaining and approves nothing.
	ApproveWithDecrement(ctx context.Context, registrationID, decidedBy uuid.UUID) error

	// ReleaseWithIncrement moves an approved registration to newStatus and
	// hands its spot back, clamped at max_tourists so a retried release
	// never inflates the counter.
	ReleaseWithIncrement(ctx context.Context, registration *Registration, newStatus RegistrationStatus, decidedBy uuid.UUID) error

	UpdateStatus(ctx context.Context, id uuid.UUID, from, to RegistrationStatus, decidedBy uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTour(ctx context.Context, tour *CustomTour) error {
	if tour.RemainingTourists == 0 {
		tour.RemainingTourists = tour.MaxTourists
	}
	return r.db.WithContext(ctx).Create(tour).Error
}

func (r *repository) GetTourByID(ctx context.Context, id uuid.UUID) (*CustomTour, error) {
	var tour CustomTour
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tour).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return &tour, nil
}

func (r *repository) ListActiveTours(ctx context.Context) ([]CustomTour, error) {
	var tours []CustomTour
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("start_date ASC").
		Find(&tours).Error
	return tours, err
}

func (r *repository) CreateRegistration(ctx context.Context, registration *Registration) error {
	err := r.db.WithContext(ctx).Create(registration).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyRegistered
	}
	return err
}

func (r *repository) GetRegistrationByID(ctx context.Context, id uuid.UUID) (*Registration, error) {
	var registration Registration
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&registration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return &registration, nil
}

func (r *repository) ListByTour(ctx context.Context, tourID uuid.UUID) ([]Registration, error) {
	var regs []Registration
	err := r.db.WithContext(ctx).
		Where("custom_tour_id = ?", tourID).
		Order("created_at ASC").
		Find(&regs).Error
	return regs, err
}

func (r *repository) ListByTourist(ctx context.Context, touristID uuid.UUID) ([]Registration, error) {
	var regs []Registration
	err := r.db.WithContext(ctx).
		Where("tourist_id = ?", touristID).
		Order("created_at DESC").
		Find(&regs).Error
	return regs, err
}

func (r *repository) ApproveWithDecrement(ctx context.Context, registrationID, decidedBy uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var registration Registration
		if err := tx.Where("id = ?", registrationID).First(&registration).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}
		if registration.Status != RegistrationPending {
			return ErrInvalidStatusChange
		}

		// The guard in the WHERE clause is what makes approval race-free;
		// two concurrent approvals of the last spot cannot both match.
		result := tx.Model(&CustomTour{}).
			Where("id = ? AND remaining_tourists > 0", registration.CustomTourID).
			Updates(map[string]interface{}{
				"remaining_tourists": gorm.Expr("remaining_tourists - 1"),
				"updated_at":         time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var tour CustomTour
			if err := tx.Where("id = ?", registration.CustomTourID).First(&tour).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrTourNotFound
				}
				return err
			}
			return ErrNoSpotsRemaining
		}

		now := time.Now()
		return tx.Model(&Registration{}).
			Where("id = ?", registrationID).
			Updates(map[string]interface{}{
				"status":     RegistrationApproved,
				"decided_at": now,
				"decided_by": decidedBy,
				"updated_at": now,
			}).Error
	})
}

func (r *repository) ReleaseWithIncrement(ctx context.Context, registration *Registration, newStatus RegistrationStatus, decidedBy uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&Registration{}).
			Where("id = ? AND status = ?", registration.ID, RegistrationApproved).
			Updates(map[string]interface{}{
				"status":     newStatus,
				"decided_at": now,
				"decided_by": decidedBy,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		// Already released by a concurrent or retried call; incrementing
		// again would give the spot back twice.
		if result.RowsAffected == 0 {
			return ErrInvalidStatusChange
		}

		return tx.Model(&CustomTour{}).
			Where("id = ?", registration.CustomTourID).
			Updates(map[string]interface{}{
				"remaining_tourists": gorm.Expr("LEAST(remaining_tourists + 1, max_tourists)"),
				"updated_at":         now,
			}).Error
	})
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to RegistrationStatus, decidedBy uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&Registration{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"decided_at": now,
			"decided_by": decidedBy,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidStatusChange
	}
	return nil
}
