package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourly/internal/availability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// Concurrency-safe creation: spot reservation and booking insert
	// commit or roll back together.
	CreateWithReservation(ctx context.Context, booking *Booking, refPrefix string, refRetries int) error

	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByReference(ctx context.Context, reference string) (*Booking, error)
	GetUserBookings(ctx context.Context, touristID uuid.UUID, query ListQuery) ([]Booking, int64, error)
	GetProviderBookings(ctx context.Context, providerID uuid.UUID, query ListQuery) ([]Booking, int64, error)
	GetByAvailabilityID(ctx context.Context, availabilityID uuid.UUID) ([]Booking, error)

	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Booking, error)

	// CancelWithRelease flips the booking into a cancelled state and hands
	// its spots back to the availability record in one transaction.
	CancelWithRelease(ctx context.Context, booking *Booking, updates map[string]interface{}) error
}

type ListQuery struct {
	Page     int        `form:"page"`
	Limit    int        `form:"limit"`
	Status   string     `form:"status"`
	TourID   *uuid.UUID `form:"tour_id"`
	FromDate *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"to_date" time_format:"2006-01-02"`
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateWithReservation reserves spots and inserts the booking inside one
// transaction. A unique violation on booking_reference aborts the whole
// transaction (the reservation rolls back with it), so the retry regenerates
// the reference and replays reserve plus insert from scratch.
func (r *repository) CreateWithReservation(ctx context.Context, booking *Booking, refPrefix string, refRetries int) error {
	return retryOnReferenceCollision(refPrefix, refRetries, func(reference string) error {
		booking.BookingReference = reference
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := availability.ReserveInTx(tx, booking.AvailabilityID, booking.NumberOfParticipants, booking.SlotIndex()); err != nil {
				return err
			}
			if err := tx.Create(booking).Error; err != nil {
				return fmt.Errorf("failed to create booking: %w", err)
			}
			return nil
		})
	})
}

// retryOnReferenceCollision runs attempt with a fresh reference until it
// succeeds or refRetries replays are spent. booking_reference carries the
// only unique index on bookings, so a duplicated-key error from an attempt
// can only mean a reference collision; anything else returns immediately.
func retryOnReferenceCollision(refPrefix string, refRetries int, attempt func(reference string) error) error {
	for i := 0; i <= refRetries; i++ {
		reference, err := GenerateReference(refPrefix)
		if err != nil {
			return err
		}
		err = attempt(reference)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return err
	}
	return ErrReferenceCollision
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("booking_reference = ?", reference).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetUserBookings(ctx context.Context, touristID uuid.UUID, query ListQuery) ([]Booking, int64, error) {
	base := r.db.WithContext(ctx).Model(&Booking{}).Where("tourist_id = ?", touristID)
	return r.listPaginated(base, query)
}

func (r *repository) GetProviderBookings(ctx context.Context, providerID uuid.UUID, query ListQuery) ([]Booking, int64, error) {
	base := r.db.WithContext(ctx).Model(&Booking{}).Where("provider_id = ?", providerID)
	return r.listPaginated(base, query)
}

func (r *repository) listPaginated(base *gorm.DB, query ListQuery) ([]Booking, int64, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	base = applyFilters(base, query)

	var totalCount int64
	if err := base.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	var bookings []Booking
	offset := (query.Page - 1) * query.Limit
	err := base.
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

func applyFilters(q *gorm.DB, query ListQuery) *gorm.DB {
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	if query.TourID != nil {
		q = q.Where("tour_id = ?", *query.TourID)
	}
	if query.FromDate != nil {
		q = q.Where("tour_date >= ?", *query.FromDate)
	}
	if query.ToDate != nil {
		q = q.Where("tour_date <= ?", *query.ToDate)
	}
	return q
}

func (r *repository) GetByAvailabilityID(ctx context.Context, availabilityID uuid.UUID) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("availability_id = ?", availabilityID).
		Where("status NOT IN ?", []Status{StatusCancelled}).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Booking, error) {
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *repository) CancelWithRelease(ctx context.Context, booking *Booking, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if booking.CountsAgainstCapacity() {
			if err := availability.ReleaseInTx(tx, booking.AvailabilityID, booking.NumberOfParticipants, booking.SlotIndex()); err != nil {
				return err
			}
		}

		result := tx.Model(&Booking{}).
			Where("id = ?", booking.ID).
			Where("status = ?", booking.Status).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		// A concurrent cancel already moved the row; releasing twice would
		// hand back more spots than were reserved, so abort this attempt.
		if result.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return nil
	})
}
