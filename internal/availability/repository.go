package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(ctx context.Context, a *Availability) error
	GetByID(ctx context.Context, id uuid.UUID) (*Availability, error)
	List(ctx context.Context, query ListQuery) ([]Availability, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Availability, error)

	// Reserve and Release are the only write paths for the capacity
	// counters. Both run as a single conditional UPDATE.
	Reserve(ctx context.Context, id uuid.UUID, spots int, slotIndex *int) error
	Release(ctx context.Context, id uuid.UUID, spots int, slotIndex *int) error
}

// ListQuery filters availability listings.
type ListQuery struct {
	TourID     string
	ProviderID string
	StartDate  string // YYYY-MM-DD
	EndDate    string // YYYY-MM-DD
	OnlyOpen   bool
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Availability) error {
	a.AvailableSpots = a.TotalCapacity - a.ReservedSpots
	if a.DayOfWeek == "" {
		a.DayOfWeek = dayOfWeek(a.Date)
	}
	err := r.db.WithContext(ctx).Create(a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateDate
		}
		return err
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Availability, error) {
	var a Availability
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]Availability, error) {
	db := r.db.WithContext(ctx).Model(&Availability{})

	if query.TourID != "" {
		if tourID, err := uuid.Parse(query.TourID); err == nil {
			db = db.Where("tour_id = ?", tourID)
		}
	}
	if query.ProviderID != "" {
		if providerID, err := uuid.Parse(query.ProviderID); err == nil {
			db = db.Where("provider_id = ?", providerID)
		}
	}
	if query.StartDate != "" {
		if from, err := time.Parse("2006-01-02", query.StartDate); err == nil {
			db = db.Where("date >= ?", from)
		}
	}
	if query.EndDate != "" {
		if to, err := time.Parse("2006-01-02", query.EndDate); err == nil {
			db = db.Where("date <= ?", to)
		}
	}
	if query.OnlyOpen {
		db = db.Where("is_available = ?", true).
			Where("availability_type NOT IN ?", []string{string(TypeBlocked), string(TypeMaintenance)})
	}

	var list []Availability
	err := db.Order("date ASC").Find(&list).Error
	return list, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Availability, error) {
	var a Availability
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Capacity changes rederive available_spots inside the same UPDATE.
	if tc, ok := updates["total_capacity"]; ok {
		updates["available_spots"] = gorm.Expr("? - reserved_spots", tc)
	}

	if err := r.db.WithContext(ctx).Model(&a).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) Reserve(ctx context.Context, id uuid.UUID, spots int, slotIndex *int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ReserveInTx(tx, id, spots, slotIndex)
	})
}

func (r *repository) Release(ctx context.Context, id uuid.UUID, spots int, slotIndex *int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ReleaseInTx(tx, id, spots, slotIndex)
	})
}

// ReserveInTx reserves spots against one availability inside tx. The booking
// repository shares this with its create-booking transaction so a failed
// insert rolls the reservation back.
//
// The date-level path is a single conditional UPDATE: "add spots to
// reserved_spots only if the result stays within total_capacity". Two racing
// callers both pass a read-side check, but only the UPDATEs whose condition
// still holds at execution time take effect, so the capacity invariant cannot
// be violated. Checking available_spots in application code first and then
// writing would lose that guarantee.
func ReserveInTx(tx *gorm.DB, id uuid.UUID, spots int, slotIndex *int) error {
	if spots <= 0 {
		return fmt.Errorf("reserve: spots must be positive, got %d", spots)
	}

	if slotIndex == nil {
		res := tx.Model(&Availability{}).
			Where("id = ?", id).
			Where("is_available = ?", true).
			Where("availability_type NOT IN ?", []string{string(TypeBlocked), string(TypeMaintenance)}).
			Where("reserved_spots + ? <= total_capacity", spots).
			Updates(map[string]interface{}{
				"reserved_spots":  gorm.Expr("reserved_spots + ?", spots),
				"available_spots": gorm.Expr("total_capacity - (reserved_spots + ?)", spots),
				"updated_at":      time.Now().UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to reserve spots: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return classifyReserveFailure(tx, id, spots)
		}
		return nil
	}

	// Slot-targeted path: the slot list lives in one jsonb column, so a row
	// lock serializes writers while both the slot and the date-level
	// constraint are checked and updated together.
	var a Availability
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to lock availability: %w", err)
	}

	if !a.IsAvailable || !a.Type.Reservable() {
		return ErrNotAvailable
	}
	slot := a.Slot(*slotIndex)
	if slot == nil || !slot.HasRoom(spots) {
		return ErrSlotUnavailable
	}
	if a.ReservedSpots+spots > a.TotalCapacity {
		return ErrInsufficientCapacity
	}

	slot.CurrentBookings += spots
	a.ReservedSpots += spots
	a.AvailableSpots = a.TotalCapacity - a.ReservedSpots

	return tx.Model(&Availability{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reserved_spots":  a.ReservedSpots,
			"available_spots": a.AvailableSpots,
			"time_slots":      a.TimeSlots,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// ReleaseInTx returns spots to one availability inside tx. The decrement is
// clamped at zero so a retried compensating release is a no-op rather than an
// error; cancellation callers may fire it more than once after an ambiguous
// failure.
func ReleaseInTx(tx *gorm.DB, id uuid.UUID, spots int, slotIndex *int) error {
	if spots <= 0 {
		return fmt.Errorf("release: spots must be positive, got %d", spots)
	}

	if slotIndex == nil {
		res := tx.Model(&Availability{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"reserved_spots":  gorm.Expr("GREATEST(reserved_spots - ?, 0)", spots),
				"available_spots": gorm.Expr("total_capacity - GREATEST(reserved_spots - ?, 0)", spots),
				"updated_at":      time.Now().UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to release spots: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}

	var a Availability
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to lock availability: %w", err)
	}

	if slot := a.Slot(*slotIndex); slot != nil {
		slot.CurrentBookings -= spots
		if slot.CurrentBookings < 0 {
			slot.CurrentBookings = 0
		}
	}
	a.ReservedSpots -= spots
	if a.ReservedSpots < 0 {
		a.ReservedSpots = 0
	}
	a.AvailableSpots = a.TotalCapacity - a.ReservedSpots

	return tx.Model(&Availability{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reserved_spots":  a.ReservedSpots,
			"available_spots": a.AvailableSpots,
			"time_slots":      a.TimeSlots,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// classifyReserveFailure turns a zero-row conditional reserve into the precise
// domain error: missing record, closed record, or genuinely out of capacity.
func classifyReserveFailure(tx *gorm.DB, id uuid.UUID, spots int) error {
	var a Availability
	err := tx.Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to inspect availability: %w", err)
	}
	if !a.IsAvailable || !a.Type.Reservable() {
		return ErrNotAvailable
	}
	return ErrInsufficientCapacity
}

func dayOfWeek(date time.Time) string {
	switch date.Weekday() {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}
