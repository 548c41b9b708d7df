package availability

import (
	"time"

	"github.com/google/uuid"
)

type AvailabilityType string

const (
	TypeRegular     AvailabilityType = "regular"
	TypeSpecial     AvailabilityType = "special"
	TypeBlocked     AvailabilityType = "blocked"
	TypeMaintenance AvailabilityType = "maintenance"
)

func (t AvailabilityType) IsValid() bool {
	switch t {
	case TypeRegular, TypeSpecial, TypeBlocked, TypeMaintenance:
		return true
	}
	return false
}

// Reservable reports whether records of this type accept bookings at all.
func (t AvailabilityType) Reservable() bool {
	return t != TypeBlocked && t != TypeMaintenance
}

// TimeSlot is a finer-grained capacity bucket inside one availability date.
// Slot capacity is layered on top of the date-level capacity: a booking that
// targets a slot must satisfy both constraints.
type TimeSlot struct {
	StartTime       string  `json:"start_time"` // HH:MM
	EndTime         string  `json:"end_time"`   // HH:MM
	MaxCapacity     int     `json:"max_capacity"`
	CurrentBookings int     `json:"current_bookings"`
	PricePerPerson  float64 `json:"price_per_person"`
	IsAvailable     bool    `json:"is_available"`
	Notes           string  `json:"notes,omitempty"`
}

// HasRoom reports whether the slot can take n more participants.
func (s *TimeSlot) HasRoom(n int) bool {
	return s.IsAvailable && s.CurrentBookings+n <= s.MaxCapacity
}

// Availability is the capacity ledger record for one tour on one date.
//
// Invariant: available_spots == total_capacity - reserved_spots after every
// persist. The derivation is recomputed inside the same UPDATE that moves
// reserved_spots; it is never used as a concurrency guard on its own.
type Availability struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	TourID     uuid.UUID `json:"tour_id" gorm:"type:uuid;index:idx_tour_date,unique;not null"`
	ProviderID uuid.UUID `json:"provider_id" gorm:"type:uuid;index;not null"`

	Date      time.Time `json:"date" gorm:"type:date;index:idx_tour_date,unique;not null"`
	DayOfWeek string    `json:"day_of_week" gorm:"type:varchar(10)"`

	IsAvailable bool             `json:"is_available" gorm:"default:true"`
	Type        AvailabilityType `json:"availability_type" gorm:"column:availability_type;type:varchar(20);default:'regular'"`

	TotalCapacity  int `json:"total_capacity" gorm:"not null;check:total_capacity >= 1"`
	ReservedSpots  int `json:"reserved_spots" gorm:"default:0;check:reserved_spots >= 0"`
	AvailableSpots int `json:"available_spots" gorm:"not null;check:available_spots >= 0"`

	TimeSlots []TimeSlot `json:"time_slots" gorm:"type:jsonb;serializer:json"`

	BasePricePerPerson float64       `json:"base_price_per_person" gorm:"not null;check:base_price_per_person >= 0"`
	Currency           string        `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	PricingRules       []PricingRule `json:"pricing_rules" gorm:"type:jsonb;serializer:json"`

	MinimumParticipants int  `json:"minimum_participants" gorm:"default:1"`
	MaximumParticipants *int `json:"maximum_participants,omitempty"`

	// Denormalized for listings
	TourName     string `json:"tour_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`

	CreatedBy *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Availability) TableName() string {
	return "availabilities"
}

// IsBookable answers the read-side check used before attempting a reserve.
// The authoritative check is the conditional UPDATE in the repository; this
// exists so callers can fail fast with a precise error.
func (a *Availability) IsBookable(participants int) bool {
	if !a.IsAvailable || !a.Type.Reservable() {
		return false
	}
	return a.AvailableSpots >= participants
}

// Slot returns the time slot at idx, or nil when idx is out of range.
func (a *Availability) Slot(idx int) *TimeSlot {
	if idx < 0 || idx >= len(a.TimeSlots) {
		return nil
	}
	return &a.TimeSlots[idx]
}
