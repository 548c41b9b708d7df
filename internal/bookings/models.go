package bookings

import (
	"time"

	"tourly/internal/availability"

	"github.com/google/uuid"
)

// Participant is the optional per-person detail a traveler attaches to a
// booking.
type Participant struct {
	Name                string   `json:"name"`
	Age                 *int     `json:"age,omitempty"`
	DietaryRequirements []string `json:"dietary_requirements,omitempty"`
	SpecialNeeds        string   `json:"special_needs,omitempty"`
}

// SelectedTimeSlot mirrors the slot the booking was placed against so the
// booking stays readable even if the availability's slot list changes.
type SelectedTimeSlot struct {
	Index     int    `json:"index"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Booking is one reservation against an availability record. Rows are never
// deleted; cancellation is a status change so the capacity audit history
// stays intact.
type Booking struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookingReference string    `json:"booking_reference" gorm:"uniqueIndex;not null"`

	// Immutable after creation
	AvailabilityID uuid.UUID `json:"availability_id" gorm:"type:uuid;index;not null"`
	TourID         uuid.UUID `json:"tour_id" gorm:"type:uuid;index;not null"`
	TouristID      uuid.UUID `json:"tourist_id" gorm:"type:uuid;index;not null"`
	ProviderID     uuid.UUID `json:"provider_id" gorm:"type:uuid;index;not null"`

	BookingDate      time.Time         `json:"booking_date" gorm:"not null"`
	TourDate         time.Time         `json:"tour_date" gorm:"not null"`
	SelectedTimeSlot *SelectedTimeSlot `json:"selected_time_slot,omitempty" gorm:"type:jsonb;serializer:json"`

	NumberOfParticipants int           `json:"number_of_participants" gorm:"not null;check:number_of_participants >= 1"`
	Participants         []Participant `json:"participants,omitempty" gorm:"type:jsonb;serializer:json"`

	PricePerPerson   float64                        `json:"price_per_person" gorm:"not null;check:price_per_person >= 0"`
	TotalAmount      float64                        `json:"total_amount" gorm:"not null;check:total_amount >= 0"`
	Currency         string                         `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	AppliedDiscounts []availability.AppliedDiscount `json:"applied_discounts,omitempty" gorm:"type:jsonb;serializer:json"`

	Status        Status        `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);default:'pending'"`

	// Contact
	ContactEmail    string `json:"contact_email" gorm:"not null"`
	ContactPhone    string `json:"contact_phone,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`

	// Confirmation and communication
	ConfirmationSentAt *time.Time `json:"confirmation_sent_at,omitempty"`

	// Cancellation audit
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *uuid.UUID `json:"cancelled_by,omitempty" gorm:"type:uuid"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	RefundAmount       *float64   `json:"refund_amount,omitempty"`
	RefundProcessedAt  *time.Time `json:"refund_processed_at,omitempty"`

	// Check-in audit
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	CheckedInBy *uuid.UUID `json:"checked_in_by,omitempty" gorm:"type:uuid"`
	NoShow      bool       `json:"no_show" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// RecomputeTotal rederives total_amount from price_per_person, participant
// count, and the recorded discounts, using the same cumulative stacking as
// the pricing engine. Called before persisting any change that touches one
// of those inputs; the result is floored at zero.
func (b *Booking) RecomputeTotal() {
	raw := b.PricePerPerson * float64(b.NumberOfParticipants)
	b.TotalAmount = availability.StackDiscounts(raw, b.AppliedDiscounts)
}

// CountsAgainstCapacity reports whether this booking still occupies spots on
// its availability record.
func (b *Booking) CountsAgainstCapacity() bool {
	return b.Status != StatusCancelled
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// SlotIndex returns the reserved slot index, or nil when the booking was
// placed against date-level capacity only.
func (b *Booking) SlotIndex() *int {
	if b.SelectedTimeSlot == nil {
		return nil
	}
	idx := b.SelectedTimeSlot.Index
	return &idx
}
