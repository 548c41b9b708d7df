package registrations

import (
	"time"

	"github.com/google/uuid"
)

// CustomTour is a provider-curated tour with a fixed headcount. Unlike
// date-level availability it tracks a single running counter; approval
// decrements it, withdrawal of an approved registration restores it.
type CustomTour struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProviderID uuid.UUID `json:"provider_id" gorm:"type:uuid;index;not null"`

	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date" gorm:"type:date;not null"`
	EndDate     time.Time `json:"end_date" gorm:"type:date;not null"`

	MaxTourists       int `json:"max_tourists" gorm:"not null;check:max_tourists >= 1"`
	RemainingTourists int `json:"remaining_tourists" gorm:"not null;check:remaining_tourists >= 0"`

	PricePerPerson float64 `json:"price_per_person" gorm:"not null;check:price_per_person >= 0"`
	Currency       string  `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	IsActive       bool    `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CustomTour) TableName() string {
	return "custom_tours"
}

func (t *CustomTour) HasRemaining() bool {
	return t.RemainingTourists > 0
}

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationApproved  RegistrationStatus = "approved"
	RegistrationRejected  RegistrationStatus = "rejected"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationPending, RegistrationApproved, RegistrationRejected, RegistrationCancelled:
		return true
	}
	return false
}

// Registration is a traveler's request to join a custom tour. Only approved
// registrations consume a spot on the tour counter.
type Registration struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	CustomTourID uuid.UUID `json:"custom_tour_id" gorm:"type:uuid;index:idx_tour_tourist,unique;not null"`
	TouristID    uuid.UUID `json:"tourist_id" gorm:"type:uuid;index:idx_tour_tourist,unique;not null"`

	Status  RegistrationStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Message string             `json:"message,omitempty"`

	ContactEmail string `json:"contact_email" gorm:"not null"`
	ContactPhone string `json:"contact_phone,omitempty"`

	DecidedAt *time.Time `json:"decided_at,omitempty"`
	DecidedBy *uuid.UUID `json:"decided_by,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Registration) TableName() string {
	return "registrations"
}
