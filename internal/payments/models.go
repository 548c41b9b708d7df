package payments

import (
	"time"

	"github.com/google/uuid"
)

type PaymentType string

const (
	TypeCharge PaymentType = "charge"
	TypeRefund PaymentType = "refund"
)

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
)

// Payment is one gateway interaction for a booking. Charges and refunds are
// separate rows so the money trail stays append-only.
type Payment struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookingID uuid.UUID `json:"booking_id" gorm:"type:uuid;index;not null"`

	Type          PaymentType   `json:"type" gorm:"type:varchar(10);not null"`
	Amount        float64       `json:"amount" gorm:"not null;check:amount >= 0"`
	Currency      string        `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	Status        PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	PaymentMethod string        `json:"payment_method" gorm:"type:varchar(50)"`
	TransactionID string        `json:"transaction_id" gorm:"uniqueIndex"`

	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
