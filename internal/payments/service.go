package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is a mock gateway. Charges always succeed and settle immediately;
// the persistence shape matches what a real processor integration would
// leave behind.
type Service interface {
	Charge(ctx context.Context, bookingID uuid.UUID, amount float64, currency, method string) (string, error)
	Refund(ctx context.Context, bookingID uuid.UUID, amount float64, currency string) (string, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)
}

type service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) Service {
	return &service{db: db}
}

func (s *service) Charge(ctx context.Context, bookingID uuid.UUID, amount float64, currency, method string) (string, error) {
	now := time.Now()
	payment := &Payment{
		BookingID:     bookingID,
		Type:          TypeCharge,
		Amount:        amount,
		Currency:      currency,
		Status:        StatusCompleted,
		PaymentMethod: method,
		TransactionID: generateTransactionID(),
		ProcessedAt:   &now,
	}

	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		return "", fmt.Errorf("failed to record payment: %w", err)
	}
	return payment.TransactionID, nil
}

func (s *service) Refund(ctx context.Context, bookingID uuid.UUID, amount float64, currency string) (string, error) {
	now := time.Now()
	payment := &Payment{
		BookingID:     bookingID,
		Type:          TypeRefund,
		Amount:        amount,
		Currency:      currency,
		Status:        StatusCompleted,
		TransactionID: generateTransactionID(),
		ProcessedAt:   &now,
	}

	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		return "", fmt.Errorf("failed to record refund: %w", err)
	}
	return payment.TransactionID, nil
}

func (s *service) GetByBookingID(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	var records []Payment
	err := s.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func generateTransactionID() string {
	timestamp := time.Now().Unix()
	short := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("TXN_%d_%s", timestamp, strings.ToUpper(short))
}
