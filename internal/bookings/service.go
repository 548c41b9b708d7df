package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourly/internal/availability"
	"tourly/pkg/logger"

	"github.com/google/uuid"
)

// AvailabilityService is the slice of the availability package this service
// needs (to avoid dragging the full interface into tests).
type AvailabilityService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*availability.Availability, error)
	Quote(ctx context.Context, id uuid.UUID, participants int, at time.Time) (*availability.QuoteResponse, error)
	InvalidateListings(ctx context.Context)
}

// Notifier receives lifecycle events after they commit. Implementations must
// not block the request path; failures are logged, never surfaced.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *Booking)
	BookingConfirmed(ctx context.Context, booking *Booking)
	BookingCancelled(ctx context.Context, booking *Booking)
}

// PaymentGateway charges and refunds bookings. The bundled implementation is
// a mock; swapping in a real processor only touches the payments package.
type PaymentGateway interface {
	Charge(ctx context.Context, bookingID uuid.UUID, amount float64, currency, method string) (transactionID string, err error)
	Refund(ctx context.Context, bookingID uuid.UUID, amount float64, currency string) (transactionID string, err error)
}

type Service interface {
	CreateBooking(ctx context.Context, touristID uuid.UUID, req CreateBookingRequest) (*Booking, error)
	GetBooking(ctx context.Context, bookingID, requesterID uuid.UUID, role string) (*Booking, error)
	GetBookingByReference(ctx context.Context, reference string, requesterID uuid.UUID, role string) (*Booking, error)
	GetUserBookings(ctx context.Context, touristID uuid.UUID, query ListQuery) ([]Booking, int64, error)
	GetProviderBookings(ctx context.Context, providerID uuid.UUID, query ListQuery) ([]Booking, int64, error)

	ConfirmBooking(ctx context.Context, bookingID, actorID uuid.UUID, role string) (*Booking, error)
	CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID, role, reason string) (*Booking, error)
	ProcessPayment(ctx context.Context, bookingID, touristID uuid.UUID, method string) (*Booking, error)
	CheckInBooking(ctx context.Context, bookingID, actorID uuid.UUID, role string) (*Booking, error)
	MarkNoShow(ctx context.Context, bookingID, actorID uuid.UUID, role string) (*Booking, error)
	ProcessRefund(ctx context.Context, bookingID, actorID uuid.UUID, role string) (*Booking, error)
}

type service struct {
	repo            Repository
	availabilitySvc AvailabilityService
	gateway         PaymentGateway
	notifier        Notifier
	log             *logger.Logger

	refPrefix  string
	refRetries int
	currency   string
}

type Config struct {
	ReferencePrefix  string
	ReferenceRetries int
	DefaultCurrency  string
}

func NewService(repo Repository, availabilitySvc AvailabilityService, gateway PaymentGateway, notifier Notifier, log *logger.Logger, cfg Config) Service {
	if cfg.ReferencePrefix == "" {
		cfg.ReferencePrefix = "BK"
	}
	if cfg.ReferenceRetries <= 0 {
		cfg.ReferenceRetries = 5
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}
	return &service{
		repo:            repo,
		availabilitySvc: availabilitySvc,
		gateway:         gateway,
		notifier:        notifier,
		log:             log,
		refPrefix:       cfg.ReferencePrefix,
		refRetries:      cfg.ReferenceRetries,
		currency:        cfg.DefaultCurrency,
	}
}

// CreateBooking quotes the price, then reserves spots and inserts the booking
// atomically. The read-side bookability check only exists to fail fast with a
// precise error; the conditional update inside the repository transaction is
// what actually prevents overselling.
func (s *service) CreateBooking(ctx context.Context, touristID uuid.UUID, req CreateBookingRequest) (*Booking, error) {
	availabilityID, err := uuid.Parse(req.AvailabilityID)
	if err != nil {
		return nil, fmt.Errorf("invalid availability id: %w", err)
	}

	avail, err := s.availabilitySvc.GetByID(ctx, availabilityID)
	if err != nil {
		return nil, err
	}

	if !avail.IsBookable(req.NumberOfParticipants) {
		if !avail.IsAvailable || !avail.Type.Reservable() {
			return nil, availability.ErrNotAvailable
		}
		return nil, availability.ErrInsufficientCapacity
	}
	if req.NumberOfParticipants < avail.MinimumParticipants {
		return nil, fmt.Errorf("%w: at least %d participants required",
			availability.ErrNotAvailable, avail.MinimumParticipants)
	}
	if avail.MaximumParticipants != nil && req.NumberOfParticipants > *avail.MaximumParticipants {
		return nil, fmt.Errorf("%w: at most %d participants allowed",
			availability.ErrNotAvailable, *avail.MaximumParticipants)
	}

	pricePerPerson := avail.BasePricePerPerson
	var selectedSlot *SelectedTimeSlot
	if req.TimeSlotIndex != nil {
		slot := avail.Slot(*req.TimeSlotIndex)
		if slot == nil {
			return nil, availability.ErrSlotUnavailable
		}
		if slot.PricePerPerson > 0 {
			pricePerPerson = slot.PricePerPerson
		}
		selectedSlot = &SelectedTimeSlot{
			Index:     *req.TimeSlotIndex,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		}
	}

	now := time.Now()
	_, discounts := availability.Quote(pricePerPerson, req.NumberOfParticipants, now, avail.PricingRules)

	currency := avail.Currency
	if currency == "" {
		currency = s.currency
	}

	booking := &Booking{
		AvailabilityID:       avail.ID,
		TourID:               avail.TourID,
		TouristID:            touristID,
		ProviderID:           avail.ProviderID,
		BookingDate:          now,
		TourDate:             avail.Date,
		SelectedTimeSlot:     selectedSlot,
		NumberOfParticipants: req.NumberOfParticipants,
		Participants:         toParticipants(req.Participants),
		PricePerPerson:       pricePerPerson,
		Currency:             currency,
		AppliedDiscounts:     discounts,
		Status:               StatusPending,
		PaymentStatus:        PaymentPending,
		ContactEmail:         req.ContactEmail,
		ContactPhone:         req.ContactPhone,
		SpecialRequests:      req.SpecialRequests,
	}
	booking.RecomputeTotal()

	if err := s.repo.CreateWithReservation(ctx, booking, s.refPrefix, s.refRetries); err != nil {
		return nil, err
	}

	s.availabilitySvc.InvalidateListings(ctx)
	s.log.LogBookingCreated(ctx, booking.BookingReference, booking.AvailabilityID.String(),
		touristID.String(), booking.NumberOfParticipants)

	if s.notifier != nil {
		s.notifier.BookingCreated(ctx, booking)
	}
	return booking, nil
}

func (s *service) GetBooking(ctx context.Context, bookingID, requesterID uuid.UUID, role string) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(booking, requesterID, role); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *service) GetBookingByReference(ctx context.Context, reference string, requesterID uuid.UUID, role string) (*Booking, error) {
	booking, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(booking, requesterID, role); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *service) GetUserBookings(ctx context.Context, touristID uuid.UUID, query ListQuery) ([]Booking, int64, error) {
	return s.repo.GetUserBookings(ctx, touristID, query)
}

func (s *service) GetProviderBookings(ctx context.Context, providerID uuid.UUID, query ListQuery) ([]Booking, int64, error) {
	return s.repo.GetProviderBookings(ctx, providerID, query)
}

func (s *service) ConfirmBooking(ctx context.Context, bookingID, actorID uuid.UUID, role string) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeProvider(booking, actorID, role); err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(StatusConfirmed) {
		return nil, transitionError(booking.Status, StatusConfirmed)
	}

	now := time.Now()
	updated, err := s.repo.Update(ctx, bookingID, map[string]interface{}{
		"status":               StatusConfirmed,
		"confirmation_sent_at": now,
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.BookingConfirmed(ctx, updated)
	}
	return updated, nil
}

// CancelBooking moves the booking into cancelled and hands its spots back in
// one transaction. Cancelling a booking that no longer holds spots, or racing
// another cancel, does not release anything twice. Paid bookings get a full
// refund through the gateway.
func (s *service) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID, role, reason string) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeCancel(booking, actorID, role); err != nil {
		return nil, err
	}
	if !booking.Status.CanBeCancelled() {
		return nil, transitionError(booking.Status, StatusCancelled)
	}

	wasPaid := booking.PaymentStatus == PaymentPaid

	now := time.Now()
	updates := map[string]interface{}{
		"status":              StatusCancelled,
		"cancelled_at":        now,
		"cancelled_by":        actorID,
		"cancellation_reason": reason,
	}
	if wasPaid {
		updates["refund_amount"] = booking.TotalAmount
	}

	if err := s.repo.CancelWithRelease(ctx, booking, updates); err != nil {
		return nil, err
	}

	s.availabilitySvc.InvalidateListings(ctx)
	s.log.LogBookingCancelled(ctx, booking.BookingReference, actorID.String(), reason)
	s.log.LogSpotsReleased(ctx, booking.AvailabilityID.String(), booking.NumberOfParticipants)

	updated, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if wasPaid && s.gateway != nil {
		if _, err := s.gateway.Refund(ctx, booking.ID, booking.TotalAmount, booking.Currency); err != nil {
			// The cancellation already committed; refunds are retried out of
			// band via ProcessRefund.
			s.log.ErrorWithContext(ctx, "refund failed after cancellation", err, map[string]interface{}{
				"booking_reference": booking.BookingReference,
			})
		} else {
			refundedAt := time.Now()
			updated, err = s.repo.Update(ctx, bookingID, map[string]interface{}{
				"payment_status":      PaymentRefunded,
				"refund_processed_at": refundedAt,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if s.notifier != nil {
		s.notifier.BookingCancelled(ctx, updated)
	}
	return updated, nil
}

func (s *service) ProcessPayment(ctx context.Context, bookingID, touristID uuid.UUID, method string) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.TouristID != touristID {
		return nil, ErrNotOwner
	}
	if !booking.Status.CanTransitionTo(StatusPaid) {
		return nil, transitionError(booking.Status, StatusPaid)
	}

	if _, err := s.gateway.Charge(ctx, booking.ID, booking.TotalAmount, booking.Currency, method); err != nil {
		_, updateErr := s.repo.Update(ctx, bookingID, map[string]interface{}{
			"payment_status": PaymentFailed,
		})
		if updateErr != nil {
			s.log.ErrorWithContext(ctx, "failed to record payment failure", updateErr, nil)
		}
		return nil, fmt.Errorf("payment failed: %w", err)
	}

	return s.repo.Update(ctx, bookingID, map[string]interface{}{
		"status":         StatusPaid,
		"payment_status": PaymentPaid,
	})
}

// CheckInBooking records arrival and completes the booking.
func (s *service) CheckInBooking(ctx context.Context, bookingID, actorID uuid.UUID, role string) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeProvider(booking, actorID, role); err != nil {
		return nil, err
	}
	if !booking.Status.CanCheckIn() {
		return nil, transitionError(booking.Status, StatusCompleted)
	}

	now := time.Now()
	return s.repo.Update(ctx, bookingID, map[string]interface{}{
		"status":        StatusCompleted,
		"checked_in_at": now,
		"checked_in_by": actorID,
	})
}

// MarkNoShow flags a traveler who never arrived. The spots stay consumed;
// the tour already ran.
func (s *service) MarkNoShow(ctx context.Context, bookingID, actorID uuid.UUID, role string) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeProvider(booking, actorID, role); err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(StatusNoShow) {
		return nil, transitionError(booking.Status, StatusNoShow)
	}

	return s.repo.Update(ctx, bookingID, map[string]interface{}{
		"status":  StatusNoShow,
		"no_show": true,
	})
}

// ProcessRefund is the out-of-band refund path for cancelled-but-unrefunded
// and paid bookings (admin only).
func (s *service) ProcessRefund(ctx context.Context, bookingID, actorID uuid.UUID, role string) (*Booking, error) {
	if role != "ADMIN" {
		return nil, ErrNotOwner
	}

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(StatusRefunded) {
		return nil, transitionError(booking.Status, StatusRefunded)
	}
	if booking.PaymentStatus == PaymentRefunded {
		return booking, nil
	}

	amount := booking.TotalAmount
	if booking.RefundAmount != nil {
		amount = *booking.RefundAmount
	}
	if _, err := s.gateway.Refund(ctx, booking.ID, amount, booking.Currency); err != nil {
		return nil, fmt.Errorf("refund failed: %w", err)
	}

	now := time.Now()
	return s.repo.Update(ctx, bookingID, map[string]interface{}{
		"status":              StatusRefunded,
		"payment_status":      PaymentRefunded,
		"refund_amount":       amount,
		"refund_processed_at": now,
	})
}

func authorizeRead(booking *Booking, requesterID uuid.UUID, role string) error {
	if role == "ADMIN" {
		return nil
	}
	if booking.TouristID == requesterID || booking.ProviderID == requesterID {
		return nil
	}
	return ErrNotOwner
}

// authorizeCancel allows the traveler who booked, the tour's provider, and
// admins.
func authorizeCancel(booking *Booking, actorID uuid.UUID, role string) error {
	return authorizeRead(booking, actorID, role)
}

// authorizeProvider gates operational transitions (confirm, check-in,
// no-show) to the tour's provider or an admin.
func authorizeProvider(booking *Booking, actorID uuid.UUID, role string) error {
	if role == "ADMIN" {
		return nil
	}
	if role == "PROVIDER" && booking.ProviderID == actorID {
		return nil
	}
	return ErrNotOwner
}

func transitionError(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func toParticipants(reqs []ParticipantRequest) []Participant {
	if len(reqs) == 0 {
		return nil
	}
	participants := make([]Participant, 0, len(reqs))
	for _, p := range reqs {
		participants = append(participants, Participant{
			Name:                p.Name,
			Age:                 p.Age,
			DietaryRequirements: p.DietaryRequirements,
			SpecialNeeds:        p.SpecialNeeds,
		})
	}
	return participants
}

// IsCapacityError reports whether err came from the capacity ledger rather
// than this package, so controllers can map it to 409.
func IsCapacityError(err error) bool {
	return errors.Is(err, availability.ErrInsufficientCapacity) ||
		errors.Is(err, availability.ErrSlotUnavailable) ||
		errors.Is(err, availability.ErrNotAvailable)
}
