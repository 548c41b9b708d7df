package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tourly/internal/availability"
	"tourly/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAvailability backs both the AvailabilityService slice and the capacity
// ledger the fake repository reserves against.
type fakeAvailability struct {
	mu            sync.Mutex
	records       map[uuid.UUID]*availability.Availability
	invalidations int
}

func newFakeAvailability() *fakeAvailability {
	return &fakeAvailability{records: make(map[uuid.UUID]*availability.Availability)}
}

func (f *fakeAvailability) add(a *availability.Availability) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.AvailableSpots = a.TotalCapacity - a.ReservedSpots
	f.records[a.ID] = a
}

func (f *fakeAvailability) GetByID(ctx context.Context, id uuid.UUID) (*availability.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.records[id]
	if !ok {
		return nil, availability.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAvailability) Quote(ctx context.Context, id uuid.UUID, participants int, at time.Time) (*availability.QuoteResponse, error) {
	a, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	total, discounts := availability.Quote(a.BasePricePerPerson, participants, at, a.PricingRules)
	return &availability.QuoteResponse{
		AvailabilityID: a.ID.String(),
		Participants:   participants,
		PricePerPerson: a.BasePricePerPerson,
		TotalAmount:    total,
		Currency:       a.Currency,
		Discounts:      discounts,
		QuotedAt:       at,
	}, nil
}

func (f *fakeAvailability) InvalidateListings(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidations++
}

// reserve mirrors the conditional-update semantics of the real ledger.
func (f *fakeAvailability) reserve(id uuid.UUID, spots int, slotIndex *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.records[id]
	if !ok {
		return availability.ErrNotFound
	}
	if !a.IsAvailable || !a.Type.Reservable() {
		return availability.ErrNotAvailable
	}
	if slotIndex != nil {
		slot := a.Slot(*slotIndex)
		if slot == nil || !slot.HasRoom(spots) {
			return availability.ErrSlotUnavailable
		}
	}
	if a.ReservedSpots+spots > a.TotalCapacity {
		return availability.ErrInsufficientCapacity
	}

	if slotIndex != nil {
		a.TimeSlots[*slotIndex].CurrentBookings += spots
	}
	a.ReservedSpots += spots
	a.AvailableSpots = a.TotalCapacity - a.ReservedSpots
	return nil
}

func (f *fakeAvailability) release(id uuid.UUID, spots int, slotIndex *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.records[id]
	if !ok {
		return availability.ErrNotFound
	}
	if slotIndex != nil {
		if slot := a.Slot(*slotIndex); slot != nil {
			slot.CurrentBookings -= spots
			if slot.CurrentBookings < 0 {
				slot.CurrentBookings = 0
			}
		}
	}
	a.ReservedSpots -= spots
	if a.ReservedSpots < 0 {
		a.ReservedSpots = 0
	}
	a.AvailableSpots = a.TotalCapacity - a.ReservedSpots
	return nil
}

type fakeRepo struct {
	mu       sync.Mutex
	avail    *fakeAvailability
	bookings map[uuid.UUID]*Booking
}

func newFakeRepo(avail *fakeAvailability) *fakeRepo {
	return &fakeRepo{avail: avail, bookings: make(map[uuid.UUID]*Booking)}
}

func (r *fakeRepo) CreateWithReservation(ctx context.Context, booking *Booking, refPrefix string, refRetries int) error {
	if err := r.avail.reserve(booking.AvailabilityID, booking.NumberOfParticipants, booking.SlotIndex()); err != nil {
		return err
	}

	ref, err := GenerateReference(refPrefix)
	if err != nil {
		return err
	}
	booking.BookingReference = ref
	booking.ID = uuid.New()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *booking
	r.bookings[booking.ID] = &stored
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeRepo) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.BookingReference == reference {
			copied := *b
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) GetUserBookings(ctx context.Context, touristID uuid.UUID, query ListQuery) ([]Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, b := range r.bookings {
		if b.TouristID == touristID {
			out = append(out, *b)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) GetProviderBookings(ctx context.Context, providerID uuid.UUID, query ListQuery) ([]Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID {
			out = append(out, *b)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) GetByAvailabilityID(ctx context.Context, availabilityID uuid.UUID) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, b := range r.bookings {
		if b.AvailabilityID == availabilityID && b.Status != StatusCancelled {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Booking, error) {
	r.mu.Lock()
	b, ok := r.bookings[id]
	if !ok {
		r.mu.Unlock()
		return nil, ErrNotFound
	}
	applyUpdates(b, updates)
	r.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r *fakeRepo) CancelWithRelease(ctx context.Context, booking *Booking, updates map[string]interface{}) error {
	r.mu.Lock()
	stored, ok := r.bookings[booking.ID]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	if stored.Status != booking.Status {
		r.mu.Unlock()
		return ErrInvalidTransition
	}
	r.mu.Unlock()

	if booking.CountsAgainstCapacity() {
		if err := r.avail.release(booking.AvailabilityID, booking.NumberOfParticipants, booking.SlotIndex()); err != nil {
			return err
		}
	}

	r.mu.Lock()
	applyUpdates(stored, updates)
	r.mu.Unlock()
	return nil
}

func applyUpdates(b *Booking, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "status":
			b.Status = value.(Status)
		case "payment_status":
			b.PaymentStatus = value.(PaymentStatus)
		case "confirmation_sent_at":
			v := value.(time.Time)
			b.ConfirmationSentAt = &v
		case "cancelled_at":
			v := value.(time.Time)
			b.CancelledAt = &v
		case "cancelled_by":
			v := value.(uuid.UUID)
			b.CancelledBy = &v
		case "cancellation_reason":
			b.CancellationReason = value.(string)
		case "refund_amount":
			v := value.(float64)
			b.RefundAmount = &v
		case "refund_processed_at":
			v := value.(time.Time)
			b.RefundProcessedAt = &v
		case "checked_in_at":
			v := value.(time.Time)
			b.CheckedInAt = &v
		case "checked_in_by":
			v := value.(uuid.UUID)
			b.CheckedInBy = &v
		case "no_show":
			b.NoShow = value.(bool)
		}
	}
	b.UpdatedAt = time.Now()
}

type fakeGateway struct {
	mu        sync.Mutex
	chargeErr error
	refundErr error
	charges   []float64
	refunds   []float64
}

func (g *fakeGateway) Charge(ctx context.Context, bookingID uuid.UUID, amount float64, currency, method string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chargeErr != nil {
		return "", g.chargeErr
	}
	g.charges = append(g.charges, amount)
	return "TXN_TEST_CHARGE", nil
}

func (g *fakeGateway) Refund(ctx context.Context, bookingID uuid.UUID, amount float64, currency string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return "", g.refundErr
	}
	g.refunds = append(g.refunds, amount)
	return "TXN_TEST_REFUND", nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	created   int
	confirmed int
	cancelled int
}

func (n *fakeNotifier) BookingCreated(ctx context.Context, booking *Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created++
}

func (n *fakeNotifier) BookingConfirmed(ctx context.Context, booking *Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed++
}

func (n *fakeNotifier) BookingCancelled(ctx context.Context, booking *Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled++
}

type testEnv struct {
	service  Service
	repo     *fakeRepo
	avail    *fakeAvailability
	gateway  *fakeGateway
	notifier *fakeNotifier
}

func newTestEnv() *testEnv {
	avail := newFakeAvailability()
	repo := newFakeRepo(avail)
	gateway := &fakeGateway{}
	notifier := &fakeNotifier{}

	svc := NewService(repo, avail, gateway, notifier, logger.New(), Config{})
	return &testEnv{service: svc, repo: repo, avail: avail, gateway: gateway, notifier: notifier}
}

func newTestAvailability(capacity int, price float64) *availability.Availability {
	return &availability.Availability{
		ID:                  uuid.New(),
		TourID:              uuid.New(),
		ProviderID:          uuid.New(),
		Date:                time.Now().AddDate(0, 0, 7),
		IsAvailable:         true,
		Type:                availability.TypeRegular,
		TotalCapacity:       capacity,
		BasePricePerPerson:  price,
		Currency:            "USD",
		MinimumParticipants: 1,
	}
}

func createRequest(a *availability.Availability, participants int) CreateBookingRequest {
	return CreateBookingRequest{
		AvailabilityID:       a.ID.String(),
		NumberOfParticipants: participants,
		ContactEmail:         "traveler@example.com",
	}
}

func TestCreateBooking_ReservesAndPrices(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)
	touristID := uuid.New()

	booking, err := env.service.CreateBooking(context.Background(), touristID, createRequest(a, 4))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, booking.Status)
	assert.Equal(t, PaymentPending, booking.PaymentStatus)
	assert.Equal(t, 200.0, booking.TotalAmount)
	assert.Equal(t, touristID, booking.TouristID)
	assert.Regexp(t, `^BK-\d{8}-[A-Z0-9]{6}$`, booking.BookingReference)

	ledger, err := env.avail.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, ledger.ReservedSpots)
	assert.Equal(t, 6, ledger.AvailableSpots)

	assert.Equal(t, 1, env.notifier.created)
	assert.GreaterOrEqual(t, env.avail.invalidations, 1)
}

func TestCreateBooking_AppliesDiscounts(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	pct := 10.0
	a.PricingRules = []availability.PricingRule{
		{Type: availability.RuleEarlyBird, DiscountPercentage: &pct},
	}
	env.avail.add(a)

	booking, err := env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 4))
	require.NoError(t, err)

	assert.Equal(t, 180.0, booking.TotalAmount)
	require.Len(t, booking.AppliedDiscounts, 1)
	assert.Equal(t, availability.RuleEarlyBird, booking.AppliedDiscounts[0].Type)
}

func TestCreateBooking_InsufficientCapacity(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(3, 50)
	env.avail.add(a)

	_, err := env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 4))
	assert.ErrorIs(t, err, availability.ErrInsufficientCapacity)
}

func TestCreateBooking_ClosedAvailability(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	a.Type = availability.TypeBlocked
	env.avail.add(a)

	_, err := env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 2))
	assert.ErrorIs(t, err, availability.ErrNotAvailable)
}

func TestCreateBooking_BelowMinimumParticipants(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	a.MinimumParticipants = 4
	env.avail.add(a)

	_, err := env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 2))
	assert.ErrorIs(t, err, availability.ErrNotAvailable)
}

func TestCreateBooking_SlotPriceOverride(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	a.TimeSlots = []availability.TimeSlot{
		{StartTime: "09:00", EndTime: "12:00", MaxCapacity: 5, PricePerPerson: 110, IsAvailable: true},
	}
	env.avail.add(a)

	idx := 0
	req := createRequest(a, 2)
	req.TimeSlotIndex = &idx

	booking, err := env.service.CreateBooking(context.Background(), uuid.New(), req)
	require.NoError(t, err)

	assert.Equal(t, 110.0, booking.PricePerPerson)
	assert.Equal(t, 220.0, booking.TotalAmount)
	require.NotNil(t, booking.SelectedTimeSlot)
	assert.Equal(t, 0, booking.SelectedTimeSlot.Index)
	assert.Equal(t, "09:00", booking.SelectedTimeSlot.StartTime)

	ledger, err := env.avail.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.TimeSlots[0].CurrentBookings)
}

func TestCreateBooking_InvalidSlotIndex(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)

	idx := 3
	req := createRequest(a, 2)
	req.TimeSlotIndex = &idx

	_, err := env.service.CreateBooking(context.Background(), uuid.New(), req)
	assert.ErrorIs(t, err, availability.ErrSlotUnavailable)
}

func TestCancelBooking_ReleasesSpots(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)
	touristID := uuid.New()

	booking, err := env.service.CreateBooking(context.Background(), touristID, createRequest(a, 4))
	require.NoError(t, err)

	cancelled, err := env.service.CancelBooking(context.Background(), booking.ID, touristID, "TOURIST", "change of plans")
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, "change of plans", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, touristID, *cancelled.CancelledBy)
	assert.NotNil(t, cancelled.CancelledAt)

	ledger, err := env.avail.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.ReservedSpots)
	assert.Equal(t, 10, ledger.AvailableSpots)

	assert.Equal(t, 1, env.notifier.cancelled)
}

func TestCancelBooking_PaidGetsRefunded(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)
	touristID := uuid.New()

	booking, err := env.service.CreateBooking(context.Background(), touristID, createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.repo.Update(context.Background(), booking.ID, map[string]interface{}{
		"status":         StatusPaid,
		"payment_status": PaymentPaid,
	})
	require.NoError(t, err)

	cancelled, err := env.service.CancelBooking(context.Background(), booking.ID, touristID, "TOURIST", "")
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, PaymentRefunded, cancelled.PaymentStatus)
	require.NotNil(t, cancelled.RefundAmount)
	assert.Equal(t, booking.TotalAmount, *cancelled.RefundAmount)
	assert.NotNil(t, cancelled.RefundProcessedAt)

	require.Len(t, env.gateway.refunds, 1)
	assert.Equal(t, booking.TotalAmount, env.gateway.refunds[0])
}

func TestCancelBooking_RefundFailureDoesNotUndoCancellation(t *testing.T) {
	env := newTestEnv()
	env.gateway.refundErr = errors.New("gateway down")
	a := newTestAvailability(10, 50)
	env.avail.add(a)
	touristID := uuid.New()

	booking, err := env.service.CreateBooking(context.Background(), touristID, createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.repo.Update(context.Background(), booking.ID, map[string]interface{}{
		"status":         StatusPaid,
		"payment_status": PaymentPaid,
	})
	require.NoError(t, err)

	cancelled, err := env.service.CancelBooking(context.Background(), booking.ID, touristID, "TOURIST", "")
	require.NoError(t, err)

	// Cancelled, but the refund stays pending for the out-of-band path.
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.NotEqual(t, PaymentRefunded, cancelled.PaymentStatus)
}

func TestCancelBooking_NotOwner(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)

	booking, err := env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.service.CancelBooking(context.Background(), booking.ID, uuid.New(), "TOURIST", "")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCancelBooking_AdminCanAlwaysCancel(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)

	booking, err := env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 2))
	require.NoError(t, err)

	cancelled, err := env.service.CancelBooking(context.Background(), booking.ID, uuid.New(), "ADMIN", "policy violation")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

func TestCancelBooking_FromCompletedFails(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)
	touristID := uuid.New()

	booking, err := env.service.CreateBooking(context.Background(), touristID, createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.repo.Update(context.Background(), booking.ID, map[string]interface{}{
		"status": StatusCompleted,
	})
	require.NoError(t, err)

	_, err = env.service.CancelBooking(context.Background(), booking.ID, touristID, "TOURIST", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmBooking(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)

	booking, err := env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 2))
	require.NoError(t, err)

	confirmed, err := env.service.ConfirmBooking(context.Background(), booking.ID, a.ProviderID, "PROVIDER")
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmationSentAt)
	assert.Equal(t, 1, env.notifier.confirmed)

	// Confirming twice is an illegal transition.
	_, err = env.service.ConfirmBooking(context.Background(), booking.ID, a.ProviderID, "PROVIDER")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmBooking_WrongProvider(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)

	booking, err := env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.service.ConfirmBooking(context.Background(), booking.ID, uuid.New(), "PROVIDER")
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = env.service.ConfirmBooking(context.Background(), booking.ID, booking.TouristID, "TOURIST")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestProcessPayment(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)
	touristID := uuid.New()

	booking, err := env.service.CreateBooking(context.Background(), touristID, createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.service.ConfirmBooking(context.Background(), booking.ID, a.ProviderID, "PROVIDER")
	require.NoError(t, err)

	paid, err := env.service.ProcessPayment(context.Background(), booking.ID, touristID, "card")
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, paid.Status)
	assert.Equal(t, PaymentPaid, paid.PaymentStatus)
	require.Len(t, env.gateway.charges, 1)
	assert.Equal(t, booking.TotalAmount, env.gateway.charges[0])
}

func TestProcessPayment_BeforeConfirmationFails(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)
	touristID := uuid.New()

	booking, err := env.service.CreateBooking(context.Background(), touristID, createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.service.ProcessPayment(context.Background(), booking.ID, touristID, "card")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestProcessPayment_ChargeFailureRecorded(t *testing.T) {
	env := newTestEnv()
	env.gateway.chargeErr = errors.New("card declined")
	a := newTestAvailability(10, 50)
	env.avail.add(a)
	touristID := uuid.New()

	booking, err := env.service.CreateBooking(context.Background(), touristID, createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.service.ConfirmBooking(context.Background(), booking.ID, a.ProviderID, "PROVIDER")
	require.NoError(t, err)

	_, err = env.service.ProcessPayment(context.Background(), booking.ID, touristID, "card")
	require.Error(t, err)

	stored, err := env.repo.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentFailed, stored.PaymentStatus)
	assert.Equal(t, StatusConfirmed, stored.Status)
}

func TestProcessPayment_NotOwner(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)

	booking, err := env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.service.ProcessPayment(context.Background(), booking.ID, uuid.New(), "card")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCheckInBooking(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)

	booking, err := env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 2))
	require.NoError(t, err)

	// Pending bookings cannot check in.
	_, err = env.service.CheckInBooking(context.Background(), booking.ID, a.ProviderID, "PROVIDER")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.service.ConfirmBooking(context.Background(), booking.ID, a.ProviderID, "PROVIDER")
	require.NoError(t, err)

	completed, err := env.service.CheckInBooking(context.Background(), booking.ID, a.ProviderID, "PROVIDER")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.CheckedInBy)
	assert.Equal(t, a.ProviderID, *completed.CheckedInBy)
	assert.NotNil(t, completed.CheckedInAt)
}

func TestMarkNoShow(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)

	booking, err := env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.service.ConfirmBooking(context.Background(), booking.ID, a.ProviderID, "PROVIDER")
	require.NoError(t, err)

	flagged, err := env.service.MarkNoShow(context.Background(), booking.ID, a.ProviderID, "PROVIDER")
	require.NoError(t, err)

	assert.Equal(t, StatusNoShow, flagged.Status)
	assert.True(t, flagged.NoShow)
}

func TestProcessRefund_AdminOnly(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)

	booking, err := env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.service.ProcessRefund(context.Background(), booking.ID, uuid.New(), "TOURIST")
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = env.service.ProcessRefund(context.Background(), booking.ID, uuid.New(), "PROVIDER")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestProcessRefund_CancelledBooking(t *testing.T) {
	env := newTestEnv()
	env.gateway.refundErr = errors.New("gateway down")
	a := newTestAvailability(10, 50)
	env.avail.add(a)
	touristID := uuid.New()

	booking, err := env.service.CreateBooking(context.Background(), touristID, createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.repo.Update(context.Background(), booking.ID, map[string]interface{}{
		"status":         StatusPaid,
		"payment_status": PaymentPaid,
	})
	require.NoError(t, err)

	// The inline refund fails, leaving a cancelled-but-unrefunded booking.
	_, err = env.service.CancelBooking(context.Background(), booking.ID, touristID, "TOURIST", "")
	require.NoError(t, err)

	env.gateway.refundErr = nil

	refunded, err := env.service.ProcessRefund(context.Background(), booking.ID, uuid.New(), "ADMIN")
	require.NoError(t, err)

	assert.Equal(t, StatusRefunded, refunded.Status)
	assert.Equal(t, PaymentRefunded, refunded.PaymentStatus)
	require.Len(t, env.gateway.refunds, 1)
}

func TestGetBooking_Authorization(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)
	touristID := uuid.New()

	booking, err := env.service.CreateBooking(context.Background(), touristID, createRequest(a, 2))
	require.NoError(t, err)

	_, err = env.service.GetBooking(context.Background(), booking.ID, touristID, "TOURIST")
	assert.NoError(t, err)

	_, err = env.service.GetBooking(context.Background(), booking.ID, a.ProviderID, "PROVIDER")
	assert.NoError(t, err)

	_, err = env.service.GetBooking(context.Background(), booking.ID, uuid.New(), "ADMIN")
	assert.NoError(t, err)

	_, err = env.service.GetBooking(context.Background(), booking.ID, uuid.New(), "TOURIST")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestGetBookingByReference(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(10, 50)
	env.avail.add(a)
	touristID := uuid.New()

	booking, err := env.service.CreateBooking(context.Background(), touristID, createRequest(a, 2))
	require.NoError(t, err)

	found, err := env.service.GetBookingByReference(context.Background(), booking.BookingReference, touristID, "TOURIST")
	require.NoError(t, err)
	assert.Equal(t, booking.ID, found.ID)

	_, err = env.service.GetBookingByReference(context.Background(), "BK-20200101-XXXXXX", touristID, "TOURIST")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentBookings_NeverOversell(t *testing.T) {
	env := newTestEnv()
	a := newTestAvailability(5, 50)
	env.avail.add(a)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.service.CreateBooking(context.Background(), uuid.New(), createRequest(a, 3))
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, availability.ErrInsufficientCapacity)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of two 3-spot bookings on capacity 5 must fail")

	ledger, err := env.avail.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, ledger.ReservedSpots)
	assert.Equal(t, 2, ledger.AvailableSpots)
}
