package registrations

import (
	"context"
	"sync"
	"testing"
	"time"

	"tourly/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegRepo mirrors the conditional counter semantics of the real
// repository so the approve/release invariants can be tested in-process.
type fakeRegRepo struct {
	mu            sync.Mutex
	tours         map[uuid.UUID]*CustomTour
	registrations map[uuid.UUID]*Registration
}

func newFakeRegRepo() *fakeRegRepo {
	return &fakeRegRepo{
		tours:         make(map[uuid.UUID]*CustomTour),
		registrations: make(map[uuid.UUID]*Registration),
	}
}

func (r *fakeRegRepo) CreateTour(ctx context.Context, tour *CustomTour) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tour.ID == uuid.Nil {
		tour.ID = uuid.New()
	}
	if tour.RemainingTourists == 0 {
		tour.RemainingTourists = tour.MaxTourists
	}
	stored := *tour
	r.tours[tour.ID] = &stored
	return nil
}

func (r *fakeRegRepo) GetTourByID(ctx context.Context, id uuid.UUID) (*CustomTour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tour, ok := r.tours[id]
	if !ok {
		return nil, ErrTourNotFound
	}
	copied := *tour
	return &copied, nil
}

func (r *fakeRegRepo) ListActiveTours(ctx context.Context) ([]CustomTour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []CustomTour
	for _, tour := range r.tours {
		if tour.IsActive {
			out = append(out, *tour)
		}
	}
	return out, nil
}

func (r *fakeRegRepo) CreateRegistration(ctx context.Context, registration *Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.registrations {
		if existing.CustomTourID == registration.CustomTourID && existing.TouristID == registration.TouristID {
			return ErrAlreadyRegistered
		}
	}
	registration.ID = uuid.New()
	registration.CreatedAt = time.Now()
	stored := *registration
	r.registrations[registration.ID] = &stored
	return nil
}

func (r *fakeRegRepo) GetRegistrationByID(ctx context.Context, id uuid.UUID) (*Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	registration, ok := r.registrations[id]
	if !ok {
		return nil, ErrRegistrationNotFound
	}
	copied := *registration
	return &copied, nil
}

func (r *fakeRegRepo) ListByTour(ctx context.Context, tourID uuid.UUID) ([]Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Registration
	for _, registration := range r.registrations {
		if registration.CustomTourID == tourID {
			out = append(out, *registration)
		}
	}
	return out, nil
}

func (r *fakeRegRepo) ListByTourist(ctx context.Context, touristID uuid.UUID) ([]Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Registration
	for _, registration := range r.registrations {
		if registration.TouristID == touristID {
			out = append(out, *registration)
		}
	}
	return out, nil
}

func (r *fakeRegRepo) ApproveWithDecrement(ctx context.Context, registrationID, decidedBy uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	registration, ok := r.registrations[registrationID]
	if !ok {
		return ErrRegistrationNotFound
	}
	if registration.Status != RegistrationPending {
		return ErrInvalidStatusChange
	}

	tour, ok := r.tours[registration.CustomTourID]
	if !ok {
		return ErrTourNotFound
	}
	if tour.RemainingTourists <= 0 {
		return ErrNoSpotsRemaining
	}

	tour.RemainingTourists--
	now := time.Now()
	registration.Status = RegistrationApproved
	registration.DecidedAt = &now
	registration.DecidedBy = &decidedBy
	return nil
}

func (r *fakeRegRepo) ReleaseWithIncrement(ctx context.Context, registration *Registration, newStatus RegistrationStatus, decidedBy uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.registrations[registration.ID]
	if !ok {
		return ErrRegistrationNotFound
	}
	if stored.Status != RegistrationApproved {
		return ErrInvalidStatusChange
	}

	now := time.Now()
	stored.Status = newStatus
	stored.DecidedAt = &now
	stored.DecidedBy = &decidedBy

	if tour, ok := r.tours[stored.CustomTourID]; ok {
		tour.RemainingTourists++
		if tour.RemainingTourists > tour.MaxTourists {
			tour.RemainingTourists = tour.MaxTourists
		}
	}
	return nil
}

func (r *fakeRegRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to RegistrationStatus, decidedBy uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	registration, ok := r.registrations[id]
	if !ok {
		return ErrRegistrationNotFound
	}
	if registration.Status != from {
		return ErrInvalidStatusChange
	}

	now := time.Now()
	registration.Status = to
	registration.DecidedAt = &now
	registration.DecidedBy = &decidedBy
	return nil
}

type fakeRegNotifier struct {
	mu       sync.Mutex
	approved int
}

func (n *fakeRegNotifier) RegistrationApproved(ctx context.Context, registration *Registration, tour *CustomTour) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved++
}

func (n *fakeRegNotifier) approvedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.approved
}

func newRegTestService() (Service, *fakeRegRepo, *fakeRegNotifier) {
	repo := newFakeRegRepo()
	notifier := &fakeRegNotifier{}
	return NewService(repo, notifier, logger.New()), repo, notifier
}

func seedTour(t *testing.T, svc Service, providerID uuid.UUID, maxTourists int) *CustomTour {
	t.Helper()
	tour, err := svc.CreateTour(context.Background(), providerID, CreateTourRequest{
		Title:          "Volcano Sunrise Trek",
		StartDate:      time.Now().AddDate(0, 1, 0),
		EndDate:        time.Now().AddDate(0, 1, 2),
		MaxTourists:    maxTourists,
		PricePerPerson: 240,
	})
	require.NoError(t, err)
	return tour
}

func registerTourist(t *testing.T, svc Service, tourID uuid.UUID) (*Registration, uuid.UUID) {
	t.Helper()
	touristID := uuid.New()
	registration, err := svc.Register(context.Background(), touristID, RegisterRequest{
		CustomTourID: tourID.String(),
		ContactEmail: "traveler@example.com",
	})
	require.NoError(t, err)
	return registration, touristID
}

func TestCreateTour_InitializesCounter(t *testing.T) {
	svc, _, _ := newRegTestService()

	tour := seedTour(t, svc, uuid.New(), 6)
	assert.Equal(t, 6, tour.MaxTourists)
	assert.Equal(t, 6, tour.RemainingTourists)
	assert.Equal(t, "USD", tour.Currency)
	assert.True(t, tour.IsActive)
}

func TestRegister_PendingConsumesNoSpot(t *testing.T) {
	svc, _, _ := newRegTestService()
	tour := seedTour(t, svc, uuid.New(), 2)

	registration, _ := registerTourist(t, svc, tour.ID)
	assert.Equal(t, RegistrationPending, registration.Status)

	current, err := svc.GetTour(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.RemainingTourists)
}

func TestRegister_DuplicateRejected(t *testing.T) {
	svc, _, _ := newRegTestService()
	tour := seedTour(t, svc, uuid.New(), 2)

	touristID := uuid.New()
	req := RegisterRequest{CustomTourID: tour.ID.String(), ContactEmail: "traveler@example.com"}

	_, err := svc.Register(context.Background(), touristID, req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), touristID, req)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegister_FullTourRejected(t *testing.T) {
	svc, repo, _ := newRegTestService()
	providerID := uuid.New()
	tour := seedTour(t, svc, providerID, 1)

	registration, _ := registerTourist(t, svc, tour.ID)
	_, err := svc.Decide(context.Background(), registration.ID, providerID, "PROVIDER", true)
	require.NoError(t, err)

	stored, err := repo.GetTourByID(context.Background(), tour.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stored.RemainingTourists)

	_, err = svc.Register(context.Background(), uuid.New(), RegisterRequest{
		CustomTourID: tour.ID.String(),
		ContactEmail: "late@example.com",
	})
	assert.ErrorIs(t, err, ErrNoSpotsRemaining)
}

func TestDecide_ApproveDecrementsCounter(t *testing.T) {
	svc, _, _ := newRegTestService()
	providerID := uuid.New()
	tour := seedTour(t, svc, providerID, 3)
	registration, _ := registerTourist(t, svc, tour.ID)

	approved, err := svc.Decide(context.Background(), registration.ID, providerID, "PROVIDER", true)
	require.NoError(t, err)

	assert.Equal(t, RegistrationApproved, approved.Status)
	require.NotNil(t, approved.DecidedBy)
	assert.Equal(t, providerID, *approved.DecidedBy)

	current, err := svc.GetTour(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.RemainingTourists)
}

func TestDecide_RejectTouchesNoCounter(t *testing.T) {
	svc, _, _ := newRegTestService()
	providerID := uuid.New()
	tour := seedTour(t, svc, providerID, 3)
	registration, _ := registerTourist(t, svc, tour.ID)

	rejected, err := svc.Decide(context.Background(), registration.ID, providerID, "PROVIDER", false)
	require.NoError(t, err)
	assert.Equal(t, RegistrationRejected, rejected.Status)

	current, err := svc.GetTour(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, current.RemainingTourists)
}

func TestDecide_ForeignProviderForbidden(t *testing.T) {
	svc, _, _ := newRegTestService()
	tour := seedTour(t, svc, uuid.New(), 3)
	registration, _ := registerTourist(t, svc, tour.ID)

	_, err := svc.Decide(context.Background(), registration.ID, uuid.New(), "PROVIDER", true)
	assert.ErrorIs(t, err, ErrNotTourOwner)

	// Neither the registration nor the counter may have moved.
	current, err := svc.GetTour(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, current.RemainingTourists)

	regs, err := svc.ListByTour(context.Background(), tour.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, RegistrationPending, regs[0].Status)
}

func TestDecide_AdminMayDecideAnyTour(t *testing.T) {
	svc, _, _ := newRegTestService()
	tour := seedTour(t, svc, uuid.New(), 3)
	registration, _ := registerTourist(t, svc, tour.ID)

	adminID := uuid.New()
	approved, err := svc.Decide(context.Background(), registration.ID, adminID, "ADMIN", true)
	require.NoError(t, err)
	assert.Equal(t, RegistrationApproved, approved.Status)

	current, err := svc.GetTour(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.RemainingTourists)
}

func TestDecide_ApprovalNotifies(t *testing.T) {
	svc, _, notifier := newRegTestService()
	providerID := uuid.New()
	tour := seedTour(t, svc, providerID, 3)

	approved, _ := registerTourist(t, svc, tour.ID)
	rejected, _ := registerTourist(t, svc, tour.ID)

	_, err := svc.Decide(context.Background(), approved.ID, providerID, "PROVIDER", true)
	require.NoError(t, err)
	_, err = svc.Decide(context.Background(), rejected.ID, providerID, "PROVIDER", false)
	require.NoError(t, err)

	assert.Equal(t, 1, notifier.approvedCount(), "only the approval sends a notification")
}

func TestDecide_ApprovalRaceForLastSpot(t *testing.T) {
	svc, _, _ := newRegTestService()
	providerID := uuid.New()
	tour := seedTour(t, svc, providerID, 1)

	first, _ := registerTourist(t, svc, tour.ID)
	second, _ := registerTourist(t, svc, tour.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = svc.Decide(context.Background(), id, providerID, "PROVIDER", true)
		}(i, id)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrNoSpotsRemaining)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "only one approval can take the last spot")

	current, err := svc.GetTour(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, current.RemainingTourists)
}

func TestDecide_AlreadyDecided(t *testing.T) {
	svc, _, _ := newRegTestService()
	providerID := uuid.New()
	tour := seedTour(t, svc, providerID, 3)
	registration, _ := registerTourist(t, svc, tour.ID)

	_, err := svc.Decide(context.Background(), registration.ID, providerID, "PROVIDER", true)
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), registration.ID, providerID, "PROVIDER", true)
	assert.ErrorIs(t, err, ErrInvalidStatusChange)
}

func TestCancelRegistration_PendingKeepsCounter(t *testing.T) {
	svc, _, _ := newRegTestService()
	tour := seedTour(t, svc, uuid.New(), 3)
	registration, touristID := registerTourist(t, svc, tour.ID)

	cancelled, err := svc.CancelRegistration(context.Background(), registration.ID, touristID)
	require.NoError(t, err)
	assert.Equal(t, RegistrationCancelled, cancelled.Status)

	current, err := svc.GetTour(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, current.RemainingTourists)
}

func TestCancelRegistration_ApprovedRestoresSpot(t *testing.T) {
	svc, _, _ := newRegTestService()
	providerID := uuid.New()
	tour := seedTour(t, svc, providerID, 3)
	registration, touristID := registerTourist(t, svc, tour.ID)

	_, err := svc.Decide(context.Background(), registration.ID, providerID, "PROVIDER", true)
	require.NoError(t, err)

	cancelled, err := svc.CancelRegistration(context.Background(), registration.ID, touristID)
	require.NoError(t, err)
	assert.Equal(t, RegistrationCancelled, cancelled.Status)

	current, err := svc.GetTour(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, current.RemainingTourists, "the approved spot must come back")
}

func TestCancelRegistration_OnlyOwner(t *testing.T) {
	svc, _, _ := newRegTestService()
	tour := seedTour(t, svc, uuid.New(), 3)
	registration, _ := registerTourist(t, svc, tour.ID)

	_, err := svc.CancelRegistration(context.Background(), registration.ID, uuid.New())
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
}

func TestCancelRegistration_RejectedCannotCancel(t *testing.T) {
	svc, _, _ := newRegTestService()
	providerID := uuid.New()
	tour := seedTour(t, svc, providerID, 3)
	registration, touristID := registerTourist(t, svc, tour.ID)

	_, err := svc.Decide(context.Background(), registration.ID, providerID, "PROVIDER", false)
	require.NoError(t, err)

	_, err = svc.CancelRegistration(context.Background(), registration.ID, touristID)
	assert.ErrorIs(t, err, ErrInvalidStatusChange)
}
