package registrations

import (
	"context"
	"time"

	"tourly/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	CreateTour(ctx context.Context, providerID uuid.UUID, req CreateTourRequest) (*CustomTour, error)
	GetTour(ctx context.Context, id uuid.UUID) (*CustomTour, error)
	ListTours(ctx context.Context) ([]CustomTour, error)

	Register(ctx context.Context, touristID uuid.UUID, req RegisterRequest) (*Registration, error)
	Decide(ctx context.Context, registrationID, decidedBy uuid.UUID, role string, approve bool) (*Registration, error)
	CancelRegistration(ctx context.Context, registrationID, touristID uuid.UUID) (*Registration, error)
	ListByTour(ctx context.Context, tourID uuid.UUID) ([]Registration, error)
	ListByTourist(ctx context.Context, touristID uuid.UUID) ([]Registration, error)
}

// Notifier receives registration events after they commit. Implementations
// must not block the request path; failures are logged, never surfaced.
type Notifier interface {
	RegistrationApproved(ctx context.Context, registration *Registration, tour *CustomTour)
}

type service struct {
	repo     Repository
	notifier Notifier
	log      *logger.Logger
}

func NewService(repo Repository, notifier Notifier, log *logger.Logger) Service {
	return &service{repo: repo, notifier: notifier, log: log}
}

func (s *service) CreateTour(ctx context.Context, providerID uuid.UUID, req CreateTourRequest) (*CustomTour, error) {
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	tour := &CustomTour{
		ProviderID:        providerID,
		Title:             req.Title,
		Description:       req.Description,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		MaxTourists:       req.MaxTourists,
		RemainingTourists: req.MaxTourists,
		PricePerPerson:    req.PricePerPerson,
		Currency:          currency,
		IsActive:          true,
	}
	if err := s.repo.CreateTour(ctx, tour); err != nil {
		return nil, err
	}
	return tour, nil
}

func (s *service) GetTour(ctx context.Context, id uuid.UUID) (*CustomTour, error) {
	return s.repo.GetTourByID(ctx, id)
}

func (s *service) ListTours(ctx context.Context) ([]CustomTour, error) {
	return s.repo.ListActiveTours(ctx)
}

// Register records interest; no spot is consumed until a provider approves.
func (s *service) Register(ctx context.Context, touristID uuid.UUID, req RegisterRequest) (*Registration, error) {
	tourID, err := uuid.Parse(req.CustomTourID)
	if err != nil {
		return nil, ErrTourNotFound
	}

	tour, err := s.repo.GetTourByID(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if !tour.IsActive || !tour.HasRemaining() {
		return nil, ErrNoSpotsRemaining
	}

	registration := &Registration{
		CustomTourID: tour.ID,
		TouristID:    touristID,
		Status:       RegistrationPending,
		Message:      req.Message,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	}
	if err := s.repo.CreateRegistration(ctx, registration); err != nil {
		return nil, err
	}
	return registration, nil
}

// Decide approves or rejects a pending registration. Approval consumes a
// spot through the conditional decrement; rejection touches no counter.
func (s *service) Decide(ctx context.Context, registrationID, decidedBy uuid.UUID, role string, approve bool) (*Registration, error) {
	registration, err := s.repo.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	tour, err := s.repo.GetTourByID(ctx, registration.CustomTourID)
	if err != nil {
		return nil, err
	}
	// Only the tour's own provider (or an admin) may decide; anyone else
	// approving would drain a counter they do not own.
	if role != "ADMIN" && tour.ProviderID != decidedBy {
		return nil, ErrNotTourOwner
	}

	if approve {
		if err := s.repo.ApproveWithDecrement(ctx, registrationID, decidedBy); err != nil {
			return nil, err
		}
	} else {
		if err := s.repo.UpdateStatus(ctx, registrationID, RegistrationPending, RegistrationRejected, decidedBy); err != nil {
			return nil, err
		}
	}

	decided, err := s.repo.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if approve && s.notifier != nil {
		s.notifier.RegistrationApproved(ctx, decided, tour)
	}
	return decided, nil
}

// CancelRegistration withdraws the traveler's own registration. Cancelling
// an approved registration restores the tour's spot.
func (s *service) CancelRegistration(ctx context.Context, registrationID, touristID uuid.UUID) (*Registration, error) {
	registration, err := s.repo.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if registration.TouristID != touristID {
		return nil, ErrRegistrationNotFound
	}

	switch registration.Status {
	case RegistrationPending:
		err = s.repo.UpdateStatus(ctx, registrationID, RegistrationPending, RegistrationCancelled, touristID)
	case RegistrationApproved:
		err = s.repo.ReleaseWithIncrement(ctx, registration, RegistrationCancelled, touristID)
		if err == nil {
			s.log.LogSpotsReleased(ctx, registration.CustomTourID.String(), 1)
		}
	default:
		err = ErrInvalidStatusChange
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	registration.Status = RegistrationCancelled
	registration.DecidedAt = &now
	return registration, nil
}

func (s *service) ListByTour(ctx context.Context, tourID uuid.UUID) ([]Registration, error) {
	return s.repo.ListByTour(ctx, tourID)
}

func (s *service) ListByTourist(ctx context.Context, touristID uuid.UUID) ([]Registration, error) {
	return s.repo.ListByTourist(ctx, touristID)
}
