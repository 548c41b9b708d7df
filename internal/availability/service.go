package availability

import (
	"context"
	"fmt"
	"time"

	"tourly/internal/shared/constants"
	"tourly/pkg/cache"

	"github.com/google/uuid"
)

// Service interface defines the contract for availability business logic
type Service interface {
	Create(ctx context.Context, providerID, createdBy uuid.UUID, req CreateAvailabilityRequest) (*Availability, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Availability, error)
	ListBookable(ctx context.Context, query AvailabilityListQuery) ([]AvailabilitySummary, error)
	Quote(ctx context.Context, id uuid.UUID, participants int, at time.Time) (*QuoteResponse, error)

	Reserve(ctx context.Context, id uuid.UUID, spots int, slotIndex *int) error
	Release(ctx context.Context, id uuid.UUID, spots int, slotIndex *int) error

	// InvalidateListings is exposed for callers that change capacity through
	// their own transactions rather than Reserve/Release.
	InvalidateListings(ctx context.Context)
}

type service struct {
	repo     Repository
	cache    cache.Service
	cacheTTL time.Duration
}

// NewService creates a new availability service. cacheSvc may be nil, in
// which case listings always hit the database.
func NewService(repo Repository, cacheSvc cache.Service, cacheTTL time.Duration) Service {
	return &service{
		repo:     repo,
		cache:    cacheSvc,
		cacheTTL: cacheTTL,
	}
}

func (s *service) Create(ctx context.Context, providerID, createdBy uuid.UUID, req CreateAvailabilityRequest) (*Availability, error) {
	tourID, err := uuid.Parse(req.TourID)
	if err != nil {
		return nil, fmt.Errorf("invalid tour id: %w", err)
	}

	availabilityType := TypeRegular
	if req.Type != "" {
		availabilityType = AvailabilityType(req.Type)
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	minParticipants := req.MinimumParticipants
	if minParticipants < 1 {
		minParticipants = 1
	}

	slots := make([]TimeSlot, 0, len(req.TimeSlots))
	for _, ts := range req.TimeSlots {
		slots = append(slots, TimeSlot{
			StartTime:      ts.StartTime,
			EndTime:        ts.EndTime,
			MaxCapacity:    ts.MaxCapacity,
			PricePerPerson: ts.PricePerPerson,
			IsAvailable:    true,
			Notes:          ts.Notes,
		})
	}

	a := &Availability{
		TourID:              tourID,
		ProviderID:          providerID,
		Date:                req.Date,
		IsAvailable:         availabilityType.Reservable(),
		Type:                availabilityType,
		TotalCapacity:       req.TotalCapacity,
		TimeSlots:           slots,
		BasePricePerPerson:  req.BasePricePerPerson,
		Currency:            currency,
		PricingRules:        req.PricingRules,
		MinimumParticipants: minParticipants,
		MaximumParticipants: req.MaximumParticipants,
		TourName:            req.TourName,
		CreatedBy:           &createdBy,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.invalidateListings(ctx, a.TourID)
	return a, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Availability, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListBookable(ctx context.Context, query AvailabilityListQuery) ([]AvailabilitySummary, error) {
	fetch := func() ([]AvailabilitySummary, error) {
		list, err := s.repo.List(ctx, ListQuery{
			TourID:    query.TourID,
			StartDate: query.StartDate,
			EndDate:   query.EndDate,
			OnlyOpen:  true,
		})
		if err != nil {
			return nil, err
		}
		summaries := make([]AvailabilitySummary, 0, len(list))
		for i := range list {
			summaries = append(summaries, list[i].ToSummary())
		}
		return summaries, nil
	}

	if s.cache == nil {
		return fetch()
	}

	key := listingCacheKey(query)
	var summaries []AvailabilitySummary
	err := s.cache.GetOrSet(ctx, key, s.cacheTTL, func() (interface{}, error) {
		return fetch()
	}, &summaries)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *service) Quote(ctx context.Context, id uuid.UUID, participants int, at time.Time) (*QuoteResponse, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsAvailable || !a.Type.Reservable() {
		return nil, ErrNotAvailable
	}

	total, discounts := Quote(a.BasePricePerPerson, participants, at, a.PricingRules)

	return &QuoteResponse{
		AvailabilityID: a.ID.String(),
		Participants:   participants,
		PricePerPerson: a.BasePricePerPerson,
		TotalAmount:    total,
		Currency:       a.Currency,
		Discounts:      discounts,
		QuotedAt:       at,
	}, nil
}

func (s *service) Reserve(ctx context.Context, id uuid.UUID, spots int, slotIndex *int) error {
	if err := s.repo.Reserve(ctx, id, spots, slotIndex); err != nil {
		return err
	}
	s.invalidateListings(ctx, id)
	return nil
}

func (s *service) Release(ctx context.Context, id uuid.UUID, spots int, slotIndex *int) error {
	if err := s.repo.Release(ctx, id, spots, slotIndex); err != nil {
		return err
	}
	s.invalidateListings(ctx, id)
	return nil
}

func (s *service) InvalidateListings(ctx context.Context) {
	s.invalidateListings(ctx, uuid.Nil)
}

// invalidateListings drops cached listings after any capacity change. Stale
// entries would only mislead the read path; the reserve path never consults
// the cache.
func (s *service) invalidateListings(ctx context.Context, _ uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.DeletePattern(ctx, constants.PATTERN_INVALIDATE_AVAILABILITY_LIST)
}

func listingCacheKey(q AvailabilityListQuery) string {
	return constants.BuildAvailabilityListKey(q.TourID, q.StartDate, q.EndDate)
}
