package availability

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*Availability
	listCalls int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{records: make(map[uuid.UUID]*Availability)}
}

func (r *fakeRepository) Create(ctx context.Context, a *Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.AvailableSpots = a.TotalCapacity - a.ReservedSpots
	for _, existing := range r.records {
		if existing.TourID == a.TourID && existing.Date.Equal(a.Date) {
			return ErrDuplicateDate
		}
	}
	stored := *a
	r.records[a.ID] = &stored
	return nil
}

func (r *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeRepository) List(ctx context.Context, query ListQuery) ([]Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	var out []Availability
	for _, a := range r.records {
		if query.OnlyOpen && (!a.IsAvailable || !a.Type.Reservable()) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *fakeRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Availability, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeRepository) Reserve(ctx context.Context, id uuid.UUID, spots int, slotIndex *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	if !a.IsAvailable || !a.Type.Reservable() {
		return ErrNotAvailable
	}
	if slotIndex != nil {
		slot := a.Slot(*slotIndex)
		if slot == nil || !slot.HasRoom(spots) {
			return ErrSlotUnavailable
		}
	}
	if a.ReservedSpots+spots > a.TotalCapacity {
		return ErrInsufficientCapacity
	}
	if slotIndex != nil {
		a.TimeSlots[*slotIndex].CurrentBookings += spots
	}
	a.ReservedSpots += spots
	a.AvailableSpots = a.TotalCapacity - a.ReservedSpots
	return nil
}

func (r *fakeRepository) Release(ctx context.Context, id uuid.UUID, spots int, slotIndex *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	a.ReservedSpots -= spots
	if a.ReservedSpots < 0 {
		a.ReservedSpots = 0
	}
	a.AvailableSpots = a.TotalCapacity - a.ReservedSpots
	return nil
}

// memoryCache is an in-process stand-in for the Redis cache service.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

var errMiss = errors.New("miss")

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	data, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return errMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items[key] = data
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) bool {
	c.mu.Lock()
	_, ok := c.items[key]
	c.mu.Unlock()
	return ok
}

func (c *memoryCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}
	value, err := fetcher()
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.Get(ctx, key, dest)
}

func (c *memoryCache) Ping(ctx context.Context) error { return nil }

func testCreateRequest(capacity int, price float64) CreateAvailabilityRequest {
	return CreateAvailabilityRequest{
		TourID:             uuid.New().String(),
		Date:               time.Now().AddDate(0, 0, 7),
		TotalCapacity:      capacity,
		BasePricePerPerson: price,
	}
}

func TestServiceCreate_Defaults(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, 0)

	providerID := uuid.New()
	a, err := svc.Create(context.Background(), providerID, providerID, testCreateRequest(10, 50))
	require.NoError(t, err)

	assert.Equal(t, TypeRegular, a.Type)
	assert.True(t, a.IsAvailable)
	assert.Equal(t, "USD", a.Currency)
	assert.Equal(t, 1, a.MinimumParticipants)
	assert.Equal(t, providerID, a.ProviderID)
}

func TestServiceCreate_BlockedTypeIsNotReservable(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, 0)

	req := testCreateRequest(10, 50)
	req.Type = string(TypeBlocked)

	providerID := uuid.New()
	a, err := svc.Create(context.Background(), providerID, providerID, req)
	require.NoError(t, err)

	assert.False(t, a.IsAvailable)
	assert.False(t, a.IsBookable(1))
}

func TestServiceQuote(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, 0)

	pct := 10.0
	req := testCreateRequest(10, 100)
	req.PricingRules = []PricingRule{
		{Type: RuleEarlyBird, DiscountPercentage: &pct},
	}

	providerID := uuid.New()
	a, err := svc.Create(context.Background(), providerID, providerID, req)
	require.NoError(t, err)

	quote, err := svc.Quote(context.Background(), a.ID, 2, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 180.0, quote.TotalAmount)
	assert.Equal(t, "USD", quote.Currency)
	require.Len(t, quote.Discounts, 1)
}

func TestServiceQuote_ClosedAvailability(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, 0)

	req := testCreateRequest(10, 100)
	req.Type = string(TypeMaintenance)

	providerID := uuid.New()
	a, err := svc.Create(context.Background(), providerID, providerID, req)
	require.NoError(t, err)

	_, err = svc.Quote(context.Background(), a.ID, 2, time.Now())
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestServiceReserve_CapacityInvariant(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, 0)

	providerID := uuid.New()
	a, err := svc.Create(context.Background(), providerID, providerID, testCreateRequest(5, 50))
	require.NoError(t, err)

	require.NoError(t, svc.Reserve(context.Background(), a.ID, 3, nil))

	err = svc.Reserve(context.Background(), a.ID, 3, nil)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)

	current, err := svc.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, current.ReservedSpots)
	assert.Equal(t, current.TotalCapacity-current.ReservedSpots, current.AvailableSpots)
}

func TestServiceRelease_ClampsAtZero(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, 0)

	providerID := uuid.New()
	a, err := svc.Create(context.Background(), providerID, providerID, testCreateRequest(5, 50))
	require.NoError(t, err)

	require.NoError(t, svc.Reserve(context.Background(), a.ID, 2, nil))
	require.NoError(t, svc.Release(context.Background(), a.ID, 2, nil))

	// A retried compensating release is a no-op, not an error.
	require.NoError(t, svc.Release(context.Background(), a.ID, 2, nil))

	current, err := svc.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, current.ReservedSpots)
	assert.Equal(t, 5, current.AvailableSpots)
}

func TestServiceListBookable_CachesAndInvalidates(t *testing.T) {
	repo := newFakeRepository()
	cacheSvc := newMemoryCache()
	svc := NewService(repo, cacheSvc, time.Minute)

	providerID := uuid.New()
	a, err := svc.Create(context.Background(), providerID, providerID, testCreateRequest(10, 50))
	require.NoError(t, err)

	query := AvailabilityListQuery{}

	first, err := svc.ListBookable(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = svc.ListBookable(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls, "second list must come from cache")

	// Any capacity change drops the cached listings.
	require.NoError(t, svc.Reserve(context.Background(), a.ID, 2, nil))

	refreshed, err := svc.ListBookable(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls, "reserve must invalidate the listing cache")
	require.Len(t, refreshed, 1)
	assert.Equal(t, 8, refreshed[0].AvailableSpots)
}

func TestServiceListBookable_NilCacheHitsRepo(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, 0)

	providerID := uuid.New()
	_, err := svc.Create(context.Background(), providerID, providerID, testCreateRequest(10, 50))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.ListBookable(context.Background(), AvailabilityListQuery{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, repo.listCalls)
}
