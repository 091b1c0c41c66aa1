package segments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/airjourney/internal/catalog"
	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	calls   atomic.Int32
	mu      sync.Mutex
	records []catalog.RawFlight
	err     error
	block   chan struct{}
}

func (s *stubSource) Fetch(ctx context.Context) ([]catalog.RawFlight, error) {
	s.calls.Add(1)
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records, s.err
}

func (s *stubSource) set(records []catalog.RawFlight, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records, s.err = records, err
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, carrier, flightNumber string) (*domain.Transport, error) {
	args := m.Called(ctx, carrier, flightNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transport), args.Error(1)
}

type MockSharedStore struct {
	mock.Mock
}

func (m *MockSharedStore) GetSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *MockSharedStore) SetSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func price(v float64) *float64 {
	return &v
}

func raw(from, to string, p float64, carrier, number string) catalog.RawFlight {
	return catalog.RawFlight{DepartureStation: from, ArrivalStation: to, Price: price(p), FlightCarrier: carrier, FlightNumber: number}
}

type echoResolver struct{}

func (echoResolver) Resolve(_ context.Context, carrier, flightNumber string) (*domain.Transport, error) {
	return &domain.Transport{ID: 1, FlightCarrier: carrier, FlightNumber: flightNumber}, nil
}

func anyResolver() TransportResolver {
	return echoResolver{}
}

func newTestCache(source Source, resolver TransportResolver, clk *clock, opts ...Option) *Cache {
	opts = append([]Option{WithClock(clk.Now)}, opts...)
	return NewCache(source, resolver, 30*time.Minute, opts...)
}

func TestCache_GetSnapshot_BuildsSnapshot(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	source := &stubSource{records: []catalog.RawFlight{
		raw("MZL", "MDE", 200, "CO", "8001"),
		raw("MDE", "BCN", 500, "CO", "8004"),
		raw("MZL", "BOG", 100, "CO", "8001"),
	}}
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, "CO", "8001").Return(&domain.Transport{ID: 1, FlightCarrier: "CO", FlightNumber: "8001"}, nil).Once()
	resolver.On("Resolve", mock.Anything, "CO", "8004").Return(&domain.Transport{ID: 2, FlightCarrier: "CO", FlightNumber: "8004"}, nil).Once()

	cache := newTestCache(source, resolver, clk)

	snapshot, err := cache.GetSnapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.Len())
	assert.Equal(t, clk.Now(), snapshot.FetchedAt)
	assert.Equal(t, int64(2), snapshot.Flights()[1].Transport.ID)
	assert.Equal(t, []string{"MDE", "BOG"}, []string{snapshot.Outgoing("MZL")[0].Destination, snapshot.Outgoing("MZL")[1].Destination})
	// each pair is resolved once per refresh
	resolver.AssertExpectations(t)
}

func TestCache_FreshnessBoundary(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	source := &stubSource{records: []catalog.RawFlight{raw("A", "B", 100, "CO", "1")}}
	cache := newTestCache(source, anyResolver(), clk)
	ctx := context.Background()

	first, err := cache.GetSnapshot(ctx)
	require.NoError(t, err)

	clk.Advance(30*time.Minute - time.Nanosecond)
	reused, err := cache.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, first, reused)
	assert.Equal(t, int32(1), source.calls.Load())

	clk.Advance(time.Nanosecond)
	refreshed, err := cache.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, refreshed)
	assert.Equal(t, int32(2), source.calls.Load())
	assert.Equal(t, clk.Now(), refreshed.FetchedAt)
}

func TestCache_SourceFailureIsNotMaskedByStaleSnapshot(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	source := &stubSource{records: []catalog.RawFlight{raw("A", "B", 100, "CO", "1")}}
	cache := newTestCache(source, anyResolver(), clk)
	ctx := context.Background()

	first, err := cache.GetSnapshot(ctx)
	require.NoError(t, err)

	clk.Advance(31 * time.Minute)
	source.set(nil, fmt.Errorf("%w: connection refused", domain.ErrSourceUnavailable))

	snapshot, err := cache.GetSnapshot(ctx)
	assert.Nil(t, snapshot)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	// nothing new was published
	assert.Same(t, first, cache.Current())
}

func TestCache_FormatErrorPublishesNothing(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	source := &stubSource{err: &domain.CatalogFormatError{Index: 3, Field: "Price", Err: errors.New("missing")}}
	cache := newTestCache(source, anyResolver(), clk)

	snapshot, err := cache.GetSnapshot(context.Background())

	assert.Nil(t, snapshot)
	var formatErr *domain.CatalogFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, 3, formatErr.Index)
	assert.Nil(t, cache.Current())
}

func TestCache_MissingPriceFailsWholeRefresh(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	source := &stubSource{records: []catalog.RawFlight{
		raw("A", "B", 100, "CO", "1"),
		{DepartureStation: "B", ArrivalStation: "C", FlightCarrier: "CO", FlightNumber: "2"},
	}}
	cache := newTestCache(source, anyResolver(), clk)

	_, err := cache.GetSnapshot(context.Background())

	var formatErr *domain.CatalogFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, 1, formatErr.Index)
	assert.Nil(t, cache.Current())
}

func TestCache_TransportFailurePropagates(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	source := &stubSource{records: []catalog.RawFlight{raw("A", "B", 100, "CO", "1")}}
	storeErr := &domain.PersistenceError{Op: "insert transport", Err: errors.New("connection reset")}
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, "CO", "1").Return(nil, storeErr).Once()
	cache := newTestCache(source, resolver, clk)

	_, err := cache.GetSnapshot(context.Background())

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "insert transport", perr.Op)
	assert.Nil(t, cache.Current())
}

func TestCache_ConcurrentReadersShareOneFetch(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	source := &stubSource{
		records: []catalog.RawFlight{raw("A", "B", 100, "CO", "1")},
		block:   make(chan struct{}),
	}
	cache := newTestCache(source, anyResolver(), clk)

	const readers = 8
	results := make(chan *domain.Snapshot, readers)
	var started sync.WaitGroup
	started.Add(readers)
	for i := 0; i < readers; i++ {
		go func() {
			started.Done()
			s, err := cache.GetSnapshot(context.Background())
			assert.NoError(t, err)
			results <- s
		}()
	}
	started.Wait()
	require.Eventually(t, func() bool { return source.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(source.block)

	var first *domain.Snapshot
	for i := 0; i < readers; i++ {
		s := <-results
		if first == nil {
			first = s
		}
		assert.Same(t, first, s)
	}
	assert.LessOrEqual(t, source.calls.Load(), int32(2))
}

func TestCache_RefreshIgnoresAge(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	source := &stubSource{records: []catalog.RawFlight{raw("A", "B", 100, "CO", "1")}}
	cache := newTestCache(source, anyResolver(), clk)
	ctx := context.Background()

	_, err := cache.GetSnapshot(ctx)
	require.NoError(t, err)

	source.set([]catalog.RawFlight{raw("A", "B", 100, "CO", "1"), raw("B", "C", 10, "CO", "2")}, nil)
	forced, err := cache.Refresh(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, forced.Len())
	assert.Equal(t, int32(2), source.calls.Load())
	assert.Same(t, forced, cache.Current())
}

func TestCache_RefreshDuringLoadFetchesAgain(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	source := &stubSource{
		records: []catalog.RawFlight{raw("A", "B", 100, "CO", "1")},
		block:   make(chan struct{}),
	}
	cache := newTestCache(source, anyResolver(), clk)
	ctx := context.Background()

	loaded := make(chan error, 1)
	go func() {
		_, err := cache.GetSnapshot(ctx)
		loaded <- err
	}()
	require.Eventually(t, func() bool { return source.calls.Load() == 1 }, time.Second, time.Millisecond)

	refreshed := make(chan error, 1)
	go func() {
		_, err := cache.Refresh(ctx)
		refreshed <- err
	}()
	// the forced refresh starts its own fetch instead of waiting on the load
	require.Eventually(t, func() bool { return source.calls.Load() == 2 }, time.Second, time.Millisecond)

	close(source.block)
	require.NoError(t, <-loaded)
	require.NoError(t, <-refreshed)
}

func TestCache_AdoptsFreshSharedSnapshot(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	source := &stubSource{}
	shared := &MockSharedStore{}
	sharedSnapshot := domain.NewSnapshot([]domain.Flight{{Origin: "A", Destination: "B", Price: 1}}, clk.Now().Add(-10*time.Minute))
	shared.On("GetSnapshot", mock.Anything).Return(sharedSnapshot, nil).Once()

	cache := newTestCache(source, anyResolver(), clk, WithSharedStore(shared))

	snapshot, err := cache.GetSnapshot(context.Background())

	require.NoError(t, err)
	assert.Same(t, sharedSnapshot, snapshot)
	assert.Equal(t, int32(0), source.calls.Load())

	// adopted with its original fetch time: expires 20 minutes later
	clk.Advance(20 * time.Minute)
	shared.On("GetSnapshot", mock.Anything).Return(nil, nil).Once()
	shared.On("SetSnapshot", mock.Anything, mock.Anything).Return(nil).Once()
	source.set([]catalog.RawFlight{raw("A", "B", 100, "CO", "1")}, nil)

	_, err = cache.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), source.calls.Load())
	shared.AssertExpectations(t)
}

func TestCache_SharedTierErrorsFallBackToSource(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	source := &stubSource{records: []catalog.RawFlight{raw("A", "B", 100, "CO", "1")}}
	shared := &MockSharedStore{}
	shared.On("GetSnapshot", mock.Anything).Return(nil, errors.New("redis down")).Once()
	shared.On("SetSnapshot", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

	cache := newTestCache(source, anyResolver(), clk, WithSharedStore(shared))

	snapshot, err := cache.GetSnapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Len())
	assert.Equal(t, int32(1), source.calls.Load())
	shared.AssertExpectations(t)
}

func TestCache_StaleSharedSnapshotIgnored(t *testing.T) {
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	source := &stubSource{records: []catalog.RawFlight{raw("A", "B", 100, "CO", "1")}}
	shared := &MockSharedStore{}
	stale := domain.NewSnapshot(nil, clk.Now().Add(-30*time.Minute))
	shared.On("GetSnapshot", mock.Anything).Return(stale, nil).Once()
	shared.On("SetSnapshot", mock.Anything, mock.Anything).Return(nil).Once()

	cache := newTestCache(source, anyResolver(), clk, WithSharedStore(shared))

	snapshot, err := cache.GetSnapshot(context.Background())

	require.NoError(t, err)
	assert.NotSame(t, stale, snapshot)
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestNewCache_DefaultTTL(t *testing.T) {
	cache := NewCache(&stubSource{}, anyResolver(), 0)
	assert.Equal(t, DefaultTTL, cache.ttl)
}
