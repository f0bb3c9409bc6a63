package continuation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldclinics/booking-platform/internal/bookings"
	"github.com/veldclinics/booking-platform/internal/catalog"
	"github.com/veldclinics/booking-platform/pkg/logging"
)

// fakeTokenStore keeps tokens in memory with the same consume-once semantics
// as the conditional UPDATE.
type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*Token
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]*Token{}}
}

func (f *fakeTokenStore) Create(_ context.Context, t *Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tokens[t.Token] = &cp
	return nil
}

func (f *fakeTokenStore) GetByToken(_ context.Context, token string) (*Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokenStore) Consume(_ context.Context, token string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok || t.Consumed {
		return false, nil
	}
	t.Consumed = true
	t.ConsumedAt = &at
	return true, nil
}

type fakeRepeatTypes struct {
	types map[uuid.UUID]*catalog.ServiceRepeatType
}

func (f *fakeRepeatTypes) RepeatType(_ context.Context, id uuid.UUID) (*catalog.ServiceRepeatType, error) {
	rt, ok := f.types[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return rt, nil
}

type fakeBookings struct {
	rows map[uuid.UUID]*bookings.Booking
}

func (f *fakeBookings) Get(_ context.Context, id uuid.UUID) (*bookings.Booking, error) {
	b, ok := f.rows[id]
	if !ok {
		return nil, bookings.ErrNotFound
	}
	return b, nil
}

type continuationFixture struct {
	store    *fakeTokenStore
	svc      *Service
	now      time.Time
	origin   uuid.UUID
	repeatID uuid.UUID
}

func newContinuationFixture(t *testing.T) *continuationFixture {
	t.Helper()
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	origin := uuid.New()
	repeatID := uuid.New()

	store := newFakeTokenStore()
	cat := &fakeRepeatTypes{types: map[uuid.UUID]*catalog.ServiceRepeatType{
		repeatID: {ID: repeatID, ServiceID: uuid.New(), Label: "follow-up scan", DurationMinutes: 20, PriceEurCents: 4500, Active: true},
	}}
	src := &fakeBookings{rows: map[uuid.UUID]*bookings.Booking{
		origin: {ID: origin, StaffID: uuid.New(), Status: bookings.StatusConfirmed},
	}}

	svc := NewService(store, cat, src, nil, logging.New("error"), 30*24*time.Hour, func() time.Time { return now })
	return &continuationFixture{store: store, svc: svc, now: now, origin: origin, repeatID: repeatID}
}

func TestIssueAndRedeem(t *testing.T) {
	fx := newContinuationFixture(t)
	ctx := context.Background()

	tok, err := fx.svc.Issue(ctx, fx.origin, fx.repeatID, 2)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Len(t, tok.Token, 64)
	assert.Equal(t, 2, tok.RemainingVisits)
	assert.Equal(t, fx.now.Add(30*24*time.Hour), tok.ExpiresAt)

	red, err := fx.svc.Redeem(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "follow-up scan", red.RepeatType.Label)
	assert.Equal(t, fx.origin, red.OriginBooking.ID)
	assert.True(t, red.Token.Consumed)
}

func TestIssueNothingOwed(t *testing.T) {
	fx := newContinuationFixture(t)

	tok, err := fx.svc.Issue(context.Background(), fx.origin, fx.repeatID, 0)
	require.NoError(t, err)
	assert.Nil(t, tok, "no token when no follow-ups are owed")
}

func TestRedeemUnknownToken(t *testing.T) {
	fx := newContinuationFixture(t)

	_, err := fx.svc.Redeem(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRedeemExpiredToken(t *testing.T) {
	fx := newContinuationFixture(t)
	ctx := context.Background()

	tok, err := fx.svc.Issue(ctx, fx.origin, fx.repeatID, 1)
	require.NoError(t, err)

	// Never consumed, but past its expiry.
	fx.store.tokens[tok.Token].ExpiresAt = fx.now.Add(-time.Minute)

	_, err = fx.svc.Redeem(ctx, tok.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRedeemTwiceSequential(t *testing.T) {
	fx := newContinuationFixture(t)
	ctx := context.Background()

	tok, err := fx.svc.Issue(ctx, fx.origin, fx.repeatID, 1)
	require.NoError(t, err)

	_, err = fx.svc.Redeem(ctx, tok.Token)
	require.NoError(t, err)

	_, err = fx.svc.Redeem(ctx, tok.Token)
	assert.ErrorIs(t, err, ErrTokenConsumed)
}

func TestRedeemConcurrentSingleWinner(t *testing.T) {
	fx := newContinuationFixture(t)
	ctx := context.Background()

	tok, err := fx.svc.Issue(ctx, fx.origin, fx.repeatID, 1)
	require.NoError(t, err)

	const racers = 8
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.Redeem(ctx, tok.Token)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, consumed := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrTokenConsumed):
			consumed++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one redemption may win")
	assert.Equal(t, racers-1, consumed)
}

func TestAdvanceReissuesWhileVisitsRemain(t *testing.T) {
	fx := newContinuationFixture(t)
	ctx := context.Background()

	tok, err := fx.svc.Issue(ctx, fx.origin, fx.repeatID, 3)
	require.NoError(t, err)

	red, err := fx.svc.Redeem(ctx, tok.Token)
	require.NoError(t, err)

	followUp := uuid.New()
	next, err := fx.svc.Advance(ctx, red.Token, followUp)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 2, next.RemainingVisits)
	assert.Equal(t, tok.ChainID, next.ChainID, "reissued token stays on the chain")
	assert.Equal(t, followUp, next.OriginBookingID, "next token anchors on the follow-up booking")
	assert.NotEqual(t, tok.Token, next.Token)
}

func TestAdvanceClosesChainOnLastVisit(t *testing.T) {
	fx := newContinuationFixture(t)
	ctx := context.Background()

	tok, err := fx.svc.Issue(ctx, fx.origin, fx.repeatID, 1)
	require.NoError(t, err)

	red, err := fx.svc.Redeem(ctx, tok.Token)
	require.NoError(t, err)

	next, err := fx.svc.Advance(ctx, red.Token, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, next, "last visit closes the chain")
}

func TestChainWalksToCompletion(t *testing.T) {
	fx := newContinuationFixture(t)
	ctx := context.Background()

	tok, err := fx.svc.Issue(ctx, fx.origin, fx.repeatID, 3)
	require.NoError(t, err)

	visits := 0
	for tok != nil {
		red, err := fx.svc.Redeem(ctx, tok.Token)
		require.NoError(t, err)
		visits++

		booked := uuid.New()
		fx.svc.bookingSrc.(*fakeBookings).rows[booked] = &bookings.Booking{ID: booked, Status: bookings.StatusConfirmed}
		tok, err = fx.svc.Advance(ctx, red.Token, booked)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, visits)
}
