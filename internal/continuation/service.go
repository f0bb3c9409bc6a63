package continuation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/veldclinics/booking-platform/internal/bookings"
	"github.com/veldclinics/booking-platform/internal/catalog"
	"github.com/veldclinics/booking-platform/internal/observability/metrics"
	"github.com/veldclinics/booking-platform/pkg/logging"
)

var continuationTracer = otel.Tracer("clinic.internal.continuation")

// TokenStore persists and consumes tokens.
type TokenStore interface {
	Create(ctx context.Context, t *Token) error
	GetByToken(ctx context.Context, token string) (*Token, error)
	Consume(ctx context.Context, token string, at time.Time) (bool, error)
}

// RepeatTypeSource resolves the repeat type driving a follow-up visit.
type RepeatTypeSource interface {
	RepeatType(ctx context.Context, id uuid.UUID) (*catalog.ServiceRepeatType, error)
}

// BookingSource loads the origin booking of a chain.
type BookingSource interface {
	Get(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
}

// Service runs the token lifecycle: issue on repeat-eligible booking
// confirmation, redeem to re-enter the booking flow, advance the chain on a
// successful follow-up.
type Service struct {
	store      TokenStore
	catalog    RepeatTypeSource
	bookingSrc BookingSource
	metrics    *metrics.AvailabilityMetrics
	logger     *logging.Logger
	tokenTTL   time.Duration
	now        func() time.Time
}

// NewService constructs a continuation service. A nil clock defaults to
// time.Now; a non-positive TTL defaults to 30 days.
func NewService(store TokenStore, cat RepeatTypeSource, bookingSrc BookingSource, m *metrics.AvailabilityMetrics, logger *logging.Logger, tokenTTL time.Duration, now func() time.Time) *Service {
	if store == nil || cat == nil || bookingSrc == nil {
		panic("continuation: token store, catalog and booking sources required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = time.Now
	}
	if tokenTTL <= 0 {
		tokenTTL = 30 * 24 * time.Hour
	}
	return &Service{
		store:      store,
		catalog:    cat,
		bookingSrc: bookingSrc,
		metrics:    m,
		logger:     logger,
		tokenTTL:   tokenTTL,
		now:        now,
	}
}

// Redemption is the successful result of redeeming a token: the repeat type
// fixing the follow-up's duration and price, and the booking that anchors the
// chain.
type Redemption struct {
	Token         *Token                     `json:"token"`
	RepeatType    *catalog.ServiceRepeatType `json:"repeat_type"`
	OriginBooking *bookings.Booking          `json:"origin_booking"`
}

// Issue creates the first token of a chain when a booking is confirmed under
// a repeat agreement. remainingVisits counts the follow-ups still owed after
// the origin booking; with none owed, no token is issued and Issue returns
// nil.
func (s *Service) Issue(ctx context.Context, originBookingID, repeatTypeID uuid.UUID, remainingVisits int) (*Token, error) {
	ctx, span := continuationTracer.Start(ctx, "continuation.issue")
	defer span.End()

	if remainingVisits <= 0 {
		return nil, nil
	}
	return s.issue(ctx, uuid.New(), originBookingID, repeatTypeID, remainingVisits)
}

// Redeem consumes the token and returns the repeat type and origin booking
// that drive the follow-up booking flow. Consumption is atomic: of any number
// of concurrent redemptions exactly one succeeds, the rest observe
// ErrTokenConsumed.
func (s *Service) Redeem(ctx context.Context, token string) (*Redemption, error) {
	ctx, span := continuationTracer.Start(ctx, "continuation.redeem")
	defer span.End()

	t, err := s.store.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			s.metrics.ObserveRedemption("not_found")
			return nil, ErrTokenNotFound
		}
		s.metrics.ObserveRedemption("error")
		return nil, err
	}
	span.SetAttributes(attribute.String("clinic.chain_id", t.ChainID.String()))

	if t.Consumed {
		s.metrics.ObserveRedemption("consumed")
		return nil, ErrTokenConsumed
	}
	if t.Expired(s.now()) {
		s.metrics.ObserveRedemption("expired")
		return nil, ErrTokenExpired
	}

	consumedAt := s.now().UTC()
	ok, err := s.store.Consume(ctx, token, consumedAt)
	if err != nil {
		s.metrics.ObserveRedemption("error")
		return nil, err
	}
	if !ok {
		// Lost the race against a concurrent redemption.
		s.metrics.ObserveRedemption("consumed")
		return nil, ErrTokenConsumed
	}
	t.Consumed = true
	t.ConsumedAt = &consumedAt

	rt, err := s.catalog.RepeatType(ctx, t.RepeatTypeID)
	if err != nil {
		s.metrics.ObserveRedemption("error")
		return nil, fmt.Errorf("continuation: resolve repeat type: %w", err)
	}
	origin, err := s.bookingSrc.Get(ctx, t.OriginBookingID)
	if err != nil {
		s.metrics.ObserveRedemption("error")
		return nil, fmt.Errorf("continuation: load origin booking: %w", err)
	}

	s.metrics.ObserveRedemption("success")
	s.logger.Info("continuation: token redeemed",
		"chain_id", t.ChainID,
		"remaining_visits", t.RemainingVisits,
	)
	return &Redemption{Token: t, RepeatType: rt, OriginBooking: origin}, nil
}

// Advance progresses the chain after the follow-up booking succeeded. The
// redeemed token's remaining count drops by one; while visits remain a fresh
// token anchored on the new booking is issued, otherwise the chain closes and
// Advance returns nil.
func (s *Service) Advance(ctx context.Context, redeemed *Token, followUpBookingID uuid.UUID) (*Token, error) {
	ctx, span := continuationTracer.Start(ctx, "continuation.advance")
	defer span.End()

	remaining := redeemed.RemainingVisits - 1
	if remaining <= 0 {
		s.logger.Info("continuation: chain closed", "chain_id", redeemed.ChainID)
		return nil, nil
	}
	return s.issue(ctx, redeemed.ChainID, followUpBookingID, redeemed.RepeatTypeID, remaining)
}

func (s *Service) issue(ctx context.Context, chainID, originBookingID, repeatTypeID uuid.UUID, remainingVisits int) (*Token, error) {
	opaque, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t := &Token{
		ID:              uuid.New(),
		Token:           opaque,
		ChainID:         chainID,
		OriginBookingID: originBookingID,
		RepeatTypeID:    repeatTypeID,
		RemainingVisits: remainingVisits,
		ExpiresAt:       now.Add(s.tokenTTL),
		CreatedAt:       now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("continuation: token issued",
		"chain_id", t.ChainID,
		"remaining_visits", t.RemainingVisits,
		"expires_at", t.ExpiresAt,
	)
	return t, nil
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("continuation: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
