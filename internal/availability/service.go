package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/veldclinics/booking-platform/internal/bookings"
	"github.com/veldclinics/booking-platform/internal/catalog"
	"github.com/veldclinics/booking-platform/internal/interval"
	"github.com/veldclinics/booking-platform/internal/observability/metrics"
	"github.com/veldclinics/booking-platform/internal/schedule"
	"github.com/veldclinics/booking-platform/pkg/logging"
)

var availabilityTracer = otel.Tracer("clinic.internal.availability")

// ScheduleSource lists shift and exclusion rows from the schedule store.
type ScheduleSource interface {
	ListDefinitions(ctx context.Context, locationID uuid.UUID, staffID *uuid.UUID, window interval.Interval) ([]schedule.ShiftDefinition, error)
	ListBreaks(ctx context.Context, shiftIDs []uuid.UUID) ([]schedule.ShiftBreak, error)
	ListBlackouts(ctx context.Context, window interval.Interval) ([]schedule.BlackoutPeriod, error)
	ListSitewideBreaks(ctx context.Context, window interval.Interval) ([]schedule.SitewideBreak, error)
	ListApprovedTimeOff(ctx context.Context, window interval.Interval) ([]schedule.TimeOffRequest, error)
}

// BookingSource lists existing bookings as an exclusion source.
type BookingSource interface {
	ListForStaff(ctx context.Context, staffIDs []uuid.UUID, from, to time.Time) ([]bookings.Booking, error)
}

// CatalogSource resolves durations and staff capability checks.
type CatalogSource interface {
	Service(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
	AddOnMinutes(ctx context.Context, addOnIDs []uuid.UUID) (int, error)
	IsQualified(ctx context.Context, staffID, serviceID uuid.UUID) (bool, error)
	IsAssigned(ctx context.Context, staffID, locationID uuid.UUID) (bool, error)
}

// Config tunes the slot pipeline.
type Config struct {
	Step           time.Duration
	MinLeadTime    time.Duration
	Location       *time.Location
	HeatmapMaxDays int
	HeatmapWorkers int
	DayDeadline    time.Duration
}

// Service runs the availability pipeline: expand shifts, gather exclusions,
// generate slots, aggregate heatmaps. All reads go through the cache first.
type Service struct {
	schedules  ScheduleSource
	bookingSrc BookingSource
	catalog    CatalogSource
	expander   *schedule.Expander
	cache      Cache
	metrics    *metrics.AvailabilityMetrics
	logger     *logging.Logger
	cfg        Config
	now        func() time.Time
}

// NewService constructs an availability service. A nil clock defaults to
// time.Now; a nil cache disables memoization.
func NewService(schedules ScheduleSource, bookingSrc BookingSource, cat CatalogSource, cache Cache, m *metrics.AvailabilityMetrics, logger *logging.Logger, cfg Config, now func() time.Time) *Service {
	if schedules == nil || bookingSrc == nil || cat == nil {
		panic("availability: schedule, booking and catalog sources required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Step <= 0 {
		cfg.Step = 15 * time.Minute
	}
	if cfg.HeatmapMaxDays <= 0 {
		cfg.HeatmapMaxDays = 92
	}
	if cfg.HeatmapWorkers <= 0 {
		cfg.HeatmapWorkers = 4
	}
	return &Service{
		schedules:  schedules,
		bookingSrc: bookingSrc,
		catalog:    cat,
		expander:   schedule.NewExpander(logger),
		cache:      cache,
		metrics:    m,
		logger:     logger,
		cfg:        cfg,
		now:        now,
	}
}

// DaySlotsQuery asks for the bookable slots of one civil date.
type DaySlotsQuery struct {
	ServiceID  uuid.UUID
	LocationID uuid.UUID
	Date       time.Time
	StaffID    *uuid.UUID
	Twin       bool
	AddOnIDs   []uuid.UUID
}

// DaySlots returns the bookable slots for a (service, location, date[, staff])
// query, sorted by start time then staff id. Within the cache TTL a repeat
// query returns the stored result without touching the collaborator stores.
func (s *Service) DaySlots(ctx context.Context, q DaySlotsQuery) ([]Slot, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.day_slots")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.service_id", q.ServiceID.String()),
		attribute.String("clinic.location_id", q.LocationID.String()),
		attribute.String("clinic.date", q.Date.In(s.cfg.Location).Format(time.DateOnly)),
	)

	key := s.slotsCacheKey(q)
	if cached, ok := s.cacheGet(ctx, key); ok {
		var slots []Slot
		if err := json.Unmarshal(cached, &slots); err == nil {
			s.metrics.ObserveCache("slots", true)
			return slots, nil
		}
	}
	s.metrics.ObserveCache("slots", false)

	started := s.now()
	slots, err := s.computeDaySlots(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.metrics.ObserveCompute("slots", s.now().Sub(started).Seconds())

	if data, err := json.Marshal(slots); err == nil {
		s.cacheSet(ctx, key, data)
	}
	return slots, nil
}

func (s *Service) computeDaySlots(ctx context.Context, q DaySlotsQuery) ([]Slot, error) {
	svc, err := s.catalog.Service(ctx, q.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("service %s: %w", q.ServiceID, ErrNotFound)
		}
		return nil, fmt.Errorf("resolve service: %w: %w", ErrUpstreamUnavailable, err)
	}
	addOnMinutes, err := s.catalog.AddOnMinutes(ctx, q.AddOnIDs)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("resolve add-ons: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("resolve add-ons: %w: %w", ErrUpstreamUnavailable, err)
	}
	duration := catalog.VisitDuration(svc, addOnMinutes, q.Twin, s.cfg.Step)

	day := q.Date.In(s.cfg.Location)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.cfg.Location)
	window := interval.Interval{Start: dayStart, End: dayStart.AddDate(0, 0, 1)}

	defs, err := s.schedules.ListDefinitions(ctx, q.LocationID, q.StaffID, window)
	if err != nil {
		return nil, fmt.Errorf("list shift definitions: %w: %w", ErrUpstreamUnavailable, err)
	}

	instances, err := s.qualifiedInstances(ctx, s.expander.Expand(window, defs), q)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return []Slot{}, nil
	}

	shiftIDs := make([]uuid.UUID, 0, len(instances))
	staffSeen := make(map[uuid.UUID]bool)
	var staffIDs []uuid.UUID
	for _, inst := range instances {
		shiftIDs = append(shiftIDs, inst.ShiftDefinitionID)
		if !staffSeen[inst.StaffID] {
			staffSeen[inst.StaffID] = true
			staffIDs = append(staffIDs, inst.StaffID)
		}
	}

	input, err := s.fetchExclusionRows(ctx, window, shiftIDs, staffIDs)
	if err != nil {
		return nil, err
	}

	params := GenerateParams{
		Duration:    duration,
		Step:        s.cfg.Step,
		Now:         s.now(),
		MinLeadTime: s.cfg.MinLeadTime,
	}
	slots := []Slot{}
	for _, inst := range instances {
		excl := Exclusions(inst, input)
		slots = append(slots, GenerateSlots(inst, excl, params)...)
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].StartTime.Equal(slots[j].StartTime) {
			return slots[i].StartTime.Before(slots[j].StartTime)
		}
		return slots[i].StaffID.String() < slots[j].StaffID.String()
	})
	return slots, nil
}

// qualifiedInstances drops instances that cannot serve the requested service:
// service not offered on the shift, staff filter mismatch, or staff not
// qualified-and-assigned. Capability checks run once per staff member.
func (s *Service) qualifiedInstances(ctx context.Context, instances []schedule.ShiftInstance, q DaySlotsQuery) ([]schedule.ShiftInstance, error) {
	checked := make(map[uuid.UUID]bool)

	var kept []schedule.ShiftInstance
	for _, inst := range instances {
		if q.StaffID != nil && inst.StaffID != *q.StaffID {
			continue
		}
		if !inst.OffersService(q.ServiceID) {
			continue
		}
		allowed, seen := checked[inst.StaffID]
		if !seen {
			qualified, err := s.catalog.IsQualified(ctx, inst.StaffID, q.ServiceID)
			if err != nil {
				return nil, fmt.Errorf("qualification check: %w: %w", ErrUpstreamUnavailable, err)
			}
			assigned := false
			if qualified {
				assigned, err = s.catalog.IsAssigned(ctx, inst.StaffID, q.LocationID)
				if err != nil {
					return nil, fmt.Errorf("assignment check: %w: %w", ErrUpstreamUnavailable, err)
				}
			}
			allowed = qualified && assigned
			checked[inst.StaffID] = allowed
			if !allowed {
				s.logger.Debug("availability: pruning unqualified staff",
					"staff_id", inst.StaffID,
					"service_id", q.ServiceID,
					"location_id", q.LocationID,
				)
			}
		}
		if allowed {
			kept = append(kept, inst)
		}
	}
	return kept, nil
}

func (s *Service) fetchExclusionRows(ctx context.Context, window interval.Interval, shiftIDs, staffIDs []uuid.UUID) (ExclusionInput, error) {
	var input ExclusionInput
	var err error

	if input.ShiftBreaks, err = s.schedules.ListBreaks(ctx, shiftIDs); err != nil {
		return input, fmt.Errorf("list breaks: %w: %w", ErrUpstreamUnavailable, err)
	}
	if input.Blackouts, err = s.schedules.ListBlackouts(ctx, window); err != nil {
		return input, fmt.Errorf("list blackouts: %w: %w", ErrUpstreamUnavailable, err)
	}
	if input.SitewideBreaks, err = s.schedules.ListSitewideBreaks(ctx, window); err != nil {
		return input, fmt.Errorf("list sitewide breaks: %w: %w", ErrUpstreamUnavailable, err)
	}
	if input.TimeOff, err = s.schedules.ListApprovedTimeOff(ctx, window); err != nil {
		return input, fmt.Errorf("list time off: %w: %w", ErrUpstreamUnavailable, err)
	}
	if input.Bookings, err = s.bookingSrc.ListForStaff(ctx, staffIDs, window.Start, window.End); err != nil {
		return input, fmt.Errorf("list bookings: %w: %w", ErrUpstreamUnavailable, err)
	}
	return input, nil
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, key)
}

func (s *Service) cacheSet(ctx context.Context, key string, value []byte) {
	if s.cache != nil {
		s.cache.Set(ctx, key, value)
	}
}

func (s *Service) slotsCacheKey(q DaySlotsQuery) string {
	staff := "-"
	if q.StaffID != nil {
		staff = q.StaffID.String()
	}
	addOns := "-"
	if len(q.AddOnIDs) > 0 {
		ids := make([]string, len(q.AddOnIDs))
		for i, id := range q.AddOnIDs {
			ids[i] = id.String()
		}
		sort.Strings(ids)
		addOns = strings.Join(ids, "+")
	}
	return fmt.Sprintf("slots|%s|%s|%s|%s|%t|%s",
		q.ServiceID, q.LocationID,
		q.Date.In(s.cfg.Location).Format(time.DateOnly),
		staff, q.Twin, addOns)
}
