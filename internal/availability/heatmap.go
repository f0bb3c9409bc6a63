package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// HeatmapQuery asks for per-day slot counts across an inclusive date range.
type HeatmapQuery struct {
	ServiceID  uuid.UUID
	LocationID uuid.UUID
	Start      time.Time
	End        time.Time
	StaffID    *uuid.UUID
}

// HeatmapDay is one day's available-slot count. A day that failed to compute
// carries an Error and counts zero; other days are unaffected.
type HeatmapDay struct {
	Date           string `json:"date"`
	AvailableSlots int    `json:"available_slots"`
	Error          string `json:"error,omitempty"`
}

// Heatmap counts available slots for every date in [Start, End]. Days are
// independent: they compute in parallel, each under its own deadline, and a
// failure on one day degrades only that day.
func (s *Service) Heatmap(ctx context.Context, q HeatmapQuery) ([]HeatmapDay, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.heatmap")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.service_id", q.ServiceID.String()),
		attribute.String("clinic.location_id", q.LocationID.String()),
	)

	start := s.civilDate(q.Start)
	end := s.civilDate(q.End)
	if end.Before(start) {
		return nil, fmt.Errorf("heatmap end before start: %w", ErrInvalidRange)
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > s.cfg.HeatmapMaxDays {
		return nil, fmt.Errorf("heatmap range of %d days exceeds maximum %d: %w", days, s.cfg.HeatmapMaxDays, ErrInvalidRange)
	}

	key := s.heatmapCacheKey(q, start, end)
	if cached, ok := s.cacheGet(ctx, key); ok {
		var result []HeatmapDay
		if err := json.Unmarshal(cached, &result); err == nil {
			s.metrics.ObserveCache("heatmap", true)
			return result, nil
		}
	}
	s.metrics.ObserveCache("heatmap", false)

	computeStarted := s.now()
	result := make([]HeatmapDay, days)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.HeatmapWorkers)
	for i := 0; i < days; i++ {
		i := i
		date := start.AddDate(0, 0, i)
		g.Go(func() error {
			dayCtx := gctx
			if s.cfg.DayDeadline > 0 {
				var cancel context.CancelFunc
				dayCtx, cancel = context.WithTimeout(gctx, s.cfg.DayDeadline)
				defer cancel()
			}

			entry := HeatmapDay{Date: date.Format(time.DateOnly)}
			slots, err := s.DaySlots(dayCtx, DaySlotsQuery{
				ServiceID:  q.ServiceID,
				LocationID: q.LocationID,
				Date:       date,
				StaffID:    q.StaffID,
			})
			if err != nil {
				// Partial success: the failed day is recorded, not fatal.
				s.metrics.ObserveHeatmapDayError()
				s.logger.Warn("availability: heatmap day failed",
					"date", entry.Date,
					"service_id", q.ServiceID,
					"error", err,
				)
				entry.Error = "unavailable"
			} else {
				entry.AvailableSlots = len(slots)
			}
			result[i] = entry
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes completion.
	_ = g.Wait()
	s.metrics.ObserveCompute("heatmap", s.now().Sub(computeStarted).Seconds())

	if data, err := json.Marshal(result); err == nil {
		s.cacheSet(ctx, key, data)
	}
	return result, nil
}

func (s *Service) civilDate(t time.Time) time.Time {
	local := t.In(s.cfg.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.cfg.Location)
}

func (s *Service) heatmapCacheKey(q HeatmapQuery, start, end time.Time) string {
	staff := "-"
	if q.StaffID != nil {
		staff = q.StaffID.String()
	}
	return fmt.Sprintf("heatmap|%s|%s|%s|%s|%s",
		q.ServiceID, q.LocationID,
		start.Format(time.DateOnly), end.Format(time.DateOnly), staff)
}
