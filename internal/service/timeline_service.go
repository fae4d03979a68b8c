package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pps-admin-api/internal/models"
	appErrors "github.com/noah-isme/pps-admin-api/pkg/errors"
)

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// TimelineService groups a year's launches into calendar-month buckets with
// same-prefix variants aggregated under one display group.
type TimelineService struct {
	launches launchLister
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewTimelineService constructs a TimelineService.
func NewTimelineService(launches launchLister, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *TimelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimelineService{launches: launches, cache: cache, metrics: metrics, logger: logger}
}

// Build returns the ordered month buckets for the year. The boolean
// indicates cache utilisation.
func (s *TimelineService) Build(ctx context.Context, year int) ([]models.TimelineMonth, bool, error) {
	cacheKey := makeCacheKey("timeline", strconv.Itoa(year))
	var cached []models.TimelineMonth
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, true, nil
		}
	}

	launches, err := s.launches.ListAll(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read launches")
	}

	start := time.Now()
	timeline := BuildTimeline(year, launches)
	if s.metrics != nil {
		s.metrics.ObserveEvaluation("timeline", time.Since(start))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, timeline, 0); err != nil {
			s.logger.Warn("cache timeline", zap.Error(err))
		}
	}
	return timeline, false, nil
}

// BuildTimeline buckets the year's launches per calendar month. Only months
// with at least one launch are emitted, in calendar order; groups and
// variants are sorted alphabetically. Pure function.
func BuildTimeline(year int, launches []models.Launch) []models.TimelineMonth {
	type groupKey struct {
		month int
		name  string
	}
	groups := make(map[groupKey][]models.TimelineVariant)
	for _, launch := range launches {
		if launch.StartDate == nil || launch.StartDate.Year() != year {
			continue
		}
		key := groupKey{month: int(launch.StartDate.Month()), name: GroupDisplayName(launch.Name)}
		groups[key] = append(groups[key], models.TimelineVariant{Name: launch.Name, Seats: launch.Seats})
	}

	byMonth := make(map[int][]models.TimelineInstitution)
	for key, variants := range groups {
		sort.Slice(variants, func(i, j int) bool { return variants[i].Name < variants[j].Name })
		total := 0
		for _, v := range variants {
			total += v.Seats
		}
		byMonth[key.month] = append(byMonth[key.month], models.TimelineInstitution{
			GroupName:  key.name,
			TotalSeats: total,
			Variants:   variants,
		})
	}

	var timeline []models.TimelineMonth
	for month := 1; month <= 12; month++ {
		institutions := byMonth[month]
		if len(institutions) == 0 {
			continue
		}
		sort.Slice(institutions, func(i, j int) bool { return institutions[i].GroupName < institutions[j].GroupName })
		total := 0
		for _, inst := range institutions {
			total += inst.TotalSeats
		}
		timeline = append(timeline, models.TimelineMonth{
			Month:            month,
			MonthName:        monthNames[month-1],
			TotalSeats:       total,
			InstitutionCount: len(institutions),
			Institutions:     institutions,
		})
	}
	return timeline
}
