package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pps-admin-api/internal/models"
	appErrors "github.com/noah-isme/pps-admin-api/pkg/errors"
)

type launchLister interface {
	ListAll(ctx context.Context) ([]models.Launch, error)
}

type institutionLister interface {
	ListAll(ctx context.Context) ([]models.Institution, error)
}

// FlowService derives period-over-period flow metrics by diffing two
// snapshot evaluations and applying windowed filters over the same bulk
// read.
type FlowService struct {
	students     studentLister
	practices    practiceLister
	completions  completionLister
	launches     launchLister
	institutions institutionLister
	cache        *CacheService
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
}

// NewFlowService constructs a FlowService.
func NewFlowService(students studentLister, practices practiceLister, completions completionLister, launches launchLister, institutions institutionLister, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *FlowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlowService{
		students:     students,
		practices:    practices,
		completions:  completions,
		launches:     launches,
		institutions: institutions,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Compute returns the flow metrics for the year plus the previous period.
// The boolean indicates cache utilisation.
func (s *FlowService) Compute(ctx context.Context, year int) (*models.FlowMetrics, bool, error) {
	cacheKey := makeCacheKey("flow", strconv.Itoa(year))
	var cached models.FlowMetrics
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read students")
	}
	practices, err := s.practices.ListAll(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read practices")
	}
	completions, err := s.completions.ListCompletion(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read completion requests")
	}
	launches, err := s.launches.ListAll(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read launches")
	}
	institutions, err := s.institutions.ListAll(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read institutions")
	}

	start := time.Now()
	facts := ResolveEffectiveDates(students, practices, completions)
	metrics := &models.FlowMetrics{
		Current:  ComputeFlowPeriod(year, s.now(), facts, students, practices, launches, institutions),
		Previous: ComputeFlowPeriod(year-1, s.now(), facts, students, practices, launches, institutions),
	}
	if s.metrics != nil {
		s.metrics.ObserveEvaluation("flow", time.Since(start))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, metrics, 0); err != nil {
			s.logger.Warn("cache flow", zap.Error(err))
		}
	}
	return metrics, false, nil
}

// ComputeFlowPeriod computes one year's windowed metrics. Pure function.
func ComputeFlowPeriod(year int, now time.Time, facts TemporalFacts, students []models.Student, practices []models.Practice, launches []models.Launch, institutions []models.Institution) models.FlowPeriod {
	startCutoff := endOfYear(year - 1)
	endCutoff := endOfYear(year)
	if now.Before(endCutoff) {
		endCutoff = now
	}

	period := models.FlowPeriod{Year: year}
	period.ActiveAtStart = EvaluateSnapshot(startCutoff, startCutoff.Year(), facts, students, practices).ActiveCount
	period.ActiveAtEnd = EvaluateSnapshot(endCutoff, year, facts, students, practices).ActiveCount

	for _, student := range students {
		fact, ok := facts[student.ID]
		if !ok {
			continue
		}
		if fact.EntryDate.Year() == year && !fact.EntryDate.After(endCutoff) {
			period.NewEntries++
		}
		if student.Finalized && fact.FinalizationDate != nil &&
			fact.FinalizationDate.Year() == year && !fact.FinalizationDate.After(endCutoff) {
			period.Finalizations++
		}
	}

	// Multiple same-month variants of one offering count once.
	seen := make(map[string]struct{})
	for _, launch := range launches {
		if launch.StartDate == nil || launch.StartDate.Year() != year {
			continue
		}
		period.TotalSeats += launch.Seats
		key := GroupDisplayName(launch.Name) + "\x00" + strconv.Itoa(int(launch.StartDate.Month()))
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			period.NewLaunches++
		}
	}

	// Launch-to-institution linkage is by name prefix, not a foreign key. An
	// institution flagged new_agreement counts in the year its first-ever
	// launch starts.
	firstLaunch := make(map[string]time.Time)
	for _, launch := range launches {
		if launch.StartDate == nil {
			continue
		}
		group := GroupDisplayName(launch.Name)
		if current, ok := firstLaunch[group]; !ok || launch.StartDate.Before(current) {
			firstLaunch[group] = *launch.StartDate
		}
	}
	for _, inst := range institutions {
		if !inst.NewAgreement {
			continue
		}
		if first, ok := firstLaunch[inst.Name]; ok && first.Year() == year {
			period.NewAgreements++
		}
	}

	return period
}

func endOfYear(year int) time.Time {
	return time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
}
