package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pps-admin-api/internal/models"
	appErrors "github.com/noah-isme/pps-admin-api/pkg/errors"
)

type studentLister interface {
	ListAll(ctx context.Context) ([]models.Student, error)
}

type practiceLister interface {
	ListAll(ctx context.Context) ([]models.Practice, error)
}

type completionLister interface {
	ListCompletion(ctx context.Context) ([]models.CompletionRequest, error)
}

// SnapshotService reconstructs the population picture at an arbitrary past
// instant from current-state rows only.
type SnapshotService struct {
	students    studentLister
	practices   practiceLister
	completions completionLister
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// NewSnapshotService constructs a SnapshotService.
func NewSnapshotService(students studentLister, practices practiceLister, completions completionLister, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{
		students:    students,
		practices:   practices,
		completions: completions,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Compute evaluates the snapshot at the cutoff. The boolean indicates
// whether the result came from cache.
func (s *SnapshotService) Compute(ctx context.Context, cutoff time.Time, year int) (*models.Snapshot, bool, error) {
	if year == 0 {
		year = cutoff.Year()
	}

	cacheKey := makeCacheKey("snapshot", cutoff.UTC().Format(time.RFC3339), strconv.Itoa(year))
	var cached models.Snapshot
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	students, practices, completions, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	facts := ResolveEffectiveDates(students, practices, completions)
	snapshot := EvaluateSnapshot(cutoff, year, facts, students, practices)
	if s.metrics != nil {
		s.metrics.ObserveEvaluation("snapshot", time.Since(start))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, snapshot, 0); err != nil {
			s.logger.Warn("cache snapshot", zap.Error(err))
		}
	}
	return snapshot, false, nil
}

func (s *SnapshotService) load(ctx context.Context) ([]models.Student, []models.Practice, []models.CompletionRequest, error) {
	start := time.Now()
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read students")
	}
	practices, err := s.practices.ListAll(ctx)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read practices")
	}
	completions, err := s.completions.ListCompletion(ctx)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read completion requests")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("snapshot_bulk_read", time.Since(start))
	}
	return students, practices, completions, nil
}

// EvaluateSnapshot classifies every student against the cutoff. Pure
// function of the in-memory data: safe to call concurrently.
func EvaluateSnapshot(cutoff time.Time, year int, facts TemporalFacts, students []models.Student, practices []models.Practice) *models.Snapshot {
	byStudent := make(map[string][]models.Practice)
	hours := make(map[string]int)
	for _, p := range practices {
		if p.StudentID == nil {
			continue
		}
		id := *p.StudentID
		byStudent[id] = append(byStudent[id], p)
		hours[id] += p.Hours
	}

	snapshot := &models.Snapshot{Cutoff: cutoff, Year: year}
	for _, student := range students {
		fact, ok := facts[student.ID]
		if !ok {
			continue
		}
		if IsGhost(student, byStudent[student.ID], year) {
			snapshot.GhostCount++
			continue
		}
		if fact.EntryDate.After(cutoff) {
			continue
		}
		if student.Finalized && fact.FinalizationDate != nil && !fact.FinalizationDate.After(cutoff) {
			snapshot.ExcludedAsFinishedCount++
			continue
		}

		summary := models.StudentSummary{
			ID:       student.ID,
			Legajo:   student.Legajo,
			FullName: student.FullName,
			Hours:    hours[student.ID],
		}
		snapshot.Active = append(snapshot.Active, summary)
		if len(byStudent[student.ID]) == 0 {
			snapshot.WithoutPlacement = append(snapshot.WithoutPlacement, summary)
		}
		if summary.Hours >= models.NearCompletionHours {
			snapshot.NearCompletion = append(snapshot.NearCompletion, summary)
		}
		if summary.Hours >= models.AccreditationHours && !hasInProgress(byStudent[student.ID]) {
			snapshot.ReadyToAccredit = append(snapshot.ReadyToAccredit, summary)
		}
	}

	sortSummaries(snapshot.Active)
	sortSummaries(snapshot.WithoutPlacement)
	sortSummaries(snapshot.NearCompletion)
	sortSummaries(snapshot.ReadyToAccredit)
	snapshot.ActiveCount = len(snapshot.Active)
	snapshot.WithoutPlacementCount = len(snapshot.WithoutPlacement)
	return snapshot
}

func hasInProgress(practices []models.Practice) bool {
	for _, p := range practices {
		if p.Status == models.PracticeStatusInProgress {
			return true
		}
	}
	return false
}

func sortSummaries(list []models.StudentSummary) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Legajo != list[j].Legajo {
			return list[i].Legajo < list[j].Legajo
		}
		return list[i].ID < list[j].ID
	})
}

func makeCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("engine")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
