package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pps-admin-api/internal/models"
	appErrors "github.com/noah-isme/pps-admin-api/pkg/errors"
)

type mergeStore interface {
	RecordIntent(ctx context.Context, intent *models.MergeIntent) error
	MarkIntentDone(ctx context.Context, intentID string) error
	PendingIntents(ctx context.Context) ([]models.MergeIntent, error)
	ExecuteCascade(ctx context.Context, survivorID string, loserIDs []string) (*models.MergeResult, error)
}

// MergeService reconciles duplicate-legajo student rows: elects a survivor,
// cascades foreign-key rewrites across every dependent table, and deletes
// the losers. Merges touching one legajo are serialized; the cascade runs in
// one transaction behind a write-ahead intent record.
type MergeService struct {
	students studentLister
	store    mergeStore
	metrics  *MetricsService
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMergeService constructs a MergeService.
func NewMergeService(students studentLister, store mergeStore, metrics *MetricsService, logger *zap.Logger) *MergeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MergeService{
		students: students,
		store:    store,
		metrics:  metrics,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *MergeService) lockFor(legajo string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[legajo]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[legajo] = lock
	}
	return lock
}

// Execute merges every student row sharing the given legajo into one
// survivor. Survivor election prefers the first row, by storage return
// order, that has a linked account; otherwise the first row outright.
func (s *MergeService) Execute(ctx context.Context, legajo string) (*models.MergeResult, error) {
	legajo = strings.TrimSpace(legajo)
	if legajo == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "legajo must not be empty")
	}

	lock := s.lockFor(legajo)
	lock.Lock()
	defer lock.Unlock()

	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read students")
	}

	var set []models.Student
	for _, student := range students {
		if strings.TrimSpace(student.Legajo) == legajo {
			set = append(set, student)
		}
	}
	if len(set) < 2 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no duplicate set for legajo %q", legajo))
	}

	survivor := set[0]
	for _, candidate := range set {
		if candidate.HasAccount() {
			survivor = candidate
			break
		}
	}

	loserIDs := make([]string, 0, len(set)-1)
	for _, student := range set {
		if student.ID != survivor.ID {
			loserIDs = append(loserIDs, student.ID)
		}
	}

	intent := &models.MergeIntent{
		ID:         uuid.NewString(),
		Legajo:     legajo,
		SurvivorID: survivor.ID,
		LoserIDs:   loserIDs,
		State:      models.IntentStatePending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.RecordIntent(ctx, intent); err != nil {
		s.recordOutcome("failed")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record merge intent")
	}

	// The rewrites must land before any loser row disappears: deleting first
	// would strand foreign keys with no recovery path. The cascade is one
	// transaction, so a failure here leaves losers and references untouched
	// and the intent pending for a later retry.
	result, err := s.store.ExecuteCascade(ctx, survivor.ID, loserIDs)
	if err != nil {
		s.recordOutcome("failed")
		s.logger.Error("merge cascade failed",
			zap.String("legajo", legajo),
			zap.String("survivor_id", survivor.ID),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCascadeFailure.Code, appErrors.ErrCascadeFailure.Status, "merge cascade failed")
	}
	result.Legajo = legajo

	if err := s.store.MarkIntentDone(ctx, intent.ID); err != nil {
		// The cascade committed; the merge itself succeeded. The stale
		// pending intent will show up in PendingMerges until cleared.
		s.logger.Warn("merge committed but intent not cleared",
			zap.String("intent_id", intent.ID), zap.Error(err))
	}

	s.recordOutcome("success")
	s.logger.Info("merged duplicate students",
		zap.String("legajo", legajo),
		zap.String("survivor_id", survivor.ID),
		zap.Strings("loser_ids", loserIDs))
	return result, nil
}

// PendingMerges lists intents whose cascade never finished, so an operator
// can detect and resume a partial merge after a crash.
func (s *MergeService) PendingMerges(ctx context.Context) ([]models.MergeIntent, error) {
	intents, err := s.store.PendingIntents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReadFailure.Code, appErrors.ErrReadFailure.Status, "failed to read merge intents")
	}
	return intents, nil
}

func (s *MergeService) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordMerge(outcome)
	}
}
