package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/pps-admin-api/internal/models"
)

// MergeRepository executes duplicate-legajo merges: the write-ahead intent
// log and the transactional foreign-key cascade. None of its writes are
// retried.
type MergeRepository struct {
	db *sqlx.DB
}

// NewMergeRepository constructs a MergeRepository.
func NewMergeRepository(db *sqlx.DB) *MergeRepository {
	return &MergeRepository{db: db}
}

// RecordIntent persists the intent before any cascade step runs, so a crash
// mid-merge is detectable afterwards.
func (r *MergeRepository) RecordIntent(ctx context.Context, intent *models.MergeIntent) error {
	intent.LoserCSV = strings.Join(intent.LoserIDs, ",")
	const query = `INSERT INTO merge_intents (id, legajo, survivor_id, loser_ids, state, created_at)
        VALUES (:id, :legajo, :survivor_id, :loser_ids, :state, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, intent); err != nil {
		return fmt.Errorf("record merge intent %s: %w", intent.ID, err)
	}
	return nil
}

// MarkIntentDone clears the intent after the cascade committed.
func (r *MergeRepository) MarkIntentDone(ctx context.Context, intentID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE merge_intents SET state = $1 WHERE id = $2`,
		models.IntentStateDone, intentID); err != nil {
		return fmt.Errorf("mark merge intent %s done: %w", intentID, err)
	}
	return nil
}

// PendingIntents lists intents whose cascade never finished. Operators use
// this to resume or roll back a partial merge after a crash.
func (r *MergeRepository) PendingIntents(ctx context.Context) ([]models.MergeIntent, error) {
	var intents []models.MergeIntent
	const query = `SELECT id, legajo, survivor_id, loser_ids, state, created_at
        FROM merge_intents WHERE state = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &intents, query, models.IntentStatePending); err != nil {
		return nil, fmt.Errorf("list pending merge intents: %w", err)
	}
	for i := range intents {
		if intents[i].LoserCSV != "" {
			intents[i].LoserIDs = strings.Split(intents[i].LoserCSV, ",")
		}
	}
	return intents, nil
}

// ExecuteCascade rewrites every dependent table's student reference from the
// losers to the survivor and deletes the loser rows, all in one transaction.
// The delete runs last: removing losers before the rewrites would strand
// foreign keys with no recovery path.
func (r *MergeRepository) ExecuteCascade(ctx context.Context, survivorID string, loserIDs []string) (*models.MergeResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin merge cascade: %w", err)
	}

	losers := pq.Array(loserIDs)
	result := &models.MergeResult{SurvivorID: survivorID, LoserIDs: loserIDs}

	steps := []struct {
		query string
		count *int64
	}{
		{`UPDATE enrollment_requests SET student_id = $1 WHERE student_id = ANY($2)`, &result.RewrittenEnrollment},
		{`UPDATE completion_requests SET student_id = $1 WHERE student_id = ANY($2)`, &result.RewrittenCompletion},
		{`UPDATE practices SET student_id = $1 WHERE student_id = ANY($2)`, &result.RewrittenPractices},
		{`UPDATE pps_requests SET student_id = $1 WHERE student_id = ANY($2)`, &result.RewrittenPPS},
	}
	for _, step := range steps {
		res, err := tx.ExecContext(ctx, step.query, survivorID, losers)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("merge cascade rewrite: %w", err)
		}
		if affected, err := res.RowsAffected(); err == nil {
			*step.count = affected
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = ANY($1)`, losers)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("merge cascade delete losers: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil {
		result.DeletedStudents = affected
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit merge cascade: %w", err)
	}
	return result, nil
}
