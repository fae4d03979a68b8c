package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pps-admin-api/internal/models"
	"github.com/noah-isme/pps-admin-api/pkg/retry"
)

// StudentRepository reads the student registry in bulk. The engine always
// works against one full read, never a live cursor.
type StudentRepository struct {
	db       *sqlx.DB
	store    retry.Config
	pageSize int
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB, store retry.Config, pageSize int) *StudentRepository {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &StudentRepository{db: db, store: store, pageSize: pageSize}
}

// ListAll fetches every student, paged so long reads can be cancelled
// between pages. Ordering by creation then id keeps the storage return order
// stable; the merge reconciler's survivor election depends on it.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT id, legajo, full_name, email, account_id, finalized, finalization_date, created_at
        FROM students ORDER BY created_at, id LIMIT $1 OFFSET $2`

	var all []models.Student
	for offset := 0; ; offset += r.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var page []models.Student
		err := retry.Read(ctx, r.store, func(ctx context.Context) error {
			page = page[:0]
			return r.db.SelectContext(ctx, &page, query, r.pageSize, offset)
		})
		if err != nil {
			return nil, fmt.Errorf("list students page at %d: %w", offset, err)
		}

		all = append(all, page...)
		if len(page) < r.pageSize {
			return all, nil
		}
	}
}
