package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pps-admin-api/internal/models"
	"github.com/noah-isme/pps-admin-api/pkg/retry"
)

// PracticeRepository reads placement records in bulk.
type PracticeRepository struct {
	db       *sqlx.DB
	store    retry.Config
	pageSize int
}

// NewPracticeRepository constructs a PracticeRepository.
func NewPracticeRepository(db *sqlx.DB, store retry.Config, pageSize int) *PracticeRepository {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &PracticeRepository{db: db, store: store, pageSize: pageSize}
}

// ListAll fetches every practice, paged and cancellable between pages.
func (r *PracticeRepository) ListAll(ctx context.Context) ([]models.Practice, error) {
	const query = `SELECT id, student_id, student_name, institution_name, launch_id, start_date, end_date, hours, status
        FROM practices ORDER BY id LIMIT $1 OFFSET $2`

	var all []models.Practice
	for offset := 0; ; offset += r.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var page []models.Practice
		err := retry.Read(ctx, r.store, func(ctx context.Context) error {
			page = page[:0]
			return r.db.SelectContext(ctx, &page, query, r.pageSize, offset)
		})
		if err != nil {
			return nil, fmt.Errorf("list practices page at %d: %w", offset, err)
		}

		all = append(all, page...)
		if len(page) < r.pageSize {
			return all, nil
		}
	}
}
