package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pps-admin-api/internal/models"
	"github.com/noah-isme/pps-admin-api/pkg/retry"
)

// RequestRepository reads the three request collections: enrollment,
// completion, and the legacy supervised-practice linkage.
type RequestRepository struct {
	db       *sqlx.DB
	store    retry.Config
	pageSize int
}

// NewRequestRepository constructs a RequestRepository.
func NewRequestRepository(db *sqlx.DB, store retry.Config, pageSize int) *RequestRepository {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &RequestRepository{db: db, store: store, pageSize: pageSize}
}

// ListEnrollment fetches every enrollment request.
func (r *RequestRepository) ListEnrollment(ctx context.Context) ([]models.EnrollmentRequest, error) {
	const query = `SELECT id, student_id, launch_id, status, updated_at, notes
        FROM enrollment_requests ORDER BY id LIMIT $1 OFFSET $2`

	var all []models.EnrollmentRequest
	for offset := 0; ; offset += r.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var page []models.EnrollmentRequest
		err := retry.Read(ctx, r.store, func(ctx context.Context) error {
			page = page[:0]
			return r.db.SelectContext(ctx, &page, query, r.pageSize, offset)
		})
		if err != nil {
			return nil, fmt.Errorf("list enrollment requests page at %d: %w", offset, err)
		}

		all = append(all, page...)
		if len(page) < r.pageSize {
			return all, nil
		}
	}
}

// ListCompletion fetches every completion request.
func (r *RequestRepository) ListCompletion(ctx context.Context) ([]models.CompletionRequest, error) {
	const query = `SELECT id, student_id, institution_name, status, updated_at, notes
        FROM completion_requests ORDER BY id LIMIT $1 OFFSET $2`

	var all []models.CompletionRequest
	for offset := 0; ; offset += r.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var page []models.CompletionRequest
		err := retry.Read(ctx, r.store, func(ctx context.Context) error {
			page = page[:0]
			return r.db.SelectContext(ctx, &page, query, r.pageSize, offset)
		})
		if err != nil {
			return nil, fmt.Errorf("list completion requests page at %d: %w", offset, err)
		}

		all = append(all, page...)
		if len(page) < r.pageSize {
			return all, nil
		}
	}
}

// ListPPS fetches every legacy PPS request.
func (r *RequestRepository) ListPPS(ctx context.Context) ([]models.PPSRequest, error) {
	const query = `SELECT id, student_id, detail, updated_at
        FROM pps_requests ORDER BY id LIMIT $1 OFFSET $2`

	var all []models.PPSRequest
	for offset := 0; ; offset += r.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var page []models.PPSRequest
		err := retry.Read(ctx, r.store, func(ctx context.Context) error {
			page = page[:0]
			return r.db.SelectContext(ctx, &page, query, r.pageSize, offset)
		})
		if err != nil {
			return nil, fmt.Errorf("list pps requests page at %d: %w", offset, err)
		}

		all = append(all, page...)
		if len(page) < r.pageSize {
			return all, nil
		}
	}
}
