package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pps-admin-api/internal/models"
	"github.com/noah-isme/pps-admin-api/pkg/retry"
)

// LaunchRepository reads cohort launches and carries the one write the
// scanner's auto-fix remediation needs.
type LaunchRepository struct {
	db       *sqlx.DB
	store    retry.Config
	pageSize int
}

// NewLaunchRepository constructs a LaunchRepository.
func NewLaunchRepository(db *sqlx.DB, store retry.Config, pageSize int) *LaunchRepository {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &LaunchRepository{db: db, store: store, pageSize: pageSize}
}

// ListAll fetches every launch, paged and cancellable between pages.
func (r *LaunchRepository) ListAll(ctx context.Context) ([]models.Launch, error) {
	const query = `SELECT id, name, start_date, end_date, seats, management_status
        FROM launches ORDER BY id LIMIT $1 OFFSET $2`

	var all []models.Launch
	for offset := 0; ; offset += r.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var page []models.Launch
		err := retry.Read(ctx, r.store, func(ctx context.Context) error {
			page = page[:0]
			return r.db.SelectContext(ctx, &page, query, r.pageSize, offset)
		})
		if err != nil {
			return nil, fmt.Errorf("list launches page at %d: %w", offset, err)
		}

		all = append(all, page...)
		if len(page) < r.pageSize {
			return all, nil
		}
	}
}

// UpdateName rewrites a launch name. Writes are not retried.
func (r *LaunchRepository) UpdateName(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE launches SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("update launch name %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update launch name %s: no such launch", id)
	}
	return nil
}
