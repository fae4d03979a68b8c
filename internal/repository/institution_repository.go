package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pps-admin-api/internal/models"
	"github.com/noah-isme/pps-admin-api/pkg/retry"
)

// InstitutionRepository reads host institutions in bulk.
type InstitutionRepository struct {
	db       *sqlx.DB
	store    retry.Config
	pageSize int
}

// NewInstitutionRepository constructs an InstitutionRepository.
func NewInstitutionRepository(db *sqlx.DB, store retry.Config, pageSize int) *InstitutionRepository {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &InstitutionRepository{db: db, store: store, pageSize: pageSize}
}

// ListAll fetches every institution, paged and cancellable between pages.
func (r *InstitutionRepository) ListAll(ctx context.Context) ([]models.Institution, error) {
	const query = `SELECT id, name, contact_email, contact_phone, new_agreement
        FROM institutions ORDER BY id LIMIT $1 OFFSET $2`

	var all []models.Institution
	for offset := 0; ; offset += r.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var page []models.Institution
		err := retry.Read(ctx, r.store, func(ctx context.Context) error {
			page = page[:0]
			return r.db.SelectContext(ctx, &page, query, r.pageSize, offset)
		})
		if err != nil {
			return nil, fmt.Errorf("list institutions page at %d: %w", offset, err)
		}

		all = append(all, page...)
		if len(page) < r.pageSize {
			return all, nil
		}
	}
}
