package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

const resourceColumns = `id, creator_id, title, description, price_credits,
	file_key, locale, is_published, created_at, updated_at`

// Repository handles resource persistence
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetPublished returns a published resource by ID. Unpublished resources are
// indistinguishable from missing ones for buyers.
func (r *Repository) GetPublished(ctx context.Context, id uuid.UUID) (*Resource, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var res Resource
	err := r.db.GetContext(ctx2, &res, `
		SELECT `+resourceColumns+`
		FROM resources
		WHERE id = $1 AND is_published = TRUE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get resource", ErrInternal)
	}
	return &res, nil
}

// GetByID returns a resource regardless of publication state (creator/admin).
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Resource, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var res Resource
	err := r.db.GetContext(ctx2, &res, `
		SELECT `+resourceColumns+`
		FROM resources
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get resource", ErrInternal)
	}
	return &res, nil
}

// ListPublished returns the published catalog, newest first, optionally
// filtered by locale.
func (r *Repository) ListPublished(ctx context.Context, locale string, limit, offset int) ([]Resource, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	resources := make([]Resource, 0)
	query := `
		SELECT ` + resourceColumns + `
		FROM resources
		WHERE is_published = TRUE
	`
	args := []interface{}{limit, offset}
	if locale != "" {
		query += ` AND locale = $3`
		args = append(args, locale)
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	if err := r.db.SelectContext(ctx2, &resources, query, args...); err != nil {
		return nil, fmt.Errorf("%w: list resources", ErrInternal)
	}
	return resources, nil
}

// Create inserts a new resource.
func (r *Repository) Create(ctx context.Context, res *Resource) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO resources (
			id, creator_id, title, description, price_credits,
			file_key, locale, is_published
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, res.ID, res.CreatorID, res.Title, res.Description, res.PriceCredits,
		res.FileKey, res.Locale, res.IsPublished)
	if err != nil {
		return fmt.Errorf("%w: insert resource", ErrInternal)
	}
	return nil
}
