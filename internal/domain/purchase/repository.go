package purchase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

// Repository handles purchase persistence
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ExistsTx reports whether the user already owns the resource. Ran under the
// buyer's row lock inside the purchase transaction.
func (r *Repository) ExistsTx(ctx context.Context, tx *sqlx.Tx, userID, resourceID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM resource_purchases
			WHERE user_id = $1 AND resource_id = $2
		)
	`, userID, resourceID)
	if err != nil {
		return false, fmt.Errorf("%w: check purchase", ErrInternal)
	}
	return exists, nil
}

// Exists reports ownership outside a transaction (download gating).
func (r *Repository) Exists(ctx context.Context, userID, resourceID uuid.UUID) (bool, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.GetContext(ctx2, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM resource_purchases
			WHERE user_id = $1 AND resource_id = $2
		)
	`, userID, resourceID)
	if err != nil {
		return false, fmt.Errorf("%w: check purchase", ErrInternal)
	}
	return exists, nil
}

// InsertTx records one purchase. The unique (user_id, resource_id) index is
// the last line of defense against duplicates; 23505 maps to
// ErrAlreadyExists so the caller can fall through to the idempotent path.
func (r *Repository) InsertTx(ctx context.Context, tx *sqlx.Tx, p *ResourcePurchase) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO resource_purchases (
			id, user_id, resource_id, price_credits,
			free_credits_spent, paid_credits_spent
		)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.UserID, p.ResourceID, p.PriceCredits, p.FreeCreditsSpent, p.PaidCreditsSpent)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("%w: insert purchase", ErrInternal)
	}
	return nil
}

// GetByUserAndResource returns one purchase row, or ErrNotPurchased.
func (r *Repository) GetByUserAndResource(ctx context.Context, userID, resourceID uuid.UUID) (*ResourcePurchase, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p ResourcePurchase
	err := r.db.GetContext(ctx2, &p, `
		SELECT id, user_id, resource_id, price_credits,
			free_credits_spent, paid_credits_spent, created_at
		FROM resource_purchases
		WHERE user_id = $1 AND resource_id = $2
	`, userID, resourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotPurchased
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get purchase", ErrInternal)
	}
	return &p, nil
}

// ListByUser returns the user's purchases, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ResourcePurchase, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	purchases := make([]ResourcePurchase, 0)
	err := r.db.SelectContext(ctx2, &purchases, `
		SELECT id, user_id, resource_id, price_credits,
			free_credits_spent, paid_credits_spent, created_at
		FROM resource_purchases
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list purchases", ErrInternal)
	}
	return purchases, nil
}
