package promo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

const promoColumns = `id, code, free_credits, max_uses, current_uses, expires_at,
	allow_multiple_per_user, is_active, created_at, updated_at`

// Repository handles promo code persistence
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetByCode returns a code by its (upper-cased) value.
func (r *Repository) GetByCode(ctx context.Context, code string) (*PromoCode, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p PromoCode
	err := r.db.GetContext(ctx2, &p, `
		SELECT `+promoColumns+`
		FROM promo_codes
		WHERE code = $1
	`, strings.ToUpper(code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get promo code", ErrInternal)
	}
	return &p, nil
}

// LockByCodeTx loads a code under FOR UPDATE. All redemptions of the same
// code serialize on this lock, which is what makes the use-cap check and the
// per-user check race-free.
func (r *Repository) LockByCodeTx(ctx context.Context, tx *sqlx.Tx, code string) (*PromoCode, error) {
	var p PromoCode
	err := tx.GetContext(ctx, &p, `
		SELECT `+promoColumns+`
		FROM promo_codes
		WHERE code = $1
		FOR UPDATE
	`, strings.ToUpper(code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lock promo code", ErrInternal)
	}
	return &p, nil
}

// HasRedemptionTx reports whether the user already redeemed the code.
func (r *Repository) HasRedemptionTx(ctx context.Context, tx *sqlx.Tx, promoCodeID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM promo_redemptions
			WHERE promo_code_id = $1 AND user_id = $2
		)
	`, promoCodeID, userID)
	if err != nil {
		return false, fmt.Errorf("%w: check redemption", ErrInternal)
	}
	return exists, nil
}

// IncrementUsesTx bumps the use counter, re-checking the cap in the same
// statement. With the row lock held this cannot race, but the guard keeps
// the invariant current_uses <= max_uses enforced at the data layer too.
func (r *Repository) IncrementUsesTx(ctx context.Context, tx *sqlx.Tx, promoCodeID uuid.UUID) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE promo_codes
		SET current_uses = current_uses + 1, updated_at = now()
		WHERE id = $1
			AND (max_uses IS NULL OR current_uses < max_uses)
	`, promoCodeID)
	if err != nil {
		return fmt.Errorf("%w: increment uses", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrUsesExhausted
	}
	return nil
}

// InsertRedemptionTx records one redemption.
func (r *Repository) InsertRedemptionTx(ctx context.Context, tx *sqlx.Tx, promoCodeID, userID uuid.UUID, creditsGranted int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO promo_redemptions (id, promo_code_id, user_id, credits_granted)
		VALUES (gen_random_uuid(), $1, $2, $3)
	`, promoCodeID, userID, creditsGranted)
	if err != nil {
		return fmt.Errorf("%w: insert redemption", ErrInternal)
	}
	return nil
}

// Create inserts a new promo code (admin).
func (r *Repository) Create(ctx context.Context, p *PromoCode) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO promo_codes (
			id, code, free_credits, max_uses, expires_at,
			allow_multiple_per_user, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, strings.ToUpper(p.Code), p.FreeCredits, p.MaxUses, p.ExpiresAt, p.AllowMultiplePerUser, p.IsActive)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrCodeExists
		}
		return fmt.Errorf("%w: insert promo code", ErrInternal)
	}
	return nil
}

// Update rewrites the mutable fields of a code (admin).
func (r *Repository) Update(ctx context.Context, p *PromoCode) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE promo_codes
		SET free_credits = $2,
			max_uses = $3,
			expires_at = $4,
			allow_multiple_per_user = $5,
			is_active = $6,
			updated_at = now()
		WHERE id = $1
	`, p.ID, p.FreeCredits, p.MaxUses, p.ExpiresAt, p.AllowMultiplePerUser, p.IsActive)
	if err != nil {
		return fmt.Errorf("%w: update promo code", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a code and its redemption rows (admin). The ledger keeps
// the granted credits either way.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `DELETE FROM promo_codes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete promo code", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a code by ID (admin).
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*PromoCode, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p PromoCode
	err := r.db.GetContext(ctx2, &p, `
		SELECT `+promoColumns+`
		FROM promo_codes
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get promo code", ErrInternal)
	}
	return &p, nil
}

// List returns all codes, newest first (admin).
func (r *Repository) List(ctx context.Context, limit, offset int) ([]PromoCode, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	codes := make([]PromoCode, 0)
	err := r.db.SelectContext(ctx2, &codes, `
		SELECT `+promoColumns+`
		FROM promo_codes
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list promo codes", ErrInternal)
	}
	return codes, nil
}
