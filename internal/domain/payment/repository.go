package payment

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

// Repository handles credit pack and payment persistence
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ListActivePacks returns purchasable packs, cheapest first.
func (r *Repository) ListActivePacks(ctx context.Context) ([]CreditPack, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	packs := make([]CreditPack, 0)
	err := r.db.SelectContext(ctx2, &packs, `
		SELECT id, name, credits, bonus_free_credits, price_cents, currency, is_active, created_at
		FROM credit_packs
		WHERE is_active = TRUE
		ORDER BY price_cents ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list packs", ErrInternal)
	}
	return packs, nil
}

// GetPack returns one active pack.
func (r *Repository) GetPack(ctx context.Context, id uuid.UUID) (*CreditPack, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var pack CreditPack
	err := r.db.GetContext(ctx2, &pack, `
		SELECT id, name, credits, bonus_free_credits, price_cents, currency, is_active, created_at
		FROM credit_packs
		WHERE id = $1 AND is_active = TRUE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get pack", ErrInternal)
	}
	return &pack, nil
}

// CreatePending inserts a pending payment row ahead of the Stripe session.
func (r *Repository) CreatePending(ctx context.Context, p *Payment) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO payments (id, user_id, pack_id, amount_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
	`, p.ID, p.UserID, p.PackID, p.AmountCents, p.Currency)
	if err != nil {
		return fmt.Errorf("%w: insert payment", ErrInternal)
	}
	return nil
}

// SetSessionID attaches the Stripe session to a pending payment.
func (r *Repository) SetSessionID(ctx context.Context, id uuid.UUID, sessionID string) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		UPDATE payments SET stripe_session_id = $2 WHERE id = $1
	`, id, sessionID)
	if err != nil {
		return fmt.Errorf("%w: set session id", ErrInternal)
	}
	return nil
}

// GetByID returns one payment.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Payment
	err := r.db.GetContext(ctx2, &p, `
		SELECT id, user_id, pack_id, amount_cents, currency, status,
			stripe_session_id, created_at, completed_at
		FROM payments
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get payment", ErrInternal)
	}
	return &p, nil
}

// CompleteTx flips a pending payment to completed. The status guard makes
// webhook redelivery a no-op: 0 rows means someone already completed it.
func (r *Repository) CompleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, sessionID string) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = 'completed', stripe_session_id = $2, completed_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, sessionID)
	if err != nil {
		return fmt.Errorf("%w: complete payment", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrAlreadyCompleted
	}
	return nil
}
