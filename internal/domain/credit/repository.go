package credit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository provides balance and ledger operations. Balances live on the
// users row; every mutation pairs a balance update with exactly one ledger
// insert inside the same transaction.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Balances returns the current free/paid balances for a user.
func (r *Repository) Balances(ctx context.Context, userID uuid.UUID) (Balances, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var b Balances
	err := r.db.GetContext(ctx2, &b, `
		SELECT free_credits_balance, paid_credits_balance
		FROM users
		WHERE id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Balances{}, ErrUserNotFound
	}
	if err != nil {
		return Balances{}, fmt.Errorf("%w: get balances", ErrInternal)
	}
	return b, nil
}

// LockBalancesTx reads the balances under a FOR UPDATE row lock. Concurrent
// operations on the same user serialize here, so a sufficiency check made
// after this call cannot go stale before commit.
func (r *Repository) LockBalancesTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (Balances, error) {
	var b Balances
	err := tx.QueryRowContext(ctx, `
		SELECT free_credits_balance, paid_credits_balance
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID).Scan(&b.Free, &b.Paid)
	if errors.Is(err, sql.ErrNoRows) {
		return Balances{}, ErrUserNotFound
	}
	if err != nil {
		return Balances{}, fmt.Errorf("%w: lock user row", ErrInternal)
	}
	return b, nil
}

// SpendTx debits the two pools by the given split and writes one ledger row
// with credits_amount = -(free+paid) tagged free/paid/mixed. The caller must
// hold the row lock (LockBalancesTx) and have validated the split against
// the locked balances. Does not commit.
func (r *Repository) SpendTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, freeSpend, paidSpend int, txType TxType, meta TxMeta) error {
	total := freeSpend + paidSpend
	if total <= 0 || freeSpend < 0 || paidSpend < 0 {
		return ErrInvalidAmount
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE users
		SET free_credits_balance = free_credits_balance - $2,
			paid_credits_balance = paid_credits_balance - $3,
			updated_at = now()
		WHERE id = $1
			AND free_credits_balance >= $2
			AND paid_credits_balance >= $3
	`, userID, freeSpend, paidSpend)
	if err != nil {
		return fmt.Errorf("%w: update user balances", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrInsufficientCredits
	}

	return r.insertLedgerTx(ctx, tx, userID, -total, txType, creditTypeFor(freeSpend, paidSpend), meta)
}

// GrantTx credits a single pool and writes one ledger row. Does not commit.
func (r *Repository) GrantTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int, pool CreditType, txType TxType, meta TxMeta) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	var query string
	switch pool {
	case CreditTypeFree:
		query = `UPDATE users SET free_credits_balance = free_credits_balance + $2, updated_at = now() WHERE id = $1`
	case CreditTypePaid:
		query = `UPDATE users SET paid_credits_balance = paid_credits_balance + $2, updated_at = now() WHERE id = $1`
	default:
		return fmt.Errorf("%w: grant pool must be free or paid", ErrInternal)
	}

	result, err := tx.ExecContext(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("%w: update user balance", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return r.insertLedgerTx(ctx, tx, userID, amount, txType, pool, meta)
}

// Grant credits a single pool in its own transaction.
func (r *Repository) Grant(ctx context.Context, userID uuid.UUID, amount int, pool CreditType, txType TxType, meta TxMeta) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	if err := r.GrantTx(ctx2, tx, userID, amount, pool, txType, meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}
	return nil
}

// ListTransactions returns a user's ledger, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]CreditTransaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	transactions := make([]CreditTransaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, `
		SELECT id, user_id, credits_amount, tx_type, credit_type,
			related_entity_type, related_entity_id, description, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, pagination.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrInternal)
	}

	return transactions, nil
}

// SearchTransactions returns filtered transactions (admin use).
func (r *Repository) SearchTransactions(ctx context.Context, filters SearchFilters) ([]CreditTransaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	base := `
		SELECT id, user_id, credits_amount, tx_type, credit_type,
			related_entity_type, related_entity_id, description, created_at
		FROM credit_transactions
		WHERE 1=1`
	args := make([]interface{}, 0, 8)
	idx := 1

	if filters.UserID != nil && *filters.UserID != "" {
		base += fmt.Sprintf(" AND user_id = $%d", idx)
		args = append(args, *filters.UserID)
		idx++
	}
	if filters.TxType != nil && *filters.TxType != "" {
		base += fmt.Sprintf(" AND tx_type = $%d", idx)
		args = append(args, *filters.TxType)
		idx++
	}
	if filters.CreditType != nil && *filters.CreditType != "" {
		base += fmt.Sprintf(" AND credit_type = $%d", idx)
		args = append(args, *filters.CreditType)
		idx++
	}
	if filters.DateFrom != nil {
		base += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *filters.DateFrom)
		idx++
	}
	if filters.DateTo != nil {
		base += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *filters.DateTo)
		idx++
	}
	if filters.RelatedEntityType != nil && *filters.RelatedEntityType != "" {
		base += fmt.Sprintf(" AND related_entity_type = $%d", idx)
		args = append(args, *filters.RelatedEntityType)
		idx++
	}
	if filters.RelatedEntityID != nil && *filters.RelatedEntityID != "" {
		base += fmt.Sprintf(" AND related_entity_id = $%d", idx)
		args = append(args, *filters.RelatedEntityID)
		idx++
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	base = strings.TrimSpace(base) + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filters.Offset)

	transactions := make([]CreditTransaction, 0)
	if err := r.db.SelectContext(ctx2, &transactions, base, args...); err != nil {
		return nil, fmt.Errorf("%w: search transactions", ErrInternal)
	}

	return transactions, nil
}

// SumDeltas returns the sum of all ledger amounts for a user. The invariant
// SumDeltas == free+paid balance must hold at all times.
func (r *Repository) SumDeltas(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sum int
	err := r.db.GetContext(ctx2, &sum, `
		SELECT COALESCE(SUM(credits_amount), 0)
		FROM credit_transactions
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: sum transactions", ErrInternal)
	}
	return sum, nil
}

// BeginTx starts a transaction for callers composing SpendTx/GrantTx with
// their own writes (purchase orchestrator, payment confirmation).
func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	return tx, nil
}

func (r *Repository) insertLedgerTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int, txType TxType, creditType CreditType, meta TxMeta) error {
	if !validTxType(txType) {
		return fmt.Errorf("%w: unknown tx type %q", ErrInternal, txType)
	}

	if strings.TrimSpace(meta.Description) == "" {
		meta.Description = "credit balance adjustment"
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (
			id, user_id, credits_amount, tx_type, credit_type,
			related_entity_type, related_entity_id, description
		)
		VALUES (
			gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7
		)
	`, userID, amount, txType, creditType, meta.RelatedEntityType, meta.RelatedEntityID, meta.Description)
	if err != nil {
		return fmt.Errorf("%w: insert transaction", ErrInternal)
	}

	return nil
}
