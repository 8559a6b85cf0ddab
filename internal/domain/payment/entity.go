package payment

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status of a payment. Pending rows are created before the Stripe session;
// the webhook moves them to completed exactly once.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// CreditPack is a purchasable bundle of paid credits, optionally sweetened
// with free bonus credits.
type CreditPack struct {
	ID               uuid.UUID `db:"id"`
	Name             string    `db:"name"`
	Credits          int       `db:"credits"`
	BonusFreeCredits int       `db:"bonus_free_credits"`
	PriceCents       int       `db:"price_cents"`
	Currency         string    `db:"currency"`
	IsActive         bool      `db:"is_active"`
	CreatedAt        time.Time `db:"created_at"`
}

// Payment tracks one checkout attempt.
type Payment struct {
	ID              uuid.UUID      `db:"id"`
	UserID          uuid.UUID      `db:"user_id"`
	PackID          uuid.UUID      `db:"pack_id"`
	AmountCents     int            `db:"amount_cents"`
	Currency        string         `db:"currency"`
	Status          Status         `db:"status"`
	StripeSessionID sql.NullString `db:"stripe_session_id"`
	CreatedAt       time.Time      `db:"created_at"`
	CompletedAt     sql.NullTime   `db:"completed_at"`
}
