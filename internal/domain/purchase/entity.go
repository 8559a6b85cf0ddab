package purchase

import (
	"time"

	"github.com/google/uuid"
)

// ResourcePurchase is one user's perpetual access right to one resource.
// Rows are immutable; the (user_id, resource_id) pair is unique.
type ResourcePurchase struct {
	ID               uuid.UUID `db:"id"`
	UserID           uuid.UUID `db:"user_id"`
	ResourceID       uuid.UUID `db:"resource_id"`
	PriceCredits     int       `db:"price_credits"`
	FreeCreditsSpent int       `db:"free_credits_spent"`
	PaidCreditsSpent int       `db:"paid_credits_spent"`
	CreatedAt        time.Time `db:"created_at"`
}
