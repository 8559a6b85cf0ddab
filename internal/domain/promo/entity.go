package promo

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// PromoCode represents a redeemable free-credit code. Codes are stored
// upper-cased; lookups fold input the same way.
type PromoCode struct {
	ID                   uuid.UUID     `db:"id"`
	Code                 string        `db:"code"`
	FreeCredits          int           `db:"free_credits"`
	MaxUses              sql.NullInt64 `db:"max_uses"`
	CurrentUses          int           `db:"current_uses"`
	ExpiresAt            sql.NullTime  `db:"expires_at"`
	AllowMultiplePerUser bool          `db:"allow_multiple_per_user"`
	IsActive             bool          `db:"is_active"`
	CreatedAt            time.Time     `db:"created_at"`
	UpdatedAt            time.Time     `db:"updated_at"`
}

// IsExpired reports whether the code has passed its expiry.
func (p *PromoCode) IsExpired(now time.Time) bool {
	return p.ExpiresAt.Valid && !p.ExpiresAt.Time.After(now)
}

// UsesExhausted reports whether the code hit its global cap.
func (p *PromoCode) UsesExhausted() bool {
	return p.MaxUses.Valid && int64(p.CurrentUses) >= p.MaxUses.Int64
}

// Redemption records one successful application of a code to a user.
type Redemption struct {
	ID             uuid.UUID `db:"id"`
	PromoCodeID    uuid.UUID `db:"promo_code_id"`
	UserID         uuid.UUID `db:"user_id"`
	CreditsGranted int       `db:"credits_granted"`
	CreatedAt      time.Time `db:"created_at"`
}
