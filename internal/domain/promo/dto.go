package promo

import (
	"time"

	"github.com/google/uuid"
)

type redeemRequest struct {
	Code string `json:"code" validate:"required,promo_code"`
}

type redeemResponse struct {
	CreditsAdded int `json:"credits_added"`
}

type createRequest struct {
	Code                 string     `json:"code" validate:"required,promo_code"`
	FreeCredits          int        `json:"free_credits" validate:"required,gte=1,lte=10000"`
	MaxUses              *int       `json:"max_uses" validate:"omitempty,gte=1"`
	ExpiresAt            *time.Time `json:"expires_at"`
	AllowMultiplePerUser bool       `json:"allow_multiple_per_user"`
	IsActive             *bool      `json:"is_active"`
}

// updateRequest: max_uses <= 0 clears the cap, a zero expires_at clears the
// expiry, omitted fields are untouched.
type updateRequest struct {
	FreeCredits          *int       `json:"free_credits" validate:"omitempty,gte=1,lte=10000"`
	MaxUses              *int       `json:"max_uses"`
	ExpiresAt            *time.Time `json:"expires_at"`
	AllowMultiplePerUser *bool      `json:"allow_multiple_per_user"`
	IsActive             *bool      `json:"is_active"`
}

type promoCodeView struct {
	ID                   uuid.UUID  `json:"id"`
	Code                 string     `json:"code"`
	FreeCredits          int        `json:"free_credits"`
	MaxUses              *int64     `json:"max_uses,omitempty"`
	CurrentUses          int        `json:"current_uses"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty"`
	AllowMultiplePerUser bool       `json:"allow_multiple_per_user"`
	IsActive             bool       `json:"is_active"`
	CreatedAt            time.Time  `json:"created_at"`
}

func toView(p *PromoCode) promoCodeView {
	v := promoCodeView{
		ID:                   p.ID,
		Code:                 p.Code,
		FreeCredits:          p.FreeCredits,
		CurrentUses:          p.CurrentUses,
		AllowMultiplePerUser: p.AllowMultiplePerUser,
		IsActive:             p.IsActive,
		CreatedAt:            p.CreatedAt,
	}
	if p.MaxUses.Valid {
		v.MaxUses = &p.MaxUses.Int64
	}
	if p.ExpiresAt.Valid {
		v.ExpiresAt = &p.ExpiresAt.Time
	}
	return v
}
