package promo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/petit-ilot/petit-ilot-api/internal/domain/credit"
)

// Service handles promo code redemption and admin management.
type Service struct {
	repo       *Repository
	creditRepo *credit.Repository
}

func NewService(repo *Repository, creditRepo *credit.Repository) *Service {
	return &Service{repo: repo, creditRepo: creditRepo}
}

// Redeem validates and applies a code for a user. Validation short-circuits
// in a fixed order: existence/active, expiry, global cap, per-user
// constraint. On success the use counter, the redemption record, the free
// balance and the ledger row all land in one transaction.
func (s *Service) Redeem(ctx context.Context, userID uuid.UUID, rawCode string) (int, error) {
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if code == "" {
		return 0, ErrInvalidCode
	}

	tx, err := s.creditRepo.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	promo, err := s.repo.LockByCodeTx(ctx, tx, code)
	if err != nil {
		return 0, err
	}
	if !promo.IsActive {
		return 0, ErrInvalidCode
	}
	if promo.IsExpired(time.Now()) {
		return 0, ErrExpiredCode
	}
	if promo.UsesExhausted() {
		return 0, ErrUsesExhausted
	}
	if !promo.AllowMultiplePerUser {
		redeemed, err := s.repo.HasRedemptionTx(ctx, tx, promo.ID, userID)
		if err != nil {
			return 0, err
		}
		if redeemed {
			return 0, ErrAlreadyRedeemed
		}
	}

	if err := s.repo.IncrementUsesTx(ctx, tx, promo.ID); err != nil {
		return 0, err
	}
	if err := s.repo.InsertRedemptionTx(ctx, tx, promo.ID, userID, promo.FreeCredits); err != nil {
		return 0, err
	}

	entityType := "promo_code"
	entityID := promo.ID.String()
	err = s.creditRepo.GrantTx(ctx, tx, userID, promo.FreeCredits, credit.CreditTypeFree, credit.TxTypePromoCode, credit.TxMeta{
		RelatedEntityType: &entityType,
		RelatedEntityID:   &entityID,
		Description:       "promo code " + promo.Code,
	})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("code", promo.Code).
		Int("credits", promo.FreeCredits).
		Msg("promo code redeemed")

	return promo.FreeCredits, nil
}

// CreateInput holds admin-supplied fields for a new code.
type CreateInput struct {
	Code                 string
	FreeCredits          int
	MaxUses              *int
	ExpiresAt            *time.Time
	AllowMultiplePerUser bool
	IsActive             bool
}

// Create registers a new code (admin).
func (s *Service) Create(ctx context.Context, in CreateInput) (*PromoCode, error) {
	p := &PromoCode{
		ID:                   uuid.New(),
		Code:                 strings.ToUpper(strings.TrimSpace(in.Code)),
		FreeCredits:          in.FreeCredits,
		AllowMultiplePerUser: in.AllowMultiplePerUser,
		IsActive:             in.IsActive,
	}
	if in.MaxUses != nil {
		p.MaxUses = sql.NullInt64{Int64: int64(*in.MaxUses), Valid: true}
	}
	if in.ExpiresAt != nil {
		p.ExpiresAt = sql.NullTime{Time: *in.ExpiresAt, Valid: true}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, p.ID)
}

// UpdateInput holds admin-updatable fields. Nil pointers leave the current
// value in place. MaxUses <= 0 clears the cap; a zero ExpiresAt clears the
// expiry.
type UpdateInput struct {
	FreeCredits          *int
	MaxUses              *int
	ExpiresAt            *time.Time
	AllowMultiplePerUser *bool
	IsActive             *bool
}

// Update modifies a code in place (admin).
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*PromoCode, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FreeCredits != nil {
		p.FreeCredits = *in.FreeCredits
	}
	if in.MaxUses != nil {
		if *in.MaxUses <= 0 {
			p.MaxUses = sql.NullInt64{}
		} else {
			p.MaxUses = sql.NullInt64{Int64: int64(*in.MaxUses), Valid: true}
		}
	}
	if in.ExpiresAt != nil {
		if in.ExpiresAt.IsZero() {
			p.ExpiresAt = sql.NullTime{}
		} else {
			p.ExpiresAt = sql.NullTime{Time: *in.ExpiresAt, Valid: true}
		}
	}
	if in.AllowMultiplePerUser != nil {
		p.AllowMultiplePerUser = *in.AllowMultiplePerUser
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes a code (admin).
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// List returns all codes (admin).
func (s *Service) List(ctx context.Context, limit, offset int) ([]PromoCode, error) {
	return s.repo.List(ctx, limit, offset)
}
