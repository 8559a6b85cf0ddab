package credit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service exposes ledger operations to the rest of the system. All spends go
// through the purchase orchestrator; this service only handles reads and
// grants.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Balances returns the current free/paid balances for a user.
func (s *Service) Balances(ctx context.Context, userID uuid.UUID) (Balances, error) {
	return s.repo.Balances(ctx, userID)
}

// Grant credits a single pool. Used by the registration bonus, promo
// redemption and payment confirmation flows.
func (s *Service) Grant(ctx context.Context, userID uuid.UUID, amount int, pool CreditType, txType TxType, meta TxMeta) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if err := s.repo.Grant(ctx, userID, amount, pool, txType, meta); err != nil {
		return err
	}
	log.Info().
		Str("user_id", userID.String()).
		Int("amount", amount).
		Str("pool", string(pool)).
		Str("tx_type", string(txType)).
		Msg("credits granted")
	return nil
}

// AdminGrant credits both pools in one transaction with a reason, one ledger
// row per pool touched.
func (s *Service) AdminGrant(ctx context.Context, adminID, userID uuid.UUID, freeCredits, paidCredits int, reason string) (Balances, error) {
	if freeCredits < 0 || paidCredits < 0 || freeCredits+paidCredits == 0 {
		return Balances{}, ErrInvalidAmount
	}

	adminIDStr := adminID.String()
	entityType := "admin"
	meta := TxMeta{
		RelatedEntityType: &entityType,
		RelatedEntityID:   &adminIDStr,
		Description:       reason,
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return Balances{}, err
	}
	defer tx.Rollback()

	if freeCredits > 0 {
		if err := s.repo.GrantTx(ctx, tx, userID, freeCredits, CreditTypeFree, TxTypeAdminGrant, meta); err != nil {
			return Balances{}, err
		}
	}
	if paidCredits > 0 {
		if err := s.repo.GrantTx(ctx, tx, userID, paidCredits, CreditTypePaid, TxTypeAdminGrant, meta); err != nil {
			return Balances{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Balances{}, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	log.Info().
		Str("admin_id", adminID.String()).
		Str("user_id", userID.String()).
		Int("free", freeCredits).
		Int("paid", paidCredits).
		Msg("admin credit grant applied")

	return s.repo.Balances(ctx, userID)
}

// ListTransactions returns paginated transaction history for a user.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]CreditTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListTransactions(ctx, userID, Pagination{Limit: limit, Offset: offset})
}

// SearchTransactions returns filtered transactions (admin use).
func (s *Service) SearchTransactions(ctx context.Context, filters SearchFilters) ([]CreditTransaction, error) {
	return s.repo.SearchTransactions(ctx, filters)
}
