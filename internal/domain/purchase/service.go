package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/petit-ilot/petit-ilot-api/internal/domain/credit"
	"github.com/petit-ilot/petit-ilot-api/internal/domain/resource"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/storage"
)

const downloadURLTTL = 15 * time.Minute

// Service orchestrates purchases: allocation, balance debit, ledger write,
// purchase record and creator earning all commit or roll back together.
type Service struct {
	repo         *Repository
	resourceRepo *resource.Repository
	creditRepo   *credit.Repository
	store        storage.Storage
}

func NewService(repo *Repository, resourceRepo *resource.Repository, creditRepo *credit.Repository, store storage.Storage) *Service {
	return &Service{repo: repo, resourceRepo: resourceRepo, creditRepo: creditRepo, store: store}
}

// Result is the authoritative outcome of a purchase. Clients display the
// split and balances from here and never compute them locally.
type Result struct {
	ResourceID       uuid.UUID
	AlreadyOwned     bool
	PriceCredits     int
	FreeCreditsSpent int
	PaidCreditsSpent int
	Balances         credit.Balances
}

// Purchase buys a resource for a user. Submitting the same purchase twice
// charges once: the second call reports AlreadyOwned with no mutation.
func (s *Service) Purchase(ctx context.Context, userID, resourceID uuid.UUID) (*Result, error) {
	res, err := s.resourceRepo.GetPublished(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	// Free resources never touch the ledger.
	if res.IsFree() {
		balances, err := s.creditRepo.Balances(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &Result{ResourceID: resourceID, Balances: balances}, nil
	}

	tx, err := s.creditRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// The buyer's row lock serializes concurrent purchases by the same user,
	// so the idempotency check and the sufficiency check cannot go stale.
	balances, err := s.creditRepo.LockBalancesTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	owned, err := s.repo.ExistsTx(ctx, tx, userID, resourceID)
	if err != nil {
		return nil, err
	}
	if owned {
		return &Result{ResourceID: resourceID, AlreadyOwned: true, PriceCredits: res.PriceCredits, Balances: balances}, nil
	}

	freeSpend, paidSpend, err := credit.Allocate(res.PriceCredits, balances.Free, balances.Paid)
	if err != nil {
		return nil, err
	}

	entityType := "resource"
	entityID := resourceID.String()
	meta := credit.TxMeta{
		RelatedEntityType: &entityType,
		RelatedEntityID:   &entityID,
		Description:       "purchase of " + res.Title,
	}
	if err := s.creditRepo.SpendTx(ctx, tx, userID, freeSpend, paidSpend, credit.TxTypeSpent, meta); err != nil {
		return nil, err
	}

	p := &ResourcePurchase{
		ID:               uuid.New(),
		UserID:           userID,
		ResourceID:       resourceID,
		PriceCredits:     res.PriceCredits,
		FreeCreditsSpent: freeSpend,
		PaidCreditsSpent: paidSpend,
	}
	if err := s.repo.InsertTx(ctx, tx, p); err != nil {
		// A racing insert won; the lost race is a success for the buyer.
		if errors.Is(err, ErrAlreadyExists) {
			return &Result{ResourceID: resourceID, AlreadyOwned: true, PriceCredits: res.PriceCredits, Balances: balances}, nil
		}
		return nil, err
	}

	// The paid share of the sale goes to the creator's paid pool; the free
	// share carries no monetary value and is not paid out.
	if paidSpend > 0 {
		saleType := "resource_purchase"
		saleID := p.ID.String()
		err := s.creditRepo.GrantTx(ctx, tx, res.CreatorID, paidSpend, credit.CreditTypePaid, credit.TxTypeSaleEarning, credit.TxMeta{
			RelatedEntityType: &saleType,
			RelatedEntityID:   &saleID,
			Description:       "sale of " + res.Title,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("resource_id", resourceID.String()).
		Int("price", res.PriceCredits).
		Int("free_spent", freeSpend).
		Int("paid_spent", paidSpend).
		Msg("resource purchased")

	return &Result{
		ResourceID:       resourceID,
		PriceCredits:     res.PriceCredits,
		FreeCreditsSpent: freeSpend,
		PaidCreditsSpent: paidSpend,
		Balances:         credit.Balances{Free: balances.Free - freeSpend, Paid: balances.Paid - paidSpend},
	}, nil
}

// DownloadURL returns a short-lived presigned URL for a resource the user is
// entitled to: either they purchased it or it is free.
func (s *Service) DownloadURL(ctx context.Context, userID, resourceID uuid.UUID) (string, error) {
	res, err := s.resourceRepo.GetPublished(ctx, resourceID)
	if err != nil {
		return "", err
	}

	if !res.IsFree() {
		owned, err := s.repo.Exists(ctx, userID, resourceID)
		if err != nil {
			return "", err
		}
		if !owned {
			return "", ErrNotPurchased
		}
	}

	url, err := s.store.PresignDownload(ctx, res.FileKey, downloadURLTTL)
	if err != nil {
		return "", fmt.Errorf("%w: presign download", ErrInternal)
	}
	return url, nil
}

// ListByUser returns the user's purchase history.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ResourcePurchase, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
