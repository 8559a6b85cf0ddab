package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v81"
	stripeCheckout "github.com/stripe/stripe-go/v81/checkout/session"

	"github.com/petit-ilot/petit-ilot-api/internal/domain/credit"
)

// Service handles credit pack checkout and payment confirmation.
type Service struct {
	repo        *Repository
	creditRepo  *credit.Repository
	frontendURL string
	currency    string
}

func NewService(repo *Repository, creditRepo *credit.Repository, frontendURL, currency string) *Service {
	return &Service{repo: repo, creditRepo: creditRepo, frontendURL: frontendURL, currency: currency}
}

// ListPacks returns the active credit packs.
func (s *Service) ListPacks(ctx context.Context) ([]CreditPack, error) {
	return s.repo.ListActivePacks(ctx)
}

// Checkout creates a pending payment and a Stripe Checkout Session for the
// pack. The payment ID rides along as client_reference_id so the webhook can
// find its way back.
func (s *Service) Checkout(ctx context.Context, userID, packID uuid.UUID, userEmail string) (string, error) {
	pack, err := s.repo.GetPack(ctx, packID)
	if err != nil {
		return "", err
	}

	p := &Payment{
		ID:          uuid.New(),
		UserID:      userID,
		PackID:      pack.ID,
		AmountCents: pack.PriceCents,
		Currency:    s.currency,
	}
	if err := s.repo.CreatePending(ctx, p); err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(s.frontendURL + "/credits/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.frontendURL + "/credits"),
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(p.ID.String()),
		CustomerEmail:     stripe.String(userEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.currency),
					UnitAmount: stripe.Int64(int64(pack.PriceCents)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(pack.Name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}

	sess, err := stripeCheckout.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session", ErrInternal)
	}

	if err := s.repo.SetSessionID(ctx, p.ID, sess.ID); err != nil {
		return "", err
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("payment_id", p.ID.String()).
		Str("pack_id", pack.ID.String()).
		Msg("checkout session created")

	return sess.URL, nil
}

// ConfirmCheckoutSession completes a payment after the provider confirmed it
// and grants the pack's credits. Webhook redeliveries hit the status guard
// in CompleteTx and change nothing.
func (s *Service) ConfirmCheckoutSession(ctx context.Context, paymentID uuid.UUID, sessionID string) error {
	p, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if p.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}

	pack, err := s.repo.GetPack(ctx, p.PackID)
	if err != nil {
		return err
	}

	tx, err := s.creditRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.repo.CompleteTx(ctx, tx, p.ID, sessionID); err != nil {
		return err
	}

	entityType := "payment"
	entityID := p.ID.String()
	err = s.creditRepo.GrantTx(ctx, tx, p.UserID, pack.Credits, credit.CreditTypePaid, credit.TxTypePurchase, credit.TxMeta{
		RelatedEntityType: &entityType,
		RelatedEntityID:   &entityID,
		Description:       "credit pack " + pack.Name,
	})
	if err != nil {
		return err
	}

	// pack bonus lands in the free pool, same tx as the paid grant
	if pack.BonusFreeCredits > 0 {
		err = s.creditRepo.GrantTx(ctx, tx, p.UserID, pack.BonusFreeCredits, credit.CreditTypeFree, credit.TxTypePurchaseBonus, credit.TxMeta{
			RelatedEntityType: &entityType,
			RelatedEntityID:   &entityID,
			Description:       "bonus for credit pack " + pack.Name,
		})
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	log.Info().
		Str("payment_id", p.ID.String()).
		Str("user_id", p.UserID.String()).
		Int("credits", pack.Credits).
		Int("bonus_credits", pack.BonusFreeCredits).
		Msg("payment completed")

	return nil
}
