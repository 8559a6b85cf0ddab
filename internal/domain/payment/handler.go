package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v81"
	stripeWebhook "github.com/stripe/stripe-go/v81/webhook"

	"github.com/petit-ilot/petit-ilot-api/internal/domain/user"
	"github.com/petit-ilot/petit-ilot-api/internal/middleware"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/response"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/validator"
)

const maxWebhookBody = 64 << 10

// Handler handles payment HTTP requests
type Handler struct {
	svc           *Service
	userRepo      *user.Repository
	webhookSecret string
}

func NewHandler(svc *Service, userRepo *user.Repository, webhookSecret string) *Handler {
	return &Handler{svc: svc, userRepo: userRepo, webhookSecret: webhookSecret}
}

type packView struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Credits          int       `json:"credits"`
	BonusFreeCredits int       `json:"bonus_free_credits"`
	PriceCents       int       `json:"price_cents"`
	Currency         string    `json:"currency"`
}

type checkoutRequest struct {
	PackID uuid.UUID `json:"pack_id" validate:"required"`
}

type checkoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// ListPacks handles GET /payments/packs
func (h *Handler) ListPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := h.svc.ListPacks(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	views := make([]packView, 0, len(packs))
	for _, p := range packs {
		views = append(views, packView{
			ID:               p.ID,
			Name:             p.Name,
			Credits:          p.Credits,
			BonusFreeCredits: p.BonusFreeCredits,
			PriceCents:       p.PriceCents,
			Currency:         p.Currency,
		})
	}
	response.OK(w, views)
}

// Checkout handles POST /payments/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	u, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	url, err := h.svc.Checkout(r.Context(), userID, req.PackID, u.Email)
	if err != nil {
		if errors.Is(err, ErrPackNotFound) {
			response.NotFound(w, "credit pack not found")
			return
		}
		log.Error().Err(err).
			Str("user_id", userID.String()).
			Str("pack_id", req.PackID.String()).
			Msg("checkout failed")
		response.InternalError(w)
		return
	}

	response.OK(w, checkoutResponse{CheckoutURL: url})
}

// StripeWebhook handles POST /webhooks/stripe. Signature failures are 400;
// processing failures are 500 so Stripe retries; duplicate deliveries are
// acknowledged without re-granting.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "unreadable body")
		return
	}

	event, err := stripeWebhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret, stripeWebhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		response.BadRequest(w, "invalid signature")
		return
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			response.BadRequest(w, "invalid event payload")
			return
		}

		paymentID, err := uuid.Parse(sess.ClientReferenceID)
		if err != nil {
			log.Warn().Str("client_reference_id", sess.ClientReferenceID).Msg("webhook with unknown reference")
			break
		}

		if err := h.svc.ConfirmCheckoutSession(r.Context(), paymentID, sess.ID); err != nil {
			if errors.Is(err, ErrAlreadyCompleted) || errors.Is(err, ErrPaymentNotFound) {
				break
			}
			log.Error().Err(err).Str("payment_id", paymentID.String()).Msg("payment confirmation failed")
			response.InternalError(w)
			return
		}
	}

	response.OK(w, map[string]bool{"received": true})
}

// Routes returns payment routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/packs", h.ListPacks)
	r.With(authMiddleware).Post("/checkout", h.Checkout)
	return r
}
