package purchase

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/petit-ilot/petit-ilot-api/internal/domain/credit"
	"github.com/petit-ilot/petit-ilot-api/internal/domain/resource"
	"github.com/petit-ilot/petit-ilot-api/internal/middleware"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/response"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/validator"
)

// Handler handles purchase HTTP requests
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type purchaseRequest struct {
	ResourceID uuid.UUID `json:"resource_id" validate:"required"`
}

type purchaseResponse struct {
	ResourceID       uuid.UUID `json:"resource_id"`
	AlreadyOwned     bool      `json:"already_owned"`
	PriceCredits     int       `json:"price_credits"`
	FreeCreditsSpent int       `json:"free_credits_spent"`
	PaidCreditsSpent int       `json:"paid_credits_spent"`
	FreeCredits      int       `json:"free_credits"`
	PaidCredits      int       `json:"paid_credits"`
	TotalCredits     int       `json:"total_credits"`
}

type purchaseView struct {
	ID               uuid.UUID `json:"id"`
	ResourceID       uuid.UUID `json:"resource_id"`
	PriceCredits     int       `json:"price_credits"`
	FreeCreditsSpent int       `json:"free_credits_spent"`
	PaidCreditsSpent int       `json:"paid_credits_spent"`
	CreatedAt        time.Time `json:"created_at"`
}

type downloadResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

// Purchase handles POST /purchases
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.svc.Purchase(r.Context(), userID, req.ResourceID)
	if err != nil {
		switch {
		case errors.Is(err, resource.ErrNotFound):
			response.NotFound(w, "resource not found")
		case errors.Is(err, credit.ErrInsufficientCredits):
			response.PaymentRequired(w, "insufficient credits")
		case errors.Is(err, credit.ErrUserNotFound):
			response.NotFound(w, "account not found")
		default:
			log.Error().Err(err).
				Str("user_id", userID.String()).
				Str("resource_id", req.ResourceID.String()).
				Msg("purchase failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, purchaseResponse{
		ResourceID:       result.ResourceID,
		AlreadyOwned:     result.AlreadyOwned,
		PriceCredits:     result.PriceCredits,
		FreeCreditsSpent: result.FreeCreditsSpent,
		PaidCreditsSpent: result.PaidCreditsSpent,
		FreeCredits:      result.Balances.Free,
		PaidCredits:      result.Balances.Paid,
		TotalCredits:     result.Balances.Total(),
	})
}

// List handles GET /purchases
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	purchases, err := h.svc.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	views := make([]purchaseView, 0, len(purchases))
	for _, p := range purchases {
		views = append(views, purchaseView{
			ID:               p.ID,
			ResourceID:       p.ResourceID,
			PriceCredits:     p.PriceCredits,
			FreeCreditsSpent: p.FreeCreditsSpent,
			PaidCreditsSpent: p.PaidCreditsSpent,
			CreatedAt:        p.CreatedAt,
		})
	}
	response.OK(w, views)
}

// Download handles GET /resources/{id}/download
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	resourceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid resource ID")
		return
	}

	url, err := h.svc.DownloadURL(r.Context(), userID, resourceID)
	if err != nil {
		switch {
		case errors.Is(err, resource.ErrNotFound):
			response.NotFound(w, "resource not found")
		case errors.Is(err, ErrNotPurchased):
			response.Forbidden(w, "resource not purchased")
		default:
			log.Error().Err(err).
				Str("user_id", userID.String()).
				Str("resource_id", resourceID.String()).
				Msg("download URL failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, downloadResponse{URL: url, ExpiresIn: int(downloadURLTTL.Seconds())})
}

// Routes returns purchase routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Purchase)
	r.Get("/", h.List)
	return r
}
