package credit

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/petit-ilot/petit-ilot-api/internal/middleware"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/response"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/validator"
)

// Handler handles credit HTTP requests
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type balanceResponse struct {
	FreeCredits  int `json:"free_credits"`
	PaidCredits  int `json:"paid_credits"`
	TotalCredits int `json:"total_credits"`
}

type transactionView struct {
	ID            uuid.UUID `json:"id"`
	CreditsAmount int       `json:"credits_amount"`
	TxType        string    `json:"tx_type"`
	CreditType    string    `json:"credit_type"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

type adminTransactionView struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	CreditsAmount     int       `json:"credits_amount"`
	TxType            string    `json:"tx_type"`
	CreditType        string    `json:"credit_type"`
	RelatedEntityType *string   `json:"related_entity_type,omitempty"`
	RelatedEntityID   *string   `json:"related_entity_id,omitempty"`
	Description       string    `json:"description"`
	CreatedAt         time.Time `json:"created_at"`
}

type adminGrantRequest struct {
	UserID      uuid.UUID `json:"user_id" validate:"required"`
	FreeCredits int       `json:"free_credits" validate:"gte=0"`
	PaidCredits int       `json:"paid_credits" validate:"gte=0"`
	Reason      string    `json:"reason" validate:"required,max=500"`
}

// Balance handles GET /credits/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	balances, err := h.svc.Balances(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, "account not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, balanceResponse{
		FreeCredits:  balances.Free,
		PaidCredits:  balances.Paid,
		TotalCredits: balances.Total(),
	})
}

// Transactions handles GET /credits/transactions
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	transactions, err := h.svc.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	views := make([]transactionView, 0, len(transactions))
	for _, tx := range transactions {
		views = append(views, transactionView{
			ID:            tx.ID,
			CreditsAmount: tx.CreditsAmount,
			TxType:        string(tx.TxType),
			CreditType:    string(tx.CreditType),
			Description:   tx.Description,
			CreatedAt:     tx.CreatedAt,
		})
	}

	response.OK(w, views)
}

// AdminGrant handles POST /admin/credits/grant
func (h *Handler) AdminGrant(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	if adminID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req adminGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	balances, err := h.svc.AdminGrant(r.Context(), adminID, req.UserID, req.FreeCredits, req.PaidCredits, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "at least one of free_credits/paid_credits must be positive")
		case errors.Is(err, ErrUserNotFound):
			response.NotFound(w, "user not found")
		default:
			log.Error().Err(err).Str("user_id", req.UserID.String()).Msg("admin grant failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, balanceResponse{
		FreeCredits:  balances.Free,
		PaidCredits:  balances.Paid,
		TotalCredits: balances.Total(),
	})
}

// AdminSearch handles GET /admin/credits/transactions
func (h *Handler) AdminSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := SearchFilters{}
	if v := q.Get("user_id"); v != "" {
		filters.UserID = &v
	}
	if v := q.Get("tx_type"); v != "" {
		filters.TxType = &v
	}
	if v := q.Get("credit_type"); v != "" {
		filters.CreditType = &v
	}
	if v := q.Get("from"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filters.DateFrom = &ts
		}
	}
	if v := q.Get("to"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filters.DateTo = &ts
		}
	}
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	filters.Offset, _ = strconv.Atoi(q.Get("offset"))

	transactions, err := h.svc.SearchTransactions(r.Context(), filters)
	if err != nil {
		response.InternalError(w)
		return
	}

	views := make([]adminTransactionView, 0, len(transactions))
	for _, tx := range transactions {
		views = append(views, adminTransactionView{
			ID:                tx.ID,
			UserID:            tx.UserID,
			CreditsAmount:     tx.CreditsAmount,
			TxType:            string(tx.TxType),
			CreditType:        string(tx.CreditType),
			RelatedEntityType: tx.RelatedEntityType,
			RelatedEntityID:   tx.RelatedEntityID,
			Description:       tx.Description,
			CreatedAt:         tx.CreatedAt,
		})
	}

	response.OK(w, views)
}

// Routes returns user-facing credit routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/balance", h.Balance)
	r.Get("/transactions", h.Transactions)
	return r
}

// AdminRoutes returns admin credit routes
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Post("/grant", h.AdminGrant)
	r.Get("/transactions", h.AdminSearch)
	return r
}
