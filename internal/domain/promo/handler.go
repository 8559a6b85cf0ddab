package promo

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/petit-ilot/petit-ilot-api/internal/middleware"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/response"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/validator"
)

// Handler handles promo code HTTP requests
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Redeem handles POST /promo-codes/redeem.
//
// Invalid, expired and exhausted codes all map to the same client message so
// the response does not leak which codes exist. The real reason goes to the
// log.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.BadRequest(w, "invalid or expired code")
		return
	}

	credits, err := h.svc.Redeem(r.Context(), userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCode), errors.Is(err, ErrExpiredCode), errors.Is(err, ErrUsesExhausted):
			log.Info().
				Err(err).
				Str("user_id", userID.String()).
				Str("code", req.Code).
				Msg("promo redemption rejected")
			response.BadRequest(w, "invalid or expired code")
		case errors.Is(err, ErrAlreadyRedeemed):
			response.Conflict(w, "code already redeemed")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("promo redemption failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, redeemResponse{CreditsAdded: credits})
}

// AdminCreate handles POST /admin/promo-codes
func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	p, err := h.svc.Create(r.Context(), CreateInput{
		Code:                 req.Code,
		FreeCredits:          req.FreeCredits,
		MaxUses:              req.MaxUses,
		ExpiresAt:            req.ExpiresAt,
		AllowMultiplePerUser: req.AllowMultiplePerUser,
		IsActive:             isActive,
	})
	if err != nil {
		if errors.Is(err, ErrCodeExists) {
			response.Conflict(w, "promo code already exists")
			return
		}
		log.Error().Err(err).Str("code", req.Code).Msg("promo code create failed")
		response.InternalError(w)
		return
	}

	response.Created(w, toView(p))
}

// AdminUpdate handles PUT /admin/promo-codes/{id}
func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid promo code ID")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	p, err := h.svc.Update(r.Context(), id, UpdateInput{
		FreeCredits:          req.FreeCredits,
		MaxUses:              req.MaxUses,
		ExpiresAt:            req.ExpiresAt,
		AllowMultiplePerUser: req.AllowMultiplePerUser,
		IsActive:             req.IsActive,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "promo code not found")
			return
		}
		log.Error().Err(err).Str("promo_id", id.String()).Msg("promo code update failed")
		response.InternalError(w)
		return
	}

	response.OK(w, toView(p))
}

// AdminDelete handles DELETE /admin/promo-codes/{id}
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid promo code ID")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "promo code not found")
			return
		}
		log.Error().Err(err).Str("promo_id", id.String()).Msg("promo code delete failed")
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

// AdminList handles GET /admin/promo-codes
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	codes, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	views := make([]promoCodeView, 0, len(codes))
	for i := range codes {
		views = append(views, toView(&codes[i]))
	}

	response.OK(w, views)
}

// Routes returns user-facing promo routes. The rate limiter slows down
// code guessing.
func (h *Handler) Routes(authMiddleware, rateLimitMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.With(rateLimitMiddleware).Post("/redeem", h.Redeem)
	return r
}

// AdminRoutes returns admin promo management routes
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Get("/", h.AdminList)
	r.Post("/", h.AdminCreate)
	r.Put("/{id}", h.AdminUpdate)
	r.Delete("/{id}", h.AdminDelete)
	return r
}
