package bonus

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/petit-ilot/petit-ilot-api/internal/pkg/response"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/validator"
)

// Handler handles bonus configuration HTTP requests (admin)
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type configView struct {
	RegistrationEnabled     bool      `json:"registration_enabled"`
	RegistrationFreeCredits int       `json:"registration_free_credits"`
	UpdatedAt               time.Time `json:"updated_at"`
}

type updateRequest struct {
	RegistrationEnabled     bool `json:"registration_enabled"`
	RegistrationFreeCredits int  `json:"registration_free_credits" validate:"gte=0,lte=1000"`
}

// Get handles GET /admin/bonus-config
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.repo.GetRegistration(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, configView{
		RegistrationEnabled:     cfg.Enabled,
		RegistrationFreeCredits: cfg.FreeCredits,
		UpdatedAt:               cfg.UpdatedAt,
	})
}

// Update handles PUT /admin/bonus-config
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	cfg, err := h.repo.UpdateRegistration(r.Context(), req.RegistrationEnabled, req.RegistrationFreeCredits)
	if err != nil {
		log.Error().Err(err).Msg("bonus config update failed")
		response.InternalError(w)
		return
	}
	response.OK(w, configView{
		RegistrationEnabled:     cfg.Enabled,
		RegistrationFreeCredits: cfg.FreeCredits,
		UpdatedAt:               cfg.UpdatedAt,
	})
}

// AdminRoutes returns bonus configuration routes
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Get("/", h.Get)
	r.Put("/", h.Update)
	return r
}
