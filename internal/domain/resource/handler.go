package resource

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

// Handler handles resource catalog HTTP requests
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type resourceView struct {
	ID           uuid.UUID `json:"id"`
	CreatorID    uuid.UUID `json:"creator_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PriceCredits int       `json:"price_credits"`
	Locale       string    `json:"locale"`
	CreatedAt    time.Time `json:"created_at"`
}

func toView(r *Resource) resourceView {
	return resourceView{
		ID:           r.ID,
		CreatorID:    r.CreatorID,
		Title:        r.Title,
		Description:  r.Description,
		PriceCredits: r.PriceCredits,
		Locale:       r.Locale,
		CreatedAt:    r.CreatedAt,
	}
}

type createRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	PriceCredits int    `json:"price_credits" validate:"gte=0,lte=10000"`
	FileKey      string `json:"file_key" validate:"required,max=500"`
	Locale       string `json:"locale" validate:"required,locale"`
	IsPublished  bool   `json:"is_published"`
}

// List handles GET /resources
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	resources, err := h.repo.ListPublished(r.Context(), q.Get("locale"), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	views := make([]resourceView, 0, len(resources))
	for i := range resources {
		views = append(views, toView(&resources[i]))
	}
	response.OK(w, views)
}

// Get handles GET /resources/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid resource ID")
		return
	}

	res, err := h.repo.GetPublished(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "resource not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, toView(res))
}

// Create handles POST /resources (creator only).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID := middleware.GetUserID(r.Context())
	if creatorID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	res := &Resource{
		ID:           uuid.New(),
		CreatorID:    creatorID,
		Title:        req.Title,
		Description:  req.Description,
		PriceCredits: req.PriceCredits,
		FileKey:      req.FileKey,
		Locale:       req.Locale,
		IsPublished:  req.IsPublished,
	}
	if err := h.repo.Create(r.Context(), res); err != nil {
		log.Error().Err(err).Str("creator_id", creatorID.String()).Msg("resource create failed")
		response.InternalError(w)
		return
	}

	created, err := h.repo.GetByID(r.Context(), res.ID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.Created(w, toView(created))
}

// Routes returns resource catalog routes. Listing is public; creation is
// gated on the creator role.
func (h *Handler) Routes(authMiddleware, creatorMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(authMiddleware, creatorMiddleware).Post("/", h.Create)
	return r
}
