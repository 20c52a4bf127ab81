package services

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/garagehub/garagehub/internal/platform/httpx"
	"github.com/garagehub/garagehub/internal/shared"
)

// Handler exposes labor service endpoints.
type Handler struct {
	logger  *slog.Logger
	catalog *Catalog
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, catalog *Catalog) *Handler {
	return &Handler{logger: logger, catalog: catalog}
}

// MountRoutes registers service catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/services", h.list)
	r.Post("/services", h.create)
	r.Get("/services/{id}", h.get)
	r.Put("/services/{id}", h.update)
	r.Delete("/services/{id}", h.delete)
}

type serviceRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

type listResponse struct {
	Items      []Service         `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	scope, _ := shared.ScopeFromContext(r.Context())
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	items, pag, err := h.catalog.List(r.Context(), scope, q.Get("search"), page, perPage)
	if err != nil {
		h.logger.Error("list services", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: pag})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	scope, _ := shared.ScopeFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid service id")
		return
	}
	svc, err := h.catalog.Get(r.Context(), scope, id)
	if err != nil {
		h.respondError(w, "get service", err)
		return
	}
	httpx.JSON(w, http.StatusOK, svc)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	scope, _ := shared.ScopeFromContext(r.Context())
	var req serviceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	id, err := h.catalog.Create(r.Context(), scope, Input(req))
	if err != nil {
		h.respondError(w, "create service", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	scope, _ := shared.ScopeFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid service id")
		return
	}
	var req serviceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.catalog.Update(r.Context(), scope, id, Input(req)); err != nil {
		h.respondError(w, "update service", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	scope, _ := shared.ScopeFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid service id")
		return
	}
	if err := h.catalog.Delete(r.Context(), scope, id); err != nil {
		h.respondError(w, "delete service", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "service not found")
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
