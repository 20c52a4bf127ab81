package stockimport

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/garagehub/garagehub/internal/platform/httpx"
	"github.com/garagehub/garagehub/internal/shared"
)

// invoices arrive as whole files; 5 MiB is far above any real NFe
const maxInvoiceBytes = 5 << 20

// Handler exposes invoice import endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers import routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/stock/import/parse", h.parse)
	r.Post("/stock/import/commit", h.commit)
	r.Get("/stock/entries", h.listEntries)
}

// parse accepts the raw invoice XML as the request body. The optional
// margin query parameter overrides the configured default markup.
func (h *Handler) parse(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxInvoiceBytes))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "could not read request body")
		return
	}

	margin := decimal.Zero
	if v := r.URL.Query().Get("margin"); v != "" {
		margin, err = decimal.NewFromString(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "margin is not a number")
			return
		}
	}

	preview, err := h.service.Parse(raw, margin)
	if err != nil {
		h.respondError(w, "parse invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	scope, _ := shared.ScopeFromContext(r.Context())
	var preview Preview
	if err := httpx.DecodeJSON(r, &preview); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Commit(r.Context(), scope, preview)
	if err != nil {
		h.respondError(w, "commit import", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

type entriesResponse struct {
	Items      []StockEntry      `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	scope, _ := shared.ScopeFromContext(r.Context())
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	entries, pag, err := h.service.ListEntries(r.Context(), scope, page, perPage)
	if err != nil {
		h.respondError(w, "list stock entries", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entriesResponse{Items: entries, Pagination: pag})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var parseErr *ParseError
	switch {
	case errors.As(err, &parseErr):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Invoice", parseErr.Reason)
	case errors.Is(err, ErrDuplicateImport):
		httpx.Problem(w, http.StatusConflict, "Conflict", "invoice was already imported")
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
