package vehicles

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/garagehub/garagehub/internal/platform/httpx"
)

// Handler exposes the plate lookup endpoint.
type Handler struct {
	logger   *slog.Logger
	provider Provider
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, provider Provider) *Handler {
	return &Handler{logger: logger, provider: provider}
}

// MountRoutes registers vehicle routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/vehicles/lookup", h.lookup)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	plate := r.URL.Query().Get("plate")
	if plate == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "plate is required")
		return
	}
	info, err := h.provider.Lookup(r.Context(), plate)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, info)
	case errors.Is(err, ErrInvalidPlate):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "plate is not a valid format")
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no vehicle found for this plate")
	default:
		h.logger.Error("vehicle lookup", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
