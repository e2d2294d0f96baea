package shipping

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hoamai/storefront/internal/platform/httpx"
)

// Handler exposes the fee table.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers public routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/shipping-fees", h.getTable)
	r.Get("/shipping-fees/districts", h.listDistricts)
}

// MountAdminRoutes registers admin routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/shipping-fees", h.adminGetTable)
	r.Put("/shipping-fees", h.adminPutTable)
}

func (h *Handler) getTable(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Table(r.Context()))
}

func (h *Handler) listDistricts(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"districts": Districts()})
}

func (h *Handler) adminGetTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.AdminTable(r.Context())
	if err != nil {
		h.logger.Error("load shipping table", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, table)
}

func (h *Handler) adminPutTable(w http.ResponseWriter, r *http.Request) {
	var table Table
	if err := httpx.DecodeJSON(r, &table); err != nil {
		httpx.RespondError(w, err)
		return
	}
	saved, err := h.service.SaveTable(r.Context(), table)
	if err != nil {
		h.logger.Warn("save shipping table", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}
