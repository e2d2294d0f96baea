package checkout

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hoamai/storefront/internal/platform/httpx"
)

const (
	idempotencyScope = "orders"
	// releaseTimeout bounds the key release that runs after the request
	// context may already be cancelled.
	releaseTimeout = 5 * time.Second
)

// IdempotencyStore guards order submission against client retries.
type IdempotencyStore interface {
	Claim(ctx context.Context, scope, key string) error
	Release(ctx context.Context, scope, key string) error
}

// Handler exposes checkout and order endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency IdempotencyStore
}

// NewHandler builds a Handler. idempotency may be nil.
func NewHandler(logger *slog.Logger, service *Service, idempotency IdempotencyStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, idempotency: idempotency}
}

// MountRoutes registers storefront routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/checkout/quote", h.quote)
	r.Post("/orders", h.submit)
}

// MountAdminRoutes registers admin routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/status", h.updateStatus)
	r.Get("/coupons", h.listCoupons)
	r.Put("/coupons", h.replaceCoupons)
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Quote(r.Context(), req)
	if err != nil {
		h.fail(w, "quote", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.Claim(r.Context(), idempotencyScope, key); err != nil {
			h.fail(w, "claim idempotency key", err)
			return
		}
	}
	order, err := h.service.Submit(r.Context(), req)
	if err != nil {
		if key != "" && h.idempotency != nil {
			h.release(r.Context(), key)
		}
		h.fail(w, "submit order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

// release frees a key after a failed submission. It detaches from the
// request so a client disconnect does not leave the key claimed with no order.
func (h *Handler) release(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := h.idempotency.Release(ctx, idempotencyScope, key); err != nil {
		h.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", err))
	}
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	page, err := h.service.ListOrders(r.Context(), status, httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "perPage", 20))
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.fail(w, "update order status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

type couponsPayload struct {
	Coupons []Coupon `json:"coupons"`
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.Coupons(r.Context())
	if err != nil {
		h.fail(w, "list coupons", err)
		return
	}
	httpx.JSON(w, http.StatusOK, couponsPayload{Coupons: coupons})
}

func (h *Handler) replaceCoupons(w http.ResponseWriter, r *http.Request) {
	var req couponsPayload
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	coupons, err := h.service.ReplaceCoupons(r.Context(), req.Coupons)
	if err != nil {
		h.fail(w, "replace coupons", err)
		return
	}
	httpx.JSON(w, http.StatusOK, couponsPayload{Coupons: coupons})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
