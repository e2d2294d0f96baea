package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hoamai/storefront/internal/platform/httpx"
)

// Handler exposes catalog endpoints.
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

// MountRoutes registers storefront routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{name}", h.showSection)
	r.Get("/products/{id}", h.showProduct)
}

// MountAdminRoutes registers admin routes. Callers wrap them with auth.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/products", h.adminListProducts)
	r.Get("/products/uncategorized", h.adminUncategorized)
	r.Post("/products", h.adminCreateProduct)
	r.Put("/products/{id}", h.adminUpdateProduct)
	r.Delete("/products/{id}", h.adminDeleteProduct)

	r.Get("/categories", h.adminListCategories)
	r.Post("/categories", h.adminCreateCategory)
	r.Put("/categories/{name}", h.adminUpdateCategory)
	r.Post("/categories/{name}/rename", h.adminRenameCategory)
	r.Delete("/categories/{name}", h.adminDeleteCategory)
}

type sectionItem struct {
	Product ProductDocument `json:"product"`
	Visible Visibility      `json:"visible"`
}

type sectionResponse struct {
	Category    string           `json:"category"`
	Settings    CategorySettings `json:"settings"`
	Items       []sectionItem    `json:"items"`
	Total       int              `json:"total"`
	Page        int              `json:"page"`
	TotalPages  int              `json:"totalPages,omitempty"`
	HasMore     bool             `json:"hasMore"`
	NextPage    int              `json:"nextPage,omitempty"`
	Breakpoints Breakpoints      `json:"breakpoints"`
}

func newSectionResponse(plan Plan) sectionResponse {
	resp := sectionResponse{
		Category:    plan.Category,
		Settings:    plan.Settings,
		Items:       make([]sectionItem, 0, len(plan.Products)),
		Total:       plan.Total,
		Page:        plan.Page,
		TotalPages:  plan.TotalPages,
		HasMore:     plan.HasMore,
		Breakpoints: plan.Breakpoints,
	}
	for i, p := range plan.Products {
		resp.Items = append(resp.Items, sectionItem{Product: p.Document(), Visible: plan.VisibleAt(i)})
	}
	if plan.HasMore {
		resp.NextPage = plan.Page + 1
	}
	return resp
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.Categories(r.Context())
	if err != nil {
		h.fail(w, "list categories", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": views})
}

func (h *Handler) showSection(w http.ResponseWriter, r *http.Request) {
	page := httpx.QueryInt(r, "page", 1)
	plan, err := h.service.Section(r.Context(), chi.URLParam(r, "name"), page)
	if err != nil {
		h.fail(w, "plan section", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newSectionResponse(plan))
}

func (h *Handler) showProduct(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "show product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"product":          view.Document(),
		"visibleVariants":  view.VisibleVariants,
		"defaultVariantId": view.DefaultVariantID,
	})
}

func (h *Handler) adminListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": documents(products)})
}

func (h *Handler) adminUncategorized(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Uncategorized(r.Context())
	if err != nil {
		h.fail(w, "list uncategorized", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": documents(products)})
}

func (h *Handler) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var doc ProductDocument
	if err := httpx.DecodeJSON(r, &doc); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), doc)
	if err != nil {
		h.fail(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p.Document())
}

func (h *Handler) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var doc ProductDocument
	if err := httpx.DecodeJSON(r, &doc); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), doc)
	if err != nil {
		h.fail(w, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p.Document())
}

func (h *Handler) adminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryRequest struct {
	Name     string           `json:"name"`
	Settings CategorySettings `json:"settings"`
}

func (h *Handler) adminListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.AdminCategories(r.Context())
	if err != nil {
		h.fail(w, "list admin categories", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (h *Handler) adminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ValidateSettings(req.Settings); err != nil {
		httpx.RespondError(w, err)
		return
	}
	cats, err := h.service.AddCategory(r.Context(), req.Name, req.Settings)
	if err != nil {
		h.fail(w, "create category", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"categories": cats})
}

func (h *Handler) adminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ValidateSettings(req.Settings); err != nil {
		httpx.RespondError(w, err)
		return
	}
	cats, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "name"), req.Settings)
	if err != nil {
		h.fail(w, "update category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (h *Handler) adminRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	cats, err := h.service.RenameCategory(r.Context(), chi.URLParam(r, "name"), req.Name)
	if err != nil {
		h.fail(w, "rename category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (h *Handler) adminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.fail(w, "delete category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}

func documents(products []Product) []ProductDocument {
	docs := make([]ProductDocument, 0, len(products))
	for _, p := range products {
		docs = append(docs, p.Document())
	}
	return docs
}
