package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, repo *memRepo) http.Handler {
	t.Helper()
	svc, _ := newTestService(t, repo)
	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/api/catalog", h.MountRoutes)
	r.Route("/api/admin/catalog", h.MountAdminRoutes)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerShowSectionLoadMore(t *testing.T) {
	repo := newMemRepo(makeProducts(20, "Hoa Hồng")...)
	repo.categories = NewCategories(map[string]CategorySettings{"Hoa Hồng": {ItemsPerPage: 8}})
	router := newTestRouter(t, repo)

	rec := doRequest(t, router, http.MethodGet, "/api/catalog/categories/hoa-hong?page=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hoa-hong", resp.Category)
	assert.Equal(t, 20, resp.Total)
	assert.Len(t, resp.Items, 9)
	assert.True(t, resp.HasMore)
	assert.Equal(t, 2, resp.NextPage)
	assert.Equal(t, Visibility{Tablet: true}, resp.Items[8].Visible)
	assert.Equal(t, "hoa-hong", resp.Items[0].Product.Category)
}

func TestHandlerShowSectionHiddenIsNotFound(t *testing.T) {
	repo := newMemRepo(makeProducts(3, "bí mật")...)
	repo.categories = NewCategories(map[string]CategorySettings{"Bí mật": {IsHidden: true}})
	router := newTestRouter(t, repo)

	rec := doRequest(t, router, http.MethodGet, "/api/catalog/categories/bi-mat", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestHandlerListCategoriesAndProduct(t *testing.T) {
	repo := newMemRepo(Product{ID: "p1", Title: "Lan", Categories: NewCategorySet("Lan"), Variants: []Variant{{ID: "v1", Name: "Trắng"}}})
	repo.categories = NewCategories(map[string]CategorySettings{"Lan": {}})
	router := newTestRouter(t, repo)

	rec := doRequest(t, router, http.MethodGet, "/api/catalog/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cats struct {
		Categories []CategoryView `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cats))
	require.Len(t, cats.Categories, 1)
	assert.Equal(t, 1, cats.Categories[0].ProductCount)

	rec = doRequest(t, router, http.MethodGet, "/api/catalog/products/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"defaultVariantId":"v1"`)

	rec = doRequest(t, router, http.MethodGet, "/api/catalog/products/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerAdminProductLifecycle(t *testing.T) {
	repo := newMemRepo()
	router := newTestRouter(t, repo)

	rec := doRequest(t, router, http.MethodPost, "/api/admin/catalog/products", `{"title":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"errors":{"title"`)

	rec = doRequest(t, router, http.MethodPost, "/api/admin/catalog/products", `{"id":"bo-1","title":"Bó hồng","salePrice":350000,"category":"Hoa Hồng","legacyField":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Bó hồng", repo.products["bo-1"].Title)

	rec = doRequest(t, router, http.MethodPut, "/api/admin/catalog/products/bo-1", `{"title":"Bó hồng đỏ","salePrice":380000,"category":"Hoa Hồng"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(380000), repo.products["bo-1"].SalePrice)

	rec = doRequest(t, router, http.MethodGet, "/api/admin/catalog/products/uncategorized", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bo-1")

	rec = doRequest(t, router, http.MethodDelete, "/api/admin/catalog/products/bo-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err := repo.GetProduct(context.Background(), "bo-1")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestHandlerAdminCategoryLifecycle(t *testing.T) {
	repo := newMemRepo(Product{ID: "1", Categories: NewCategorySet("Sinh nhật")})
	router := newTestRouter(t, repo)

	rec := doRequest(t, router, http.MethodPost, "/api/admin/catalog/categories", `{"name":"Sinh nhật","settings":{"itemsPerPage":6,"paginationType":"infinite"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/admin/catalog/categories", `{"name":"sinh nhat"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/api/admin/catalog/categories/sinh-nhat", `{"settings":{"paginationType":"slider"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/admin/catalog/categories/sinh-nhat/rename", `{"name":"Mừng Sinh Nhật"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, repo.products["1"].Categories.Has("mung-sinh-nhat"))

	rec = doRequest(t, router, http.MethodDelete, "/api/admin/catalog/categories/mung-sinh-nhat", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, repo.categories.Len())

	rec = doRequest(t, router, http.MethodDelete, "/api/admin/catalog/categories/mung-sinh-nhat", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
