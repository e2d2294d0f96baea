package shipping

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	table      Table
	hasDefault bool
	loadErr    error
	saved      *Table
}

func (m *mockRepo) LoadTable(ctx context.Context) (Table, bool, error) {
	if m.loadErr != nil {
		return Table{}, false, m.loadErr
	}
	return m.table, m.hasDefault, nil
}

func (m *mockRepo) SaveTable(ctx context.Context, table Table) error {
	m.saved = &table
	m.table = table
	m.hasDefault = true
	return nil
}

func TestServiceTableFallsBackOnError(t *testing.T) {
	svc := NewService(&mockRepo{loadErr: errors.New("connection refused")}, 0, nil, nil)

	table := svc.Table(context.Background())
	assert.Equal(t, FallbackDefaultFee, table.DefaultShippingFee)
	assert.Len(t, table.Fees, 24)

	q := svc.Quote(context.Background(), Address{InCity: true, District: "Quận 1"})
	assert.Equal(t, int64(25000), q.Fee)

	_, err := svc.AdminTable(context.Background())
	assert.Error(t, err)
}

func TestServiceTableUsesConfiguredDefault(t *testing.T) {
	repo := &mockRepo{table: Table{Fees: map[string]int64{"Quận 7": 32000}}}
	svc := NewService(repo, 55000, nil, nil)

	table := svc.Table(context.Background())
	assert.Equal(t, int64(55000), table.DefaultShippingFee)

	repo.table.DefaultShippingFee = 0
	repo.hasDefault = true
	table = svc.Table(context.Background())
	assert.Zero(t, table.DefaultShippingFee, "stored free shipping is kept")
}

func TestHandlerRoundTrip(t *testing.T) {
	repo := &mockRepo{}
	h := NewHandler(nil, NewService(repo, 0, nil, nil))
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	r.Route("/api/admin", h.MountAdminRoutes)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/shipping-fees", strings.NewReader(`{"fees":{"quận 1":25000},"defaultShippingFee":45000}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.saved)
	assert.Equal(t, int64(25000), repo.saved.Fees["Quận 1"])

	req = httptest.NewRequest(http.MethodGet, "/api/shipping-fees", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"fees":{"Quận 1":25000},"defaultShippingFee":45000}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPut, "/api/admin/shipping-fees", strings.NewReader(`{"fees":{"Quận 1":-1}}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/admin/shipping-fees", strings.NewReader(`{"fees":{"Hải Phòng":10000}}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/shipping-fees/districts", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cần Giờ")
}
