package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoamai/storefront/internal/auth"
	"github.com/hoamai/storefront/internal/shared"
)

func newGuard(t *testing.T) *auth.Guard {
	t.Helper()
	hash, err := auth.HashPassword("hoa-tuoi-2026")
	require.NoError(t, err)
	guard, err := auth.NewGuard("owner", hash, nil)
	require.NoError(t, err)
	return guard
}

func TestNewGuardRejectsBadConfig(t *testing.T) {
	_, err := auth.NewGuard("", "x", nil)
	assert.Error(t, err)
	_, err = auth.NewGuard("owner", "not-a-hash", nil)
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	guard := newGuard(t)
	assert.NoError(t, guard.Authenticate("owner", "hoa-tuoi-2026"))
	assert.ErrorIs(t, guard.Authenticate("owner", "wrong"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, guard.Authenticate("intruder", "hoa-tuoi-2026"), auth.ErrInvalidCredentials)
}

func TestMiddleware(t *testing.T) {
	guard := newGuard(t)
	var actor string
	h := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = shared.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.SetBasicAuth("owner", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.SetBasicAuth("owner", "hoa-tuoi-2026")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "owner", actor)
}
