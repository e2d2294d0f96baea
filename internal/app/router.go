package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/hoamai/storefront/internal/audit"
	"github.com/hoamai/storefront/internal/catalog"
	"github.com/hoamai/storefront/internal/checkout"
	"github.com/hoamai/storefront/internal/observability"
	"github.com/hoamai/storefront/internal/platform/httpx"
	"github.com/hoamai/storefront/internal/shipping"
	"github.com/hoamai/storefront/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	CatalogHandler  *catalog.Handler
	ShippingHandler *shipping.Handler
	CheckoutHandler *checkout.Handler
	AuditHandler    *audit.Handler
	JobHandler      *jobs.Handler
	// AdminAuth guards every /api/admin route.
	AdminAuth func(http.Handler) http.Handler
	Metrics   *observability.Metrics
	// Readiness lists the dependencies /readyz pings, keyed by name.
	Readiness map[string]Check
}

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

const readinessTimeout = 2 * time.Second

// NewRouter constructs the chi.Router with storefront defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported here")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/readyz", readyz(params.Readiness))

	r.Route("/api", func(r chi.Router) {
		if params.CatalogHandler != nil {
			r.Route("/catalog", params.CatalogHandler.MountRoutes)
		}
		if params.ShippingHandler != nil {
			params.ShippingHandler.MountRoutes(r)
		}
		if params.CheckoutHandler != nil {
			params.CheckoutHandler.MountRoutes(r)
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(httprate.LimitByIP(60, time.Minute))
			if params.AdminAuth != nil {
				r.Use(params.AdminAuth)
			} else {
				r.Use(denyAll)
			}
			if params.CatalogHandler != nil {
				r.Route("/catalog", params.CatalogHandler.MountAdminRoutes)
			}
			if params.ShippingHandler != nil {
				params.ShippingHandler.MountAdminRoutes(r)
			}
			if params.CheckoutHandler != nil {
				params.CheckoutHandler.MountAdminRoutes(r)
			}
			if params.AuditHandler != nil {
				params.AuditHandler.MountAdminRoutes(r)
			}
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin access is not configured")
	})
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// readyz pings every dependency concurrently and answers 503 if any fails.
func readyz(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		type outcome struct {
			name string
			err  error
		}
		results := make(chan outcome, len(checks))
		for name, check := range checks {
			go func() {
				results <- outcome{name: name, err: check(ctx)}
			}()
		}

		body := readiness{Status: "ready", Checks: make(map[string]string, len(checks))}
		for range checks {
			res := <-results
			body.Checks[res.name] = "ok"
			if res.err != nil {
				body.Status = "unavailable"
				body.Checks[res.name] = res.err.Error()
			}
		}
		code := http.StatusOK
		if body.Status != "ready" {
			code = http.StatusServiceUnavailable
		}
		httpx.JSON(w, code, body)
	}
}
