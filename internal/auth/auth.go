// Package auth guards the admin API with a single shop-owner credential.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/hoamai/storefront/internal/platform/httpx"
	"github.com/hoamai/storefront/internal/shared"
)

// ErrInvalidCredentials is returned when the admin login does not match.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", httpx.ErrUnauthorized)

const realm = `Basic realm="storefront-admin", charset="UTF-8"`

// Guard authenticates admin requests with HTTP basic auth.
type Guard struct {
	user   string
	hash   []byte
	logger *slog.Logger
}

// NewGuard builds a Guard from the admin user name and its bcrypt hash.
func NewGuard(user, passwordHash string, logger *slog.Logger) (*Guard, error) {
	if user == "" {
		return nil, errors.New("auth: admin user must be provided")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("auth: admin password hash: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{user: user, hash: []byte(passwordHash), logger: logger}, nil
}

// HashPassword returns the bcrypt hash to configure for the admin.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate validates a user name and password.
func (g *Guard) Authenticate(user, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(g.user)) == 1
	// The hash is compared even on a user mismatch to keep timing flat.
	passErr := bcrypt.CompareHashAndPassword(g.hash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Middleware rejects requests without valid credentials and stores the admin
// name in the request context.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", realm)
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		if err := g.Authenticate(user, password); err != nil {
			g.logger.Warn("admin login rejected", slog.String("user", user), slog.String("remote", r.RemoteAddr))
			w.Header().Set("WWW-Authenticate", realm)
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), user)))
	})
}
