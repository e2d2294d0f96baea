package shipping

import (
	"context"
	"log/slog"

	"github.com/hoamai/storefront/internal/shared"
)

// Auditor records admin changes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service reads and updates the fee table.
type Service struct {
	repo       Repository
	audit      Auditor
	logger     *slog.Logger
	defaultFee int64
}

// NewService constructs the shipping service. defaultFee replaces the
// out-of-city fee when none is stored or the store is unreachable; zero or
// negative means FallbackDefaultFee.
func NewService(repo Repository, defaultFee int64, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultFee <= 0 {
		defaultFee = FallbackDefaultFee
	}
	return &Service{repo: repo, audit: audit, logger: logger, defaultFee: defaultFee}
}

// Table returns the fee table used for quoting. Storage failures degrade to
// the zone defaults so checkout is never blocked.
func (s *Service) Table(ctx context.Context) Table {
	table, hasDefault, err := s.repo.LoadTable(ctx)
	if err != nil {
		s.logger.Warn("shipping table unavailable, using fallback fees", slog.Any("error", err))
		fallback := DefaultTable()
		fallback.DefaultShippingFee = s.defaultFee
		return fallback
	}
	if !hasDefault {
		table.DefaultShippingFee = s.defaultFee
	}
	return table
}

// AdminTable returns the stored table, surfacing storage errors.
func (s *Service) AdminTable(ctx context.Context) (Table, error) {
	table, hasDefault, err := s.repo.LoadTable(ctx)
	if err != nil {
		return Table{}, err
	}
	if !hasDefault {
		table.DefaultShippingFee = s.defaultFee
	}
	return table, nil
}

// Quote resolves the fee for an address against the current table.
func (s *Service) Quote(ctx context.Context, addr Address) Quote {
	return Resolve(addr, s.Table(ctx))
}

// SaveTable replaces the stored table wholesale.
func (s *Service) SaveTable(ctx context.Context, table Table) (Table, error) {
	normalized, err := table.Normalize()
	if err != nil {
		return Table{}, err
	}
	if err := s.repo.SaveTable(ctx, normalized); err != nil {
		return Table{}, err
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			Action:   "shipping.save",
			Entity:   "shipping_fees",
			EntityID: "table",
			Meta: map[string]any{
				"districts":          len(normalized.Fees),
				"defaultShippingFee": normalized.DefaultShippingFee,
			},
		})
		if err != nil {
			s.logger.Warn("audit record", slog.String("action", "shipping.save"), slog.Any("error", err))
		}
	}
	return normalized, nil
}
