package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hoamai/storefront/internal/shared"
)

// Auditor records admin changes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Snapshot is everything the storefront reads: all products and the category list.
type Snapshot struct {
	Products   []Product  `json:"products"`
	Categories Categories `json:"categories"`
}

// CategoryView is a navigation entry.
type CategoryView struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Settings     CategorySettings `json:"settings"`
	ProductCount int              `json:"productCount"`
}

// ProductView is a product detail with its selectable variants.
type ProductView struct {
	Product
	VisibleVariants  []Variant `json:"visibleVariants"`
	DefaultVariantID string    `json:"defaultVariantId,omitempty"`
}

// Service provides catalog reads for the storefront and edits for the admin.
type Service struct {
	repo     Repository
	cache    *Cache
	audit    Auditor
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs a catalog service. cache and audit may be nil.
func NewService(repo Repository, cache *Cache, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		audit:    audit,
		logger:   logger,
		validate: shared.NewValidator(),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Snapshot returns the cached catalog, loading it from the repository on miss.
// Cache failures fall back to a direct load.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	key, err := s.cache.BuildKey(ctx, snapshotKey)
	if err != nil {
		s.logger.Warn("catalog cache version", slog.Any("error", err))
		return s.loadSnapshot(ctx)
	}
	var (
		snap    Snapshot
		loadErr error
	)
	err = s.cache.FetchJSON(ctx, key, &snap, func(ctx context.Context) (any, error) {
		fresh, err := s.loadSnapshot(ctx)
		loadErr = err
		return fresh, err
	})
	if loadErr != nil {
		return Snapshot{}, loadErr
	}
	if err != nil {
		s.logger.Warn("catalog cache fetch", slog.Any("error", err))
		return s.loadSnapshot(ctx)
	}
	return snap, nil
}

func (s *Service) loadSnapshot(ctx context.Context) (Snapshot, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	categories, err := s.repo.LoadCategories(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Products: products, Categories: categories}, nil
}

// Categories lists the visible categories for navigation.
func (s *Service) Categories(ctx context.Context) ([]CategoryView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]CategoryView, 0, snap.Categories.Len())
	for _, id := range snap.Categories.IDs() {
		settings := snap.Categories.SettingsFor(id)
		if settings.IsHidden {
			continue
		}
		views = append(views, CategoryView{
			ID:           id,
			Name:         settings.DisplayName,
			Settings:     settings,
			ProductCount: len(Select(snap.Products, id)),
		})
	}
	return views, nil
}

// Section plans one category section at the given page. Categories without
// stored settings use the defaults; hidden categories are not found.
func (s *Service) Section(ctx context.Context, name string, page int) (Plan, error) {
	if shared.Slug(name) == "" {
		return Plan{}, ErrCategoryName
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Plan{}, err
	}
	settings := snap.Categories.SettingsFor(name)
	if settings.IsHidden {
		return Plan{}, ErrCategoryNotFound
	}
	return PlanSection(snap.Products, name, settings, page), nil
}

// Product returns a visible product with its selectable variants.
func (s *Service) Product(ctx context.Context, id string) (ProductView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return ProductView{}, err
	}
	for _, p := range snap.Products {
		if p.ID != id {
			continue
		}
		if p.IsHidden {
			break
		}
		view := ProductView{Product: p, VisibleVariants: p.VisibleVariants()}
		if v, ok := p.DefaultVariant(); ok {
			view.DefaultVariantID = v.ID
		}
		return view, nil
	}
	return ProductView{}, ErrProductNotFound
}

// LookupProduct returns any stored product, hidden ones included.
func (s *Service) LookupProduct(ctx context.Context, id string) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// Uncategorized lists products whose categories were all removed.
func (s *Service) Uncategorized(ctx context.Context) ([]Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.LoadCategories(ctx)
	if err != nil {
		return nil, err
	}
	return Uncategorized(products, categories), nil
}

// ListProducts returns every product for the admin console.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, doc ProductDocument) (Product, error) {
	if err := shared.ValidateStruct(s.validate, doc); err != nil {
		return Product{}, err
	}
	p := doc.Product()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.warnPricing(p)
	if err := s.repo.InsertProduct(ctx, p); err != nil {
		return Product{}, err
	}
	s.changed(ctx, "product.create", "product", p.ID, nil)
	return p, nil
}

// UpdateProduct replaces a stored product.
func (s *Service) UpdateProduct(ctx context.Context, id string, doc ProductDocument) (Product, error) {
	if err := shared.ValidateStruct(s.validate, doc); err != nil {
		return Product{}, err
	}
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p := doc.Product()
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	s.warnPricing(p)
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return Product{}, err
	}
	s.changed(ctx, "product.update", "product", p.ID, nil)
	return p, nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, "product.delete", "product", id, nil)
	return nil
}

// AdminCategories returns the full category record, hidden ones included.
func (s *Service) AdminCategories(ctx context.Context) (Categories, error) {
	return s.repo.LoadCategories(ctx)
}

// AddCategory creates a category.
func (s *Service) AddCategory(ctx context.Context, name string, settings CategorySettings) (Categories, error) {
	return s.editCategories(ctx, "category.create", name, nil, func(c Categories) (Categories, error) {
		return c.Add(name, settings)
	})
}

// UpdateCategory replaces the settings of a category.
func (s *Service) UpdateCategory(ctx context.Context, name string, settings CategorySettings) (Categories, error) {
	return s.editCategories(ctx, "category.update", name, nil, func(c Categories) (Categories, error) {
		return c.Update(name, settings)
	})
}

// DeleteCategory removes a category but keeps product associations.
func (s *Service) DeleteCategory(ctx context.Context, name string) (Categories, error) {
	return s.editCategories(ctx, "category.delete", name, nil, func(c Categories) (Categories, error) {
		return c.Delete(name)
	})
}

// RenameCategory renames a category and rewrites every product that references
// it, storing both in one transaction.
func (s *Service) RenameCategory(ctx context.Context, oldName, newName string) (Categories, error) {
	current, err := s.repo.LoadCategories(ctx)
	if err != nil {
		return Categories{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return Categories{}, err
	}
	change, err := current.Rename(oldName, newName, products)
	if err != nil {
		return Categories{}, err
	}
	if err := s.repo.SaveCategories(ctx, change); err != nil {
		return Categories{}, err
	}
	s.changed(ctx, "category.rename", "category", shared.Slug(oldName), map[string]any{
		"to":       shared.Slug(newName),
		"products": len(change.Products),
	})
	return change.Categories, nil
}

func (s *Service) editCategories(ctx context.Context, action, name string, meta map[string]any, edit func(Categories) (Categories, error)) (Categories, error) {
	current, err := s.repo.LoadCategories(ctx)
	if err != nil {
		return Categories{}, err
	}
	next, err := edit(current)
	if err != nil {
		return Categories{}, err
	}
	if err := s.repo.SaveCategories(ctx, CategoryChange{Categories: next}); err != nil {
		return Categories{}, err
	}
	s.changed(ctx, action, "category", shared.Slug(name), meta)
	return next, nil
}

// ValidateSettings checks admin supplied category settings.
func (s *Service) ValidateSettings(settings CategorySettings) error {
	if err := shared.ValidateStruct(s.validate, settings); err != nil {
		return err
	}
	if settings.PaginationType != "" && !settings.PaginationType.Valid() {
		return shared.FieldError("paginationType", "must be one of none loadmore infinite pagination")
	}
	return nil
}

func (s *Service) warnPricing(p Product) {
	if p.OriginalPrice > 0 && p.SalePrice > p.OriginalPrice {
		s.logger.Warn("sale price above original price",
			slog.String("product_id", p.ID),
			slog.Int64("sale_price", p.SalePrice),
			slog.Int64("original_price", p.OriginalPrice))
	}
}

// changed invalidates the snapshot cache and records the edit. Neither step
// fails the edit that already succeeded.
func (s *Service) changed(ctx context.Context, action, entity, id string, meta map[string]any) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("catalog cache bump", slog.Any("error", err))
	}
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: entity, EntityID: strings.TrimSpace(id), Meta: meta}); err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
