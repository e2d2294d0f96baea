package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/hoamai/storefront/internal/platform/httpx"
	"github.com/hoamai/storefront/internal/shared"
)

var (
	ErrProductNotFound  = fmt.Errorf("%w: product", httpx.ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("%w: category", httpx.ErrNotFound)
	ErrCategoryExists   = fmt.Errorf("%w: category already exists", httpx.ErrDuplicate)
	ErrCategoryName     = fmt.Errorf("%w: category name required", httpx.ErrValidation)
	ErrNotPaginated     = fmt.Errorf("%w: category does not use page navigation", httpx.ErrValidation)
	ErrPageOutOfRange   = fmt.Errorf("%w: page out of range", httpx.ErrValidation)
)

// PaginationType selects how a category section reveals more products.
type PaginationType string

const (
	PaginationNone     PaginationType = "none"
	PaginationLoadMore PaginationType = "loadmore"
	PaginationInfinite PaginationType = "infinite"
	PaginationPages    PaginationType = "pagination"
)

// Valid reports whether p is a known pagination type.
func (p PaginationType) Valid() bool {
	switch p {
	case PaginationNone, PaginationLoadMore, PaginationInfinite, PaginationPages:
		return true
	}
	return false
}

const (
	DefaultItemsPerPage    = 12
	DefaultImageTransition = "none"
)

// CategorySettings configures how one category section is displayed.
type CategorySettings struct {
	ItemsPerPage    int            `json:"itemsPerPage" validate:"gte=0,lte=200"`
	PaginationType  PaginationType `json:"paginationType"`
	ImageTransition string         `json:"imageTransition,omitempty"`
	IsHidden        bool           `json:"isHidden"`
	DisplayName     string         `json:"displayName,omitempty"`
	Position        int            `json:"position"`
}

// DefaultCategorySettings is used for categories without stored settings.
func DefaultCategorySettings() CategorySettings {
	return CategorySettings{
		ItemsPerPage:    DefaultItemsPerPage,
		PaginationType:  PaginationLoadMore,
		ImageTransition: DefaultImageTransition,
	}
}

// normalized fills zero values with defaults.
func (s CategorySettings) normalized() CategorySettings {
	if s.ItemsPerPage <= 0 {
		s.ItemsPerPage = DefaultItemsPerPage
	}
	if !s.PaginationType.Valid() {
		s.PaginationType = PaginationLoadMore
	}
	if s.ImageTransition == "" {
		s.ImageTransition = DefaultImageTransition
	}
	return s
}

// CategorySet is an ordered set of canonical category IDs.
type CategorySet []string

// NewCategorySet canonicalizes names and drops blanks and duplicates, keeping
// first-seen order.
func NewCategorySet(names ...string) CategorySet {
	set := make(CategorySet, 0, len(names))
	for _, name := range names {
		id := shared.Slug(name)
		if id == "" || set.Has(id) {
			continue
		}
		set = append(set, id)
	}
	return set
}

// Has reports whether the set contains the canonical form of name.
func (c CategorySet) Has(name string) bool {
	id := shared.Slug(name)
	for _, existing := range c {
		if existing == id {
			return true
		}
	}
	return false
}

// Primary returns the first category or "".
func (c CategorySet) Primary() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Replace returns a copy with oldName swapped for newName in place.
func (c CategorySet) Replace(oldName, newName string) CategorySet {
	oldID, newID := shared.Slug(oldName), shared.Slug(newName)
	names := make([]string, 0, len(c))
	for _, id := range c {
		if id == oldID {
			id = newID
		}
		names = append(names, id)
	}
	return NewCategorySet(names...)
}

// Variant is a selectable sub-option of a product.
type Variant struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required,max=120"`
	SKU      string `json:"sku,omitempty" validate:"omitempty,max=64"`
	IsHidden bool   `json:"isHidden"`
}

// Image is a gallery image, optionally tagged with a variant.
type Image struct {
	URL       string `json:"url" validate:"required"`
	VariantID string `json:"variantId,omitempty"`
}

// Product is a catalog item.
type Product struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	SKU           string      `json:"sku,omitempty"`
	Description   string      `json:"description,omitempty"`
	OriginalPrice int64       `json:"originalPrice"`
	SalePrice     int64       `json:"salePrice"`
	Categories    CategorySet `json:"categories"`
	Order         int         `json:"order"`
	IsHidden      bool        `json:"isHidden"`
	Variants      []Variant   `json:"variants,omitempty"`
	Images        []Image     `json:"images,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// VisibleVariants returns the variants a shopper can pick.
func (p Product) VisibleVariants() []Variant {
	visible := make([]Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		if !v.IsHidden {
			visible = append(visible, v)
		}
	}
	return visible
}

// DefaultVariant is the first visible variant.
func (p Product) DefaultVariant() (Variant, bool) {
	for _, v := range p.Variants {
		if !v.IsHidden {
			return v, true
		}
	}
	return Variant{}, false
}

// FindVariant returns the visible variant with the given ID.
func (p Product) FindVariant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id && !v.IsHidden {
			return v, true
		}
	}
	return Variant{}, false
}

// ProductDocument is the wire shape used by the storefront and admin clients.
// It carries the primary category and the extra categories as separate fields.
type ProductDocument struct {
	ID            string    `json:"id"`
	Title         string    `json:"title" validate:"required,max=200"`
	SKU           string    `json:"sku,omitempty" validate:"omitempty,max=64"`
	Description   string    `json:"description,omitempty"`
	OriginalPrice int64     `json:"originalPrice" validate:"gte=0"`
	SalePrice     int64     `json:"salePrice" validate:"gte=0"`
	Category      string    `json:"category"`
	Categories    []string  `json:"categories,omitempty"`
	Order         int       `json:"order"`
	IsHidden      bool      `json:"isHidden"`
	Variants      []Variant `json:"variants,omitempty" validate:"dive"`
	Images        []Image   `json:"images,omitempty" validate:"dive"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// Product converts the wire document into the internal model.
func (d ProductDocument) Product() Product {
	names := append([]string{d.Category}, d.Categories...)
	return Product{
		ID:            strings.TrimSpace(d.ID),
		Title:         strings.TrimSpace(d.Title),
		SKU:           strings.TrimSpace(d.SKU),
		Description:   d.Description,
		OriginalPrice: d.OriginalPrice,
		SalePrice:     d.SalePrice,
		Categories:    NewCategorySet(names...),
		Order:         d.Order,
		IsHidden:      d.IsHidden,
		Variants:      d.Variants,
		Images:        d.Images,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// Document converts a product back into the wire shape.
func (p Product) Document() ProductDocument {
	doc := ProductDocument{
		ID:            p.ID,
		Title:         p.Title,
		SKU:           p.SKU,
		Description:   p.Description,
		OriginalPrice: p.OriginalPrice,
		SalePrice:     p.SalePrice,
		Category:      p.Categories.Primary(),
		Order:         p.Order,
		IsHidden:      p.IsHidden,
		Variants:      p.Variants,
		Images:        p.Images,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if len(p.Categories) > 1 {
		doc.Categories = append([]string(nil), p.Categories[1:]...)
	}
	return doc
}
