package catalog

import (
	"math"
	"sort"

	"github.com/hoamai/storefront/internal/shared"
)

// Grid column counts per responsive breakpoint.
const (
	ColumnsMobile  = 2
	ColumnsTablet  = 3
	ColumnsDesktop = 4
)

// RevealCount rounds limit up to a whole number of rows of the given width,
// so a breakpoint never renders a partial last row. A limit too close to
// math.MaxInt to round up is returned unchanged.
func RevealCount(limit, columns int) int {
	if limit <= 0 {
		return 0
	}
	if columns <= 1 || limit > math.MaxInt-columns {
		return limit
	}
	return ceilDiv(limit, columns) * columns
}

func ceilDiv(n, d int) int {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}

// Breakpoints holds how many products each grid width shows.
type Breakpoints struct {
	Mobile  int `json:"mobile"`
	Tablet  int `json:"tablet"`
	Desktop int `json:"desktop"`
}

// Max is the number of products that must be rendered to satisfy every width.
func (b Breakpoints) Max() int {
	return max(b.Mobile, b.Tablet, b.Desktop)
}

func rowFilled(limit, total int) Breakpoints {
	return Breakpoints{
		Mobile:  min(total, RevealCount(limit, ColumnsMobile)),
		Tablet:  min(total, RevealCount(limit, ColumnsTablet)),
		Desktop: min(total, RevealCount(limit, ColumnsDesktop)),
	}
}

// Visibility tells which breakpoints show a rendered product.
type Visibility struct {
	Mobile  bool `json:"mobile"`
	Tablet  bool `json:"tablet"`
	Desktop bool `json:"desktop"`
}

// Plan is the computed display state of one category section.
type Plan struct {
	Category    string           `json:"category"`
	Settings    CategorySettings `json:"settings"`
	Products    []Product        `json:"products"`
	Total       int              `json:"total"`
	Page        int              `json:"page"`
	TotalPages  int              `json:"totalPages"`
	HasMore     bool             `json:"hasMore"`
	Breakpoints Breakpoints      `json:"breakpoints"`
}

// Empty reports whether the section has nothing to show.
func (p Plan) Empty() bool {
	return p.Total == 0
}

// VisibleAt reports, per breakpoint, whether the product at index is shown.
func (p Plan) VisibleAt(index int) Visibility {
	if index < 0 {
		return Visibility{}
	}
	return Visibility{
		Mobile:  index < p.Breakpoints.Mobile,
		Tablet:  index < p.Breakpoints.Tablet,
		Desktop: index < p.Breakpoints.Desktop,
	}
}

// Select returns the visible products of a category sorted by their explicit
// order. Ties keep the input order.
func Select(products []Product, categoryName string) []Product {
	id := shared.Slug(categoryName)
	selected := make([]Product, 0, len(products))
	if id == "" {
		return selected
	}
	for _, p := range products {
		if p.IsHidden || !p.Categories.Has(id) {
			continue
		}
		selected = append(selected, p)
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Order < selected[j].Order
	})
	return selected
}

// PlanSection computes which products of a category are shown at page.
func PlanSection(products []Product, categoryName string, settings CategorySettings, page int) Plan {
	settings = settings.normalized()
	sorted := Select(products, categoryName)
	total := len(sorted)
	perPage := settings.ItemsPerPage
	if page < 1 {
		page = 1
	}

	plan := Plan{
		Category: shared.Slug(categoryName),
		Settings: settings,
		Total:    total,
		Page:     page,
	}
	if total == 0 {
		plan.Products = []Product{}
		return plan
	}

	// Pages past the end show everything; clamping keeps page*perPage in range.
	plan.TotalPages = ceilDiv(total, perPage)
	if plan.Page > plan.TotalPages {
		plan.Page = plan.TotalPages
	}

	switch settings.PaginationType {
	case PaginationPages:
		start := (plan.Page - 1) * perPage
		end := min(total, plan.Page*perPage)
		plan.Products = sorted[start:end]
		n := end - start
		plan.Breakpoints = Breakpoints{Mobile: n, Tablet: n, Desktop: n}
		plan.HasMore = plan.Page < plan.TotalPages
	case PaginationLoadMore, PaginationInfinite:
		plan.Breakpoints = rowFilled(plan.Page*perPage, total)
		plan.Products = sorted[:plan.Breakpoints.Max()]
		plan.HasMore = len(plan.Products) < total
	default:
		plan.Page = 1
		plan.TotalPages = 1
		plan.Breakpoints = rowFilled(perPage, total)
		plan.Products = sorted[:plan.Breakpoints.Max()]
	}
	return plan
}

// Cursor walks a category section the way a shopper does: load more, jump to
// a page, or trigger the next page from an infinite-scroll sentinel.
type Cursor struct {
	products []Product
	category string
	settings CategorySettings
	plan     Plan
	loading  bool
}

// NewCursor plans the first page of a category.
func NewCursor(products []Product, categoryName string, settings CategorySettings) *Cursor {
	c := &Cursor{products: products, category: categoryName, settings: settings.normalized()}
	c.plan = PlanSection(products, categoryName, c.settings, 1)
	return c
}

// Plan returns the current display state.
func (c *Cursor) Plan() Plan {
	return c.plan
}

// LoadMore advances one page. It returns false when nothing is left.
func (c *Cursor) LoadMore() bool {
	if !c.plan.HasMore {
		return false
	}
	c.plan = PlanSection(c.products, c.category, c.settings, c.plan.Page+1)
	return true
}

// ChangePage jumps to page n in page-navigation mode.
func (c *Cursor) ChangePage(n int) error {
	if c.settings.PaginationType != PaginationPages {
		return ErrNotPaginated
	}
	if n < 1 || n > c.plan.TotalPages {
		return ErrPageOutOfRange
	}
	c.plan = PlanSection(c.products, c.category, c.settings, n)
	return nil
}

// Trigger is called when the infinite-scroll sentinel becomes visible. Only the
// first call per visibility transition loads; later calls are ignored until
// Settle re-arms the trigger.
func (c *Cursor) Trigger() bool {
	if c.settings.PaginationType != PaginationInfinite || c.loading || !c.plan.HasMore {
		return false
	}
	c.loading = true
	return c.LoadMore()
}

// Settle re-arms the infinite-scroll trigger once the new page is rendered.
func (c *Cursor) Settle() {
	c.loading = false
}
