package catalog

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeProducts(n int, category string) []Product {
	products := make([]Product, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, Product{
			ID:         fmt.Sprintf("p%02d", i),
			Title:      fmt.Sprintf("Bó hoa %d", i),
			SalePrice:  100000,
			Categories: NewCategorySet(category),
		})
	}
	return products
}

func ids(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestRevealCountRowFill(t *testing.T) {
	for limit := 1; limit <= 60; limit++ {
		for _, columns := range []int{ColumnsMobile, ColumnsTablet, ColumnsDesktop} {
			got := RevealCount(limit, columns)
			assert.Zero(t, got%columns, "limit=%d columns=%d", limit, columns)
			assert.GreaterOrEqual(t, got, limit)
			assert.Less(t, got, limit+columns)
		}
	}
}

func TestRevealCountExamples(t *testing.T) {
	assert.Equal(t, 9, RevealCount(8, 3))
	assert.Equal(t, 8, RevealCount(8, 4))
	assert.Equal(t, 8, RevealCount(8, 2))
	assert.Equal(t, 0, RevealCount(0, 4))
}

func TestSelectFiltersAndSortsStable(t *testing.T) {
	products := []Product{
		{ID: "a", Order: 2, Categories: NewCategorySet("Hoa Cưới")},
		{ID: "b", Order: 1, Categories: NewCategorySet("Sinh nhật", "hoa cưới")},
		{ID: "c", Order: 1, Categories: NewCategorySet("Hoa Cưới")},
		{ID: "d", Order: 0, Categories: NewCategorySet("Hoa Cưới"), IsHidden: true},
		{ID: "e", Order: 0, Categories: NewCategorySet("Khai trương")},
		{ID: "f", Categories: NewCategorySet("HOA CƯỚI")},
	}

	got := Select(products, "  hoa cưới ")
	assert.Equal(t, []string{"f", "b", "c", "a"}, ids(got))
}

func TestPlanSectionPagination(t *testing.T) {
	products := makeProducts(23, "hoa-tuoi")
	settings := CategorySettings{ItemsPerPage: 5, PaginationType: PaginationPages}

	first := PlanSection(products, "hoa-tuoi", settings, 1)
	require.Equal(t, 5, first.TotalPages)

	var seen []string
	for page := 1; page <= first.TotalPages; page++ {
		plan := PlanSection(products, "hoa-tuoi", settings, page)
		if page < first.TotalPages {
			assert.Len(t, plan.Products, 5)
			assert.True(t, plan.HasMore)
		} else {
			assert.Len(t, plan.Products, 3)
			assert.False(t, plan.HasMore)
		}
		assert.Equal(t, len(plan.Products), plan.Breakpoints.Desktop, "no row-fill in page mode")
		seen = append(seen, ids(plan.Products)...)
	}
	assert.Equal(t, ids(Select(products, "hoa-tuoi")), seen, "pages are disjoint, contiguous and complete")
}

func TestPlanSectionPaginationClampsPage(t *testing.T) {
	products := makeProducts(7, "lan")
	settings := CategorySettings{ItemsPerPage: 3, PaginationType: PaginationPages}

	plan := PlanSection(products, "lan", settings, 99)
	assert.Equal(t, 3, plan.Page)
	assert.Equal(t, []string{"p06"}, ids(plan.Products))

	plan = PlanSection(products, "lan", settings, -4)
	assert.Equal(t, 1, plan.Page)
}

func TestPlanSectionLoadMoreIsCumulative(t *testing.T) {
	products := makeProducts(30, "hoa-hong")
	settings := CategorySettings{ItemsPerPage: 8, PaginationType: PaginationLoadMore}

	prev := []string{}
	for page := 1; ; page++ {
		plan := PlanSection(products, "hoa-hong", settings, page)
		got := ids(plan.Products)
		assert.Equal(t, prev, got[:len(prev)], "page %d keeps earlier products", page)
		assert.Equal(t, len(got) < plan.Total, plan.HasMore)
		prev = got
		if !plan.HasMore {
			assert.Len(t, got, 30)
			break
		}
		require.Less(t, page, 10)
	}
}

func TestPlanSectionLoadMoreBreakpoints(t *testing.T) {
	products := makeProducts(40, "hoa-hong")
	settings := CategorySettings{ItemsPerPage: 8, PaginationType: PaginationLoadMore}

	plan := PlanSection(products, "hoa-hong", settings, 1)
	assert.Equal(t, Breakpoints{Mobile: 8, Tablet: 9, Desktop: 8}, plan.Breakpoints)
	assert.Len(t, plan.Products, 9)

	last := plan.VisibleAt(8)
	assert.False(t, last.Mobile)
	assert.True(t, last.Tablet)
	assert.False(t, last.Desktop)
	assert.Equal(t, Visibility{Mobile: true, Tablet: true, Desktop: true}, plan.VisibleAt(0))

	plan = PlanSection(products, "hoa-hong", settings, 2)
	assert.Equal(t, Breakpoints{Mobile: 16, Tablet: 18, Desktop: 16}, plan.Breakpoints)
}

func TestPlanSectionHugePageShowsEverything(t *testing.T) {
	products := makeProducts(3, "hoa-lan")
	for _, mode := range []PaginationType{PaginationLoadMore, PaginationInfinite, PaginationPages} {
		settings := CategorySettings{ItemsPerPage: 12, PaginationType: mode}
		for _, page := range []int{math.MaxInt / 10, math.MaxInt} {
			plan := PlanSection(products, "hoa-lan", settings, page)
			assert.Len(t, plan.Products, 3, "%s page %d", mode, page)
			assert.False(t, plan.HasMore, "%s page %d", mode, page)
			assert.Equal(t, 1, plan.Page)
			assert.Equal(t, 1, plan.TotalPages)
		}
	}

	plan := PlanSection(makeProducts(5, "hoa-lan"), "hoa-lan", CategorySettings{ItemsPerPage: math.MaxInt, PaginationType: PaginationLoadMore}, 2)
	assert.Len(t, plan.Products, 5)
	assert.False(t, plan.HasMore)
}

func TestRevealCountSaturatesNearMaxInt(t *testing.T) {
	for _, c := range []int{2, 3, 4} {
		assert.Equal(t, math.MaxInt, RevealCount(math.MaxInt, c))
		assert.Positive(t, RevealCount(math.MaxInt-1, c))
	}
}

func TestPlanSectionBreakpointsCappedByTotal(t *testing.T) {
	products := makeProducts(7, "gio-hoa")
	plan := PlanSection(products, "gio-hoa", CategorySettings{ItemsPerPage: 6, PaginationType: PaginationInfinite}, 1)
	assert.Equal(t, Breakpoints{Mobile: 6, Tablet: 6, Desktop: 7}, plan.Breakpoints)
	assert.Len(t, plan.Products, 7)
	assert.False(t, plan.HasMore)
}

func TestPlanSectionNoneIsFixedPreview(t *testing.T) {
	products := makeProducts(20, "cay-canh")
	settings := CategorySettings{ItemsPerPage: 5, PaginationType: PaginationNone}

	plan := PlanSection(products, "cay-canh", settings, 3)
	assert.Equal(t, 1, plan.Page)
	assert.Equal(t, Breakpoints{Mobile: 6, Tablet: 6, Desktop: 8}, plan.Breakpoints)
	assert.Len(t, plan.Products, 8)
	assert.False(t, plan.HasMore)
}

func TestPlanSectionEmptyAndDefaults(t *testing.T) {
	plan := PlanSection(makeProducts(3, "other"), "missing", CategorySettings{}, 1)
	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Products)

	plan = PlanSection(makeProducts(30, "x"), "x", CategorySettings{}, 1)
	assert.Equal(t, DefaultItemsPerPage, plan.Settings.ItemsPerPage)
	assert.Equal(t, PaginationLoadMore, plan.Settings.PaginationType)
	assert.Len(t, plan.Products, 12)
}

func TestCursorLoadMoreStopsAtEnd(t *testing.T) {
	c := NewCursor(makeProducts(30, "hoa"), "hoa", CategorySettings{ItemsPerPage: 12, PaginationType: PaginationLoadMore})
	assert.Len(t, c.Plan().Products, 12)
	assert.True(t, c.LoadMore())
	assert.Len(t, c.Plan().Products, 24)
	assert.True(t, c.LoadMore())
	assert.Len(t, c.Plan().Products, 30)
	assert.False(t, c.LoadMore())
	assert.Equal(t, 3, c.Plan().Page)
}

func TestCursorChangePage(t *testing.T) {
	c := NewCursor(makeProducts(10, "hoa"), "hoa", CategorySettings{ItemsPerPage: 4, PaginationType: PaginationPages})
	require.NoError(t, c.ChangePage(3))
	assert.Equal(t, []string{"p08", "p09"}, ids(c.Plan().Products))
	assert.ErrorIs(t, c.ChangePage(0), ErrPageOutOfRange)
	assert.ErrorIs(t, c.ChangePage(4), ErrPageOutOfRange)

	lm := NewCursor(makeProducts(10, "hoa"), "hoa", CategorySettings{ItemsPerPage: 4, PaginationType: PaginationLoadMore})
	assert.ErrorIs(t, lm.ChangePage(2), ErrNotPaginated)
}

func TestCursorTriggerIsOneShotPerTransition(t *testing.T) {
	c := NewCursor(makeProducts(20, "hoa"), "hoa", CategorySettings{ItemsPerPage: 4, PaginationType: PaginationInfinite})

	assert.True(t, c.Trigger())
	assert.False(t, c.Trigger(), "second trigger before settle is ignored")
	assert.Equal(t, 2, c.Plan().Page)

	c.Settle()
	assert.True(t, c.Trigger())
	assert.Equal(t, 3, c.Plan().Page)

	lm := NewCursor(makeProducts(20, "hoa"), "hoa", CategorySettings{ItemsPerPage: 4, PaginationType: PaginationLoadMore})
	assert.False(t, lm.Trigger(), "only infinite sections auto-load")
}
