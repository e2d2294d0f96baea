package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoamai/storefront/internal/platform/httpx"
)

var testBook = NewCouponBook([]Coupon{
	{Code: "giam10", DiscountPercent: 10},
	{Code: " VIP20 ", DiscountPercent: 20},
})

func TestCouponBookLookupIsCaseInsensitive(t *testing.T) {
	c, ok := testBook.Lookup("  Giam10")
	require.True(t, ok)
	assert.Equal(t, Coupon{Code: "GIAM10", DiscountPercent: 10}, c)
	_, ok = testBook.Lookup("GIAM1")
	assert.False(t, ok)
	assert.Equal(t, []Coupon{{Code: "GIAM10", DiscountPercent: 10}, {Code: "VIP20", DiscountPercent: 20}}, testBook.List())
}

func TestCouponStateApplyIsIdempotent(t *testing.T) {
	var state CouponState
	c, err := state.Apply("giam10", testBook)
	require.NoError(t, err)
	assert.Equal(t, 10, c.DiscountPercent)

	again, err := state.Apply(" GIAM10 ", testBook)
	require.NoError(t, err)
	assert.Equal(t, c, again)
	assert.Equal(t, 10, state.Percent())
}

func TestCouponStateMissKeepsPrior(t *testing.T) {
	var state CouponState
	_, err := state.Apply("nope", testBook)
	assert.ErrorIs(t, err, ErrCouponNotFound)
	_, ok := state.Applied()
	assert.False(t, ok)

	_, err = state.Apply("VIP20", testBook)
	require.NoError(t, err)
	_, err = state.Apply("GIAM10", testBook)
	assert.ErrorIs(t, err, ErrCouponActive)
	applied, ok := state.Applied()
	require.True(t, ok)
	assert.Equal(t, "VIP20", applied.Code)

	_, err = state.Apply("   ", testBook)
	assert.ErrorIs(t, err, ErrCouponCode)
	assert.Equal(t, 20, state.Percent())
}

func TestCouponStateRemoveAllowsNewCode(t *testing.T) {
	var state CouponState
	_, err := state.Apply("VIP20", testBook)
	require.NoError(t, err)

	state.Remove()
	assert.Zero(t, state.Percent())

	c, err := state.Apply("giam10", testBook)
	require.NoError(t, err)
	assert.Equal(t, "GIAM10", c.Code)
}

func TestNormalizeCoupons(t *testing.T) {
	out, err := NormalizeCoupons([]Coupon{{Code: " tet ", DiscountPercent: 15}})
	require.NoError(t, err)
	assert.Equal(t, []Coupon{{Code: "TET", DiscountPercent: 15}}, out)

	_, err = NormalizeCoupons([]Coupon{
		{Code: "TET", DiscountPercent: 15},
		{Code: "tet", DiscountPercent: 5},
		{Code: "", DiscountPercent: 0},
		{Code: "MAX", DiscountPercent: 101},
	})
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "duplicates coupons[0]", fields["coupons[1].code"])
	assert.Contains(t, fields, "coupons[2].code")
	assert.Contains(t, fields, "coupons[2].discountPercent")
	assert.Contains(t, fields, "coupons[3].discountPercent")
	assert.NotContains(t, fields, "coupons[0].code")
}
