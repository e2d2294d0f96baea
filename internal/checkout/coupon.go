package checkout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hoamai/storefront/internal/platform/httpx"
)

var (
	ErrCouponNotFound  = fmt.Errorf("%w: coupon code not found", httpx.ErrValidation)
	ErrCouponActive    = fmt.Errorf("%w: another coupon is already applied", httpx.ErrConflict)
	ErrCouponCode      = fmt.Errorf("%w: coupon code required", httpx.ErrValidation)
	ErrDuplicateCoupon = fmt.Errorf("%w: coupon code", httpx.ErrDuplicate)
	// ErrCouponsUnavailable means the coupon store could not be read.
	ErrCouponsUnavailable = fmt.Errorf("%w: coupons cannot be checked, retry or remove the code", httpx.ErrUnavailable)
)

// Coupon is a percentage discount on the product sale price.
type Coupon struct {
	Code            string `json:"code" validate:"required,max=32"`
	DiscountPercent int    `json:"discountPercent" validate:"gte=1,lte=100"`
}

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CouponBook indexes coupons by normalized code.
type CouponBook map[string]Coupon

// NewCouponBook builds a book. Later duplicates win.
func NewCouponBook(coupons []Coupon) CouponBook {
	book := make(CouponBook, len(coupons))
	for _, c := range coupons {
		code := NormalizeCode(c.Code)
		if code == "" {
			continue
		}
		c.Code = code
		book[code] = c
	}
	return book
}

// Lookup finds a coupon by code, ignoring case and surrounding spaces.
func (b CouponBook) Lookup(code string) (Coupon, bool) {
	c, ok := b[NormalizeCode(code)]
	return c, ok
}

// List returns the coupons ordered by code.
func (b CouponBook) List() []Coupon {
	out := make([]Coupon, 0, len(b))
	for _, c := range b {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// NormalizeCoupons upper-cases codes and rejects blanks, duplicates and
// percentages outside 1..100. Errors are keyed by list position.
func NormalizeCoupons(coupons []Coupon) ([]Coupon, error) {
	out := make([]Coupon, 0, len(coupons))
	seen := make(map[string]int, len(coupons))
	errs := httpx.FieldErrors{}
	for i, c := range coupons {
		c.Code = NormalizeCode(c.Code)
		key := fmt.Sprintf("coupons[%d]", i)
		switch {
		case c.Code == "":
			errs[key+".code"] = "is required"
		case len(c.Code) > 32:
			errs[key+".code"] = "must be at most 32"
		default:
			if first, dup := seen[c.Code]; dup {
				errs[key+".code"] = fmt.Sprintf("duplicates coupons[%d]", first)
			}
			seen[c.Code] = i
		}
		if c.DiscountPercent < 1 || c.DiscountPercent > 100 {
			errs[key+".discountPercent"] = "must be between 1 and 100"
		}
		out = append(out, c)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// CouponState tracks the coupon applied during one checkout.
type CouponState struct {
	applied *Coupon
}

// Applied returns the active coupon, if any.
func (s *CouponState) Applied() (Coupon, bool) {
	if s == nil || s.applied == nil {
		return Coupon{}, false
	}
	return *s.applied, true
}

// Apply activates code. Re-applying the active code is a no-op. A miss leaves
// the current coupon in place.
func (s *CouponState) Apply(code string, book CouponBook) (Coupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Coupon{}, ErrCouponCode
	}
	if s.applied != nil {
		if s.applied.Code == normalized {
			return *s.applied, nil
		}
		return Coupon{}, ErrCouponActive
	}
	c, ok := book.Lookup(normalized)
	if !ok {
		return Coupon{}, ErrCouponNotFound
	}
	s.applied = &c
	return c, nil
}

// Remove clears the active coupon.
func (s *CouponState) Remove() {
	s.applied = nil
}

// Percent is the active discount percentage, zero without a coupon.
func (s *CouponState) Percent() int {
	if c, ok := s.Applied(); ok {
		return c.DiscountPercent
	}
	return 0
}
