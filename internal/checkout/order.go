package checkout

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hoamai/storefront/internal/platform/httpx"
	"github.com/hoamai/storefront/internal/shared"
	"github.com/hoamai/storefront/internal/shipping"
)

var (
	ErrOrderNotFound     = fmt.Errorf("%w: order", httpx.ErrNotFound)
	ErrProductNotOrdered = fmt.Errorf("%w: product is not available", httpx.ErrNotFound)
	ErrPriceChanged      = fmt.Errorf("%w: price changed, refresh the quote", httpx.ErrConflict)
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", httpx.ErrConflict)
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusDelivering Status = "delivering"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var nextStatus = map[Status]Status{
	StatusPending:    StatusConfirmed,
	StatusConfirmed:  StatusDelivering,
	StatusDelivering: StatusCompleted,
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether s may move to next.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return nextStatus[s] == next
}

// Delivery sessions.
const (
	SessionMorning   = "morning"
	SessionAfternoon = "afternoon"
	SessionEvening   = "evening"
)

// Person is a purchaser.
type Person struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"required,phone"`
}

// Recipient receives the flowers.
type Recipient struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"required,phone"`
	Address string `json:"address" validate:"required,max=300"`
}

// Delivery is either immediate or a scheduled date and session.
type Delivery struct {
	DeliverNow bool   `json:"deliverNow"`
	Date       string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Session    string `json:"session,omitempty" validate:"omitempty,oneof=morning afternoon evening"`
}

// QuoteRequest asks for a price without placing an order. AppliedCoupon is
// the coupon the shopper already has; CouponCode is a new code to try.
type QuoteRequest struct {
	ProductID     string           `json:"productId" validate:"required"`
	VariantID     string           `json:"variantId,omitempty"`
	Address       shipping.Address `json:"address"`
	IsGift        bool             `json:"isGift"`
	AppliedCoupon string           `json:"appliedCoupon,omitempty"`
	CouponCode    string           `json:"couponCode,omitempty"`
	PaymentMethod PaymentMethod    `json:"paymentMethod,omitempty"`
}

// OrderRequest is the checkout submission.
type OrderRequest struct {
	ProductID     string           `json:"productId" validate:"required"`
	VariantID     string           `json:"variantId,omitempty"`
	Purchaser     Person           `json:"purchaser"`
	Recipient     Recipient        `json:"recipient"`
	IsGift        bool             `json:"isGift"`
	Address       shipping.Address `json:"address"`
	Delivery      Delivery         `json:"delivery"`
	CardMessage   string           `json:"cardMessage,omitempty" validate:"max=500"`
	Note          string           `json:"note,omitempty" validate:"max=1000"`
	CouponCode    string           `json:"couponCode,omitempty"`
	PaymentMethod PaymentMethod    `json:"paymentMethod,omitempty"`
	// ExpectedTotal is the total the shopper saw; a mismatch rejects the order.
	ExpectedTotal *int64 `json:"expectedTotal,omitempty"`
}

// Order is a placed order with server computed prices.
type Order struct {
	ID          string           `json:"id"`
	Status      Status           `json:"status"`
	Item        Item             `json:"item"`
	Purchaser   Person           `json:"purchaser"`
	Recipient   Recipient        `json:"recipient"`
	IsGift      bool             `json:"isGift"`
	Address     shipping.Address `json:"address"`
	Delivery    Delivery         `json:"delivery"`
	CardMessage string           `json:"cardMessage,omitempty"`
	Note        string           `json:"note,omitempty"`
	Pricing
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// OrderPage is one page of the admin order list.
type OrderPage struct {
	Orders     []Order           `json:"orders"`
	Pagination shared.Pagination `json:"pagination"`
}

var phonePattern = regexp.MustCompile(`^(\+84|0)[0-9]{9,10}$`)

// newValidator panics if the phone rule cannot be registered; a validator
// without it would panic on every request carrying a phone tag instead.
func newValidator() *validator.Validate {
	v := shared.NewValidator()
	if err := v.RegisterValidation("phone", validPhone); err != nil {
		panic(fmt.Sprintf("checkout: register phone validator: %v", err))
	}
	return v
}

func validPhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(strings.ReplaceAll(fl.Field().String(), " ", ""))
}

// validateAddress applies the rules the validator tags cannot express.
func validateAddress(addr shipping.Address) httpx.FieldErrors {
	errs := httpx.FieldErrors{}
	if addr.InCity && strings.TrimSpace(addr.District) == "" {
		errs["address.district"] = "is required for in-city delivery"
	}
	if !addr.InCity && strings.TrimSpace(addr.Province) == "" {
		errs["address.province"] = "is required outside the city"
	}
	return errs
}

func validateDelivery(d Delivery) httpx.FieldErrors {
	errs := httpx.FieldErrors{}
	if d.DeliverNow {
		return errs
	}
	if d.Date == "" {
		errs["delivery.date"] = "is required for scheduled delivery"
	}
	if d.Session == "" {
		errs["delivery.session"] = "is required for scheduled delivery"
	}
	return errs
}

func mergeFieldErrors(base error, extra ...httpx.FieldErrors) error {
	merged := httpx.FieldErrors{}
	if fields, ok := base.(httpx.FieldErrors); ok {
		for k, v := range fields {
			merged[k] = v
		}
	} else if base != nil {
		return base
	}
	for _, e := range extra {
		for k, v := range e {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}
