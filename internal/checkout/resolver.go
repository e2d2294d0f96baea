package checkout

import (
	"fmt"

	"github.com/hoamai/storefront/internal/catalog"
	"github.com/hoamai/storefront/internal/platform/httpx"
	"github.com/hoamai/storefront/internal/shipping"
)

var (
	ErrVariantUnavailable = fmt.Errorf("%w: variant unavailable", httpx.ErrValidation)
	ErrPaymentMethod      = fmt.Errorf("%w: unsupported payment method", httpx.ErrValidation)
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// AllowedPaymentMethods lists the choices offered at checkout. Gift orders are
// paid by the sender up front, so cash on delivery is not offered.
func AllowedPaymentMethods(isGift bool) []PaymentMethod {
	if isGift {
		return []PaymentMethod{PaymentBankTransfer}
	}
	return []PaymentMethod{PaymentCOD, PaymentBankTransfer}
}

// ResolvePaymentMethod picks the effective method. Gift orders always use bank
// transfer; otherwise an empty request defaults to cash on delivery.
func ResolvePaymentMethod(requested PaymentMethod, isGift bool) (PaymentMethod, error) {
	if isGift {
		return PaymentBankTransfer, nil
	}
	switch requested {
	case "":
		return PaymentCOD, nil
	case PaymentCOD, PaymentBankTransfer:
		return requested, nil
	}
	return "", ErrPaymentMethod
}

// Item is the product line of an order with its variant resolved.
type Item struct {
	ProductID    string `json:"productId"`
	ProductTitle string `json:"productTitle"`
	VariantID    string `json:"variantId,omitempty"`
	VariantName  string `json:"variantName,omitempty"`
	SKU          string `json:"sku,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	SalePrice    int64  `json:"salePrice"`
}

// ResolveItem resolves the selected variant. An empty variantID selects the
// default visible variant when the product has any.
func ResolveItem(p catalog.Product, variantID string) (Item, error) {
	item := Item{
		ProductID:    p.ID,
		ProductTitle: p.Title,
		SKU:          p.SKU,
		SalePrice:    p.SalePrice,
	}
	var (
		variant catalog.Variant
		ok      bool
	)
	if variantID != "" {
		variant, ok = p.FindVariant(variantID)
		if !ok {
			return Item{}, ErrVariantUnavailable
		}
	} else {
		variant, ok = p.DefaultVariant()
	}
	if ok {
		item.VariantID = variant.ID
		item.VariantName = variant.Name
		if variant.SKU != "" {
			item.SKU = variant.SKU
		}
	}
	item.ImageURL = imageFor(p.Images, item.VariantID)
	return item, nil
}

func imageFor(images []catalog.Image, variantID string) string {
	if variantID != "" {
		for _, img := range images {
			if img.VariantID == variantID {
				return img.URL
			}
		}
	}
	if len(images) > 0 {
		return images[0].URL
	}
	return ""
}

// Discount is the coupon amount, truncated toward zero.
func Discount(salePrice int64, percent int) int64 {
	if percent <= 0 || salePrice <= 0 {
		return 0
	}
	if percent > 100 {
		percent = 100
	}
	return salePrice * int64(percent) / 100
}

// Total is the payable amount, never below zero.
func Total(salePrice, shippingFee, discount int64) int64 {
	return max(0, salePrice+shippingFee-discount)
}

// Pricing is the server computed price breakdown.
type Pricing struct {
	SalePrice       int64  `json:"salePrice"`
	ShippingFee     int64  `json:"shippingFee"`
	CouponCode      string `json:"couponCode,omitempty"`
	DiscountPercent int    `json:"discountPercent,omitempty"`
	DiscountAmount  int64  `json:"discountAmount"`
	TotalPrice      int64  `json:"totalPrice"`
}

// Input is everything the resolver needs, already loaded into memory.
type Input struct {
	Product       catalog.Product
	VariantID     string
	Address       shipping.Address
	Table         shipping.Table
	Coupon        *Coupon
	IsGift        bool
	PaymentMethod PaymentMethod
}

// Resolution is the priced checkout.
type Resolution struct {
	Item                  Item            `json:"item"`
	Shipping              shipping.Quote  `json:"shipping"`
	Pricing               Pricing         `json:"pricing"`
	PaymentMethod         PaymentMethod   `json:"paymentMethod"`
	AllowedPaymentMethods []PaymentMethod `json:"allowedPaymentMethods"`
}

// Resolve prices one checkout. It is a pure function of its input.
func Resolve(in Input) (Resolution, error) {
	item, err := ResolveItem(in.Product, in.VariantID)
	if err != nil {
		return Resolution{}, err
	}
	method, err := ResolvePaymentMethod(in.PaymentMethod, in.IsGift)
	if err != nil {
		return Resolution{}, err
	}
	quote := shipping.Resolve(in.Address, in.Table)

	pricing := Pricing{SalePrice: item.SalePrice, ShippingFee: quote.Fee}
	if in.Coupon != nil {
		pricing.CouponCode = in.Coupon.Code
		pricing.DiscountPercent = in.Coupon.DiscountPercent
		pricing.DiscountAmount = Discount(item.SalePrice, in.Coupon.DiscountPercent)
	}
	pricing.TotalPrice = Total(pricing.SalePrice, pricing.ShippingFee, pricing.DiscountAmount)

	return Resolution{
		Item:                  item,
		Shipping:              quote,
		Pricing:               pricing,
		PaymentMethod:         method,
		AllowedPaymentMethods: AllowedPaymentMethods(in.IsGift),
	}, nil
}
