package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/indipaws/petstore-backend/pkg/enums"
)

// Item is one cart line fed into a quote. UnitPriceCents is the price captured
// when the line was added, not the live catalog price.
type Item struct {
	ProductID      uuid.UUID
	Name           string
	UnitPriceCents int
	Quantity       int
}

// Promo carries the discount terms of an already-validated promo code.
type Promo struct {
	Code  string
	Type  enums.DiscountType
	Value int
}

// ShippingRate is the selected delivery method with its effective price,
// post free-shipping threshold.
type ShippingRate struct {
	Code       string
	Name       string
	PriceCents int
}

// Quote is the full price breakdown for a cart.
type Quote struct {
	SubtotalCents int     `json:"subtotal_cents"`
	DiscountCents int     `json:"discount_cents"`
	ShippingCents int     `json:"shipping_cents"`
	TaxCents      int     `json:"tax_cents"`
	TotalCents    int     `json:"total_cents"`
	PromoCode     *string `json:"promo_code,omitempty"`
}

var oneHundred = decimal.NewFromInt(100)

// Compute derives the quote from its inputs alone. Percentage math runs in
// decimals and rounds half-up to whole cents; tax applies to the discounted
// subtotal, never to shipping.
func Compute(items []Item, promo *Promo, shipping ShippingRate, taxRateBasisPoints int) Quote {
	subtotal := 0
	for _, item := range items {
		subtotal += item.UnitPriceCents * item.Quantity
	}

	discount := discountCents(subtotal, promo)
	discounted := subtotal - discount

	tax := 0
	if taxRateBasisPoints > 0 {
		tax = int(decimal.NewFromInt(int64(discounted)).
			Mul(decimal.NewFromInt(int64(taxRateBasisPoints))).
			Div(decimal.NewFromInt(10000)).
			Round(0).IntPart())
	}

	quote := Quote{
		SubtotalCents: subtotal,
		DiscountCents: discount,
		ShippingCents: shipping.PriceCents,
		TaxCents:      tax,
		TotalCents:    discounted + shipping.PriceCents + tax,
	}
	if promo != nil {
		code := promo.Code
		quote.PromoCode = &code
	}
	return quote
}

func discountCents(subtotalCents int, promo *Promo) int {
	if promo == nil || subtotalCents <= 0 || promo.Value <= 0 {
		return 0
	}
	switch promo.Type {
	case enums.DiscountTypePercentage:
		return int(decimal.NewFromInt(int64(subtotalCents)).
			Mul(decimal.NewFromInt(int64(promo.Value))).
			Div(oneHundred).
			Round(0).IntPart())
	case enums.DiscountTypeFixed:
		if promo.Value > subtotalCents {
			return subtotalCents
		}
		return promo.Value
	default:
		return 0
	}
}
