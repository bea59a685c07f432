package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/indipaws/petstore-backend/internal/orders"
	"github.com/indipaws/petstore-backend/pkg/db/models"
	"github.com/indipaws/petstore-backend/pkg/types"
)

type productResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku"`
	Description *string   `json:"description,omitempty"`
	PriceCents  int       `json:"price_cents"`
	InStock     bool      `json:"in_stock"`
}

func newProductResponse(product models.Product) productResponse {
	return productResponse{
		ID:          product.ID,
		Name:        product.Name,
		SKU:         product.SKU,
		Description: product.Description,
		PriceCents:  product.PriceCents,
		InStock:     product.StockQty > 0,
	}
}

func newProductList(products []models.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, product := range products {
		out = append(out, newProductResponse(product))
	}
	return out
}

type cartLineResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
	LineTotalCents int       `json:"line_total_cents"`
}

type cartResponse struct {
	ID            uuid.UUID          `json:"id"`
	Items         []cartLineResponse `json:"items"`
	SubtotalCents int                `json:"subtotal_cents"`
	ExpiresAt     time.Time          `json:"expires_at"`
}

func newCartResponse(record *models.Cart) cartResponse {
	lines := make([]cartLineResponse, 0, len(record.Items))
	subtotal := 0
	for _, item := range record.Items {
		lineTotal := item.UnitPriceCents * item.Quantity
		subtotal += lineTotal
		lines = append(lines, cartLineResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: lineTotal,
		})
	}
	return cartResponse{
		ID:            record.ID,
		Items:         lines,
		SubtotalCents: subtotal,
		ExpiresAt:     record.ExpiresAt,
	}
}

type orderLineResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          string              `json:"status"`
	Email           string              `json:"email"`
	Items           []orderLineResponse `json:"items"`
	SubtotalCents   int                 `json:"subtotal_cents"`
	DiscountCents   int                 `json:"discount_cents"`
	ShippingCents   int                 `json:"shipping_cents"`
	TaxCents        int                 `json:"tax_cents"`
	TotalCents      int                 `json:"total_cents"`
	ShippingMethod  string              `json:"shipping_method"`
	ShippingAddress types.Address       `json:"shipping_address"`
	BillingAddress  *types.Address      `json:"billing_address,omitempty"`
	PromoCode       *string             `json:"promo_code,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, orderLineResponse{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}
	return orderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status.String(),
		Email:           order.Email,
		Items:           lines,
		SubtotalCents:   order.SubtotalCents,
		DiscountCents:   order.DiscountCents,
		ShippingCents:   order.ShippingCents,
		TaxCents:        order.TaxCents,
		TotalCents:      order.TotalCents,
		ShippingMethod:  order.ShippingMethod,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		PromoCode:       order.PromoCode,
		CreatedAt:       order.CreatedAt,
		ShippedAt:       order.ShippedAt,
		DeliveredAt:     order.DeliveredAt,
		CancelledAt:     order.CancelledAt,
	}
}

func newOrderList(records []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(records))
	for i := range records {
		out = append(out, newOrderResponse(&records[i]))
	}
	return out
}

type reorderResponse struct {
	Cart        cartResponse             `json:"cart"`
	Unavailable []orders.UnavailableItem `json:"unavailable_items"`
}
