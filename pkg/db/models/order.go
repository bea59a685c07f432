package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/indipaws/petstore-backend/pkg/enums"
	"github.com/indipaws/petstore-backend/pkg/types"
)

// Order is the durable record produced by checkout. PaymentIntentID carries a
// unique index so a retried confirmation lands on the existing row instead of
// creating a duplicate.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string            `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	UserID          *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	Email           string            `gorm:"column:email;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	SubtotalCents   int               `gorm:"column:subtotal_cents;not null"`
	DiscountCents   int               `gorm:"column:discount_cents;not null;default:0"`
	ShippingCents   int               `gorm:"column:shipping_cents;not null;default:0"`
	TaxCents        int               `gorm:"column:tax_cents;not null;default:0"`
	TotalCents      int               `gorm:"column:total_cents;not null"`
	ShippingMethod  string            `gorm:"column:shipping_method;not null"`
	ShippingAddress types.Address     `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress  *types.Address    `gorm:"column:billing_address;type:jsonb;serializer:json"`
	PaymentIntentID string            `gorm:"column:payment_intent_id;not null;uniqueIndex:ux_orders_payment_intent_id"`
	PromoCode       *string           `gorm:"column:promo_code"`
	ShippedAt       *time.Time        `gorm:"column:shipped_at"`
	DeliveredAt     *time.Time        `gorm:"column:delivered_at"`
	CancelledAt     *time.Time        `gorm:"column:cancelled_at"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
