package models

import (
	"time"

	"github.com/google/uuid"
)

// ShippingOption is a selectable delivery method. FreeOverCents, when set,
// waives the fee once the cart subtotal reaches the threshold.
type ShippingOption struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string    `gorm:"column:code;not null;uniqueIndex"`
	Name          string    `gorm:"column:name;not null"`
	PriceCents    int       `gorm:"column:price_cents;not null"`
	FreeOverCents *int      `gorm:"column:free_over_cents"`
	IsActive      bool      `gorm:"column:is_active;not null"`
	SortOrder     int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
