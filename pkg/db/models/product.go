package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a storefront catalog entry. StockQty is the single source of
// truth for availability and only moves through conditional updates.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	SKU         string    `gorm:"column:sku;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	PriceCents  int       `gorm:"column:price_cents;not null"`
	StockQty    int       `gorm:"column:stock_qty;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
