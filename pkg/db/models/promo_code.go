package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/indipaws/petstore-backend/pkg/enums"
)

// PromoCode is a redeemable discount. UsageCount only moves through a
// conditional increment so MaxUses can never be overshot.
type PromoCode struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string             `gorm:"column:code;not null;uniqueIndex"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue int                `gorm:"column:discount_value;not null"`
	MinOrderCents *int               `gorm:"column:min_order_cents"`
	MaxUses       *int               `gorm:"column:max_uses"`
	UsageCount    int                `gorm:"column:usage_count;not null;default:0"`
	IsActive      bool               `gorm:"column:is_active;not null"`
	StartsAt      *time.Time         `gorm:"column:starts_at"`
	ExpiresAt     *time.Time         `gorm:"column:expires_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
