package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart holds a shopper's in-progress selection. Exactly one of SessionID or
// UserID is set; the table carries a CHECK enforcing that.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID *string    `gorm:"column:session_id;uniqueIndex"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
