package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/indipaws/petstore-backend/pkg/enums"
)

// Notification is the persisted record of a customer-facing notice. Delivery
// is best-effort; the row is the audit trail.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    *uuid.UUID             `gorm:"column:user_id;type:uuid;index"`
	Email     string                 `gorm:"column:email;not null"`
	Kind      enums.NotificationKind `gorm:"column:kind;type:text;not null"`
	OrderID   uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	Body      string                 `gorm:"column:body;not null"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
