package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indipaws/petstore-backend/pkg/db/models"
)

// Repository persists notification records.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a notification repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a notification row.
func (r *Repository) Create(ctx context.Context, record *models.Notification) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListByOrder returns the notices recorded for an order, oldest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Notification, error) {
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
