package shipping

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/indipaws/petstore-backend/pkg/db/models"
)

// Repository exposes persistence operations for shipping options.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a shipping repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActive returns the selectable options in display order.
func (r *Repository) ListActive(ctx context.Context) ([]models.ShippingOption, error) {
	var options []models.ShippingOption
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Find(&options).Error
	if err != nil {
		return nil, err
	}
	return options, nil
}

// GetActiveByCode loads one active option by its code.
func (r *Repository) GetActiveByCode(ctx context.Context, code string) (*models.ShippingOption, error) {
	var option models.ShippingOption
	err := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(code)), true).
		First(&option).Error
	if err != nil {
		return nil, err
	}
	return &option, nil
}
