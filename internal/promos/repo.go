package promos

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/indipaws/petstore-backend/pkg/db/models"
)

// Repository exposes persistence operations for promo codes.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a promo repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// GetByCode loads a promo by its normalized code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.WithContext(ctx).
		Where("code = ?", normalizeCode(code)).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// IncrementUsage bumps usage_count only while max_uses still allows it.
// Returns the number of rows touched; zero means the code was exhausted or
// deactivated since validation.
func (r *Repository) IncrementUsage(ctx context.Context, code string) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE promo_codes
		SET usage_count = usage_count + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE code = ?
			AND is_active = ?
			AND (max_uses IS NULL OR usage_count < max_uses)
	`, normalizeCode(code), true)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
