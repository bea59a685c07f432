package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indipaws/petstore-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
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

// FindByIdentity loads the cart for the given owner with its items.
func (r *Repository) FindByIdentity(ctx context.Context, identity Identity) (*models.Cart, error) {
	query := r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
	if sessionID, ok := identity.SessionID(); ok {
		query = query.Where("session_id = ?", sessionID)
	} else if userID, ok := identity.UserID(); ok {
		query = query.Where("user_id = ?", userID)
	} else {
		return nil, gorm.ErrRecordNotFound
	}

	var cart models.Cart
	if err := query.First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts a new cart for the owner.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// Touch refreshes the cart's expiry and updated_at.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"expires_at": expiresAt,
			"updated_at": time.Now().UTC(),
		}).Error
}

// GetItem loads one cart line scoped to its cart.
func (r *Repository) GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByProduct returns the line holding productID, if any.
func (r *Repository) FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItemQty sets the quantity of one line.
func (r *Repository) UpdateItemQty(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"quantity":   qty,
			"updated_at": time.Now().UTC(),
		}).Error
}

// DeleteItem removes one line from a cart.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{}).Error
}

// DeleteItems removes every line of a cart.
func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// DeleteCart removes the cart row and its lines.
func (r *Repository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	if err := r.DeleteItems(ctx, cartID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", cartID).
		Delete(&models.Cart{}).Error
}

// DeleteExpired removes carts whose expiry passed before now. Returns the
// number of carts removed.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx)
	if err := tx.Exec(`
		DELETE FROM cart_items
		WHERE cart_id IN (SELECT id FROM carts WHERE expires_at < ?)
	`, now).Error; err != nil {
		return 0, err
	}
	res := tx.Where("expires_at < ?", now).Delete(&models.Cart{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
