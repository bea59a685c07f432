package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indipaws/petstore-backend/pkg/db/models"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
)

// Line pairs a product with a quantity for bulk stock movements.
type Line struct {
	ProductID uuid.UUID
	Qty       int
}

// StockIssue reports one product that could not satisfy a requested quantity.
type StockIssue struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Ledger is the single authority over product stock. All decrements run as
// conditional updates so concurrent checkouts can never drive stock negative.
type Ledger interface {
	IsAvailable(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	AvailableQty(ctx context.Context, productID uuid.UUID) (int, error)
	Adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int) error
	DecrementAll(ctx context.Context, tx *gorm.DB, lines []Line) ([]StockIssue, error)
	Restore(ctx context.Context, tx *gorm.DB, lines []Line) error
}

type ledger struct {
	db *gorm.DB
}

// NewLedger builds the stock ledger backed by the provided DB handle.
func NewLedger(db *gorm.DB) (Ledger, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &ledger{db: db}, nil
}

// IsAvailable reports whether an active product can cover qty units.
func (l *ledger) IsAvailable(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	available, err := l.AvailableQty(ctx, productID)
	if err != nil {
		return false, err
	}
	return available >= qty, nil
}

// AvailableQty returns the live stock for an active product.
func (l *ledger) AvailableQty(ctx context.Context, productID uuid.UUID) (int, error) {
	var product models.Product
	err := l.db.WithContext(ctx).
		Select("stock_qty", "is_active").
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product stock")
	}
	if !product.IsActive {
		return 0, nil
	}
	return product.StockQty, nil
}

// Adjust moves stock by delta inside the caller's transaction. Negative deltas
// are guarded so the row is only touched when enough stock remains.
func (l *ledger) Adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock adjustment")
	}

	if delta > 0 {
		res := tx.WithContext(ctx).Exec(`
			UPDATE products
			SET stock_qty = stock_qty + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, delta, productID)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment stock")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil
	}

	needed := -delta
	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_qty = stock_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_qty >= ?
	`, needed, productID, needed)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		available, err := l.availableQtyTx(ctx, tx, productID)
		if err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails([]StockIssue{{ProductID: productID, Requested: needed, Available: available}})
	}
	return nil
}

// DecrementAll applies the commit-time decrement for every line. When any line
// cannot be covered it keeps probing the rest so the caller gets the complete
// issue list, then reports failure and lets the transaction roll back.
func (l *ledger) DecrementAll(ctx context.Context, tx *gorm.DB, lines []Line) ([]StockIssue, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock decrement")
	}

	var issues []StockIssue
	for _, line := range lines {
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		res := tx.WithContext(ctx).Exec(`
			UPDATE products
			SET stock_qty = stock_qty - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND is_active = ? AND stock_qty >= ?
		`, line.Qty, line.ProductID, true, line.Qty)
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
		}
		if res.RowsAffected == 0 {
			available, err := l.availableQtyTx(ctx, tx, line.ProductID)
			if err != nil {
				return nil, err
			}
			issues = append(issues, StockIssue{
				ProductID: line.ProductID,
				Requested: line.Qty,
				Available: available,
			})
		}
	}
	if len(issues) > 0 {
		return issues, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(issues)
	}
	return nil, nil
}

// Restore returns stock after a cancellation. Increments are unconditional.
func (l *ledger) Restore(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock restore")
	}
	for _, line := range lines {
		if line.Qty <= 0 {
			continue
		}
		res := tx.WithContext(ctx).Exec(`
			UPDATE products
			SET stock_qty = stock_qty + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, line.Qty, line.ProductID)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore stock")
		}
	}
	return nil
}

func (l *ledger) availableQtyTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error) {
	var product models.Product
	err := tx.WithContext(ctx).
		Select("stock_qty", "is_active").
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product stock")
	}
	if !product.IsActive {
		return 0, nil
	}
	return product.StockQty, nil
}
