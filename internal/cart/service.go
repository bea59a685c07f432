package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indipaws/petstore-backend/internal/catalog"
	"github.com/indipaws/petstore-backend/pkg/config"
	"github.com/indipaws/petstore-backend/pkg/db/models"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type stockReader interface {
	AvailableQty(ctx context.Context, productID uuid.UUID) (int, error)
}

// Service exposes the cart operations behind the storefront API.
type Service interface {
	Get(ctx context.Context, identity Identity) (*models.Cart, error)
	AddItem(ctx context.Context, identity Identity, productID uuid.UUID, qty int) (*models.Cart, error)
	UpdateItem(ctx context.Context, identity Identity, itemID uuid.UUID, qty int) (*models.Cart, error)
	RemoveItem(ctx context.Context, identity Identity, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, identity Identity) error
	Merge(ctx context.Context, sessionID string, userID uuid.UUID) (*models.Cart, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	products productLoader
	stock    stockReader
	ttls     config.CartConfig
	now      func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, products productLoader, stock stockReader, ttls config.CartConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		stock:    stock,
		ttls:     ttls,
		now:      time.Now,
	}, nil
}

// Get returns the owner's cart, creating an empty one on first touch.
func (s *service) Get(ctx context.Context, identity Identity) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity required")
	}
	return s.getOrCreate(ctx, identity)
}

// AddItem validates live availability, captures the price at add time, and
// merges duplicate product lines.
func (s *service) AddItem(ctx context.Context, identity Identity, productID uuid.UUID, qty int) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.loadActiveProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.getOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItemByProduct(ctx, cart.ID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	requested := qty
	if existing != nil {
		requested += existing.Quantity
	}
	if err := s.ensureStock(ctx, productID, requested); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if existing != nil {
			if err := repo.UpdateItemQty(ctx, existing.ID, requested); err != nil {
				return err
			}
		} else {
			item := &models.CartItem{
				ID:             uuid.New(),
				CartID:         cart.ID,
				ProductID:      productID,
				Quantity:       qty,
				UnitPriceCents: product.PriceCents,
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return err
			}
		}
		return repo.Touch(ctx, cart.ID, s.expiry(identity))
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart item")
	}

	return s.repo.FindByIdentity(ctx, identity)
}

// UpdateItem sets a line's quantity; zero removes the line.
func (s *service) UpdateItem(ctx context.Context, identity Identity, itemID uuid.UUID, qty int) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity required")
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}
	if qty == 0 {
		return s.RemoveItem(ctx, identity, itemID)
	}

	cart, err := s.requireCart(ctx, identity)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	if _, err := s.loadActiveProduct(ctx, item.ProductID); err != nil {
		return nil, err
	}
	if err := s.ensureStock(ctx, item.ProductID, qty); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateItemQty(ctx, item.ID, qty); err != nil {
			return err
		}
		return repo.Touch(ctx, cart.ID, s.expiry(identity))
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart item")
	}

	return s.repo.FindByIdentity(ctx, identity)
}

// RemoveItem drops one line unconditionally.
func (s *service) RemoveItem(ctx context.Context, identity Identity, itemID uuid.UUID) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity required")
	}
	cart, err := s.requireCart(ctx, identity)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
			return err
		}
		return repo.Touch(ctx, cart.ID, s.expiry(identity))
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}

	return s.repo.FindByIdentity(ctx, identity)
}

// Clear removes every line but keeps the cart row.
func (s *service) Clear(ctx context.Context, identity Identity) error {
	if !identity.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart identity required")
	}
	cart, err := s.requireCart(ctx, identity)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Merge folds a guest cart into the user's cart at login. Overlapping product
// lines are summed after re-validating the sum against live stock; a line that
// fails re-validation is silently skipped, leaving the user's quantity
// untouched. The guest cart is deleted either way.
func (s *service) Merge(ctx context.Context, sessionID string, userID uuid.UUID) (*models.Cart, error) {
	anonymous := Anonymous(sessionID)
	if !anonymous.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	owned := Owned(userID)

	guest, err := s.repo.FindByIdentity(ctx, anonymous)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.getOrCreate(ctx, owned)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
	}

	target, err := s.getOrCreate(ctx, owned)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, line := range guest.Items {
			if err := s.mergeLine(ctx, repo, target.ID, line); err != nil {
				return err
			}
		}
		if err := repo.DeleteCart(ctx, guest.ID); err != nil {
			return err
		}
		return repo.Touch(ctx, target.ID, s.expiry(owned))
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge carts")
	}

	return s.repo.FindByIdentity(ctx, owned)
}

func (s *service) mergeLine(ctx context.Context, repo *Repository, targetCartID uuid.UUID, line models.CartItem) error {
	product, err := s.products.GetByID(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // product vanished, drop the line
		}
		return err
	}
	if !product.IsActive {
		return nil
	}

	available, err := s.stock.AvailableQty(ctx, line.ProductID)
	if err != nil {
		return err
	}

	existing, err := repo.FindItemByProduct(ctx, targetCartID, line.ProductID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if existing != nil {
		merged := existing.Quantity + line.Quantity
		if merged > available {
			// failed re-validation skips the merge for this line; the
			// user's existing quantity stays as-is
			return nil
		}
		return repo.UpdateItemQty(ctx, existing.ID, merged)
	}

	if line.Quantity > available {
		return nil
	}
	return repo.CreateItem(ctx, &models.CartItem{
		ID:             uuid.New(),
		CartID:         targetCartID,
		ProductID:      line.ProductID,
		Quantity:       line.Quantity,
		UnitPriceCents: line.UnitPriceCents,
	})
}

// PurgeExpired removes carts past their expiry. Used by the sweeper.
func (s *service) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.repo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge expired carts")
	}
	return count, nil
}

func (s *service) getOrCreate(ctx context.Context, identity Identity) (*models.Cart, error) {
	cart, err := s.repo.FindByIdentity(ctx, identity)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	fresh := &models.Cart{
		ID:        uuid.New(),
		ExpiresAt: s.expiry(identity),
	}
	if sessionID, ok := identity.SessionID(); ok {
		fresh.SessionID = &sessionID
	} else if userID, ok := identity.UserID(); ok {
		fresh.UserID = &userID
	}

	created, err := s.repo.Create(ctx, fresh)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (s *service) requireCart(ctx context.Context, identity Identity) (*models.Cart, error) {
	cart, err := s.repo.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) loadActiveProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	return product, nil
}

func (s *service) ensureStock(ctx context.Context, productID uuid.UUID, requested int) error {
	available, err := s.stock.AvailableQty(ctx, productID)
	if err != nil {
		return err
	}
	if available < requested {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails([]catalog.StockIssue{{
				ProductID: productID,
				Requested: requested,
				Available: available,
			}})
	}
	return nil
}

func (s *service) expiry(identity Identity) time.Time {
	ttl := s.ttls.OwnedTTL
	if identity.IsAnonymous() {
		ttl = s.ttls.AnonymousTTL
	}
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return s.now().UTC().Add(ttl)
}
