package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indipaws/petstore-backend/internal/cart"
	"github.com/indipaws/petstore-backend/internal/catalog"
	"github.com/indipaws/petstore-backend/internal/notifications"
	"github.com/indipaws/petstore-backend/internal/pricing"
	"github.com/indipaws/petstore-backend/pkg/config"
	"github.com/indipaws/petstore-backend/pkg/db"
	"github.com/indipaws/petstore-backend/pkg/db/models"
	"github.com/indipaws/petstore-backend/pkg/enums"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
	"github.com/indipaws/petstore-backend/pkg/logger"
	"github.com/indipaws/petstore-backend/pkg/metrics"
	"github.com/indipaws/petstore-backend/pkg/types"
)

const maxOrderNumberAttempts = 5

const (
	orderNumberConstraint   = "ux_orders_order_number"
	paymentIntentConstraint = "ux_orders_payment_intent_id"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartStore interface {
	Get(ctx context.Context, identity cart.Identity) (*models.Cart, error)
	AddItem(ctx context.Context, identity cart.Identity, productID uuid.UUID, qty int) (*models.Cart, error)
}

type stockLedger interface {
	DecrementAll(ctx context.Context, tx *gorm.DB, lines []catalog.Line) ([]catalog.StockIssue, error)
	Restore(ctx context.Context, tx *gorm.DB, lines []catalog.Line) error
	AvailableQty(ctx context.Context, productID uuid.UUID) (int, error)
}

type promoLedger interface {
	Validate(ctx context.Context, code string, subtotalCents int) (*models.PromoCode, error)
	ConsumeUsage(ctx context.Context, tx *gorm.DB, code string) error
}

type shippingQuoter interface {
	ByCode(ctx context.Context, code string, subtotalCents int) (pricing.ShippingRate, error)
}

type refunder interface {
	Refund(ctx context.Context, intentID string) error
}

type notifier interface {
	SendOrderConfirmation(ctx context.Context, notice notifications.OrderNotice) error
	SendCancellationNotice(ctx context.Context, notice notifications.OrderNotice) error
}

type productLister interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ConfirmInput is everything checkout hands over to turn a cart into an order.
type ConfirmInput struct {
	Identity        cart.Identity
	Email           string
	ShippingAddress types.Address
	BillingAddress  *types.Address
	ShippingMethod  string
	PromoCode       *string
	PaymentIntentID string
}

// QuoteInput prices a cart without committing anything.
type QuoteInput struct {
	Identity       cart.Identity
	ShippingMethod string
	PromoCode      *string
}

// UnavailableItem reports one order line that could not be re-added on reorder.
type UnavailableItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Reason    string    `json:"reason"`
}

// Reorder rejection reasons.
const (
	ReorderReasonMissing    = "missing"
	ReorderReasonInactive   = "inactive"
	ReorderReasonOutOfStock = "out_of_stock"
)

// Service runs the order workflow from checkout through fulfillment.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) (*pricing.Quote, error)
	Confirm(ctx context.Context, input ConfirmInput) (*models.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	Ship(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Deliver(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Reorder(ctx context.Context, identity cart.Identity, email string, orderID uuid.UUID) (*models.Cart, []UnavailableItem, error)
	Get(ctx context.Context, identity cart.Identity, email string, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

type service struct {
	repo     *Repository
	cartRepo *cart.Repository
	tx       txRunner
	carts    cartStore
	stock    stockLedger
	promos   promoLedger
	shipping shippingQuoter
	payments refunder
	notify   notifier
	products productLister
	metrics  *metrics.StorefrontMetrics
	logg     *logger.Logger
	checkout config.CheckoutConfig
	now      func() time.Time
	rng      *rand.Rand
	dispatch func(ctx context.Context, fn func(context.Context) error)
}

// Deps bundles the collaborators the order workflow needs.
type Deps struct {
	Repo     *Repository
	CartRepo *cart.Repository
	Tx       txRunner
	Carts    cartStore
	Stock    stockLedger
	Promos   promoLedger
	Shipping shippingQuoter
	Payments refunder
	Notify   notifier
	Products productLister
	Metrics  *metrics.StorefrontMetrics
	Logger   *logger.Logger
	Checkout config.CheckoutConfig
}

// NewService builds the order workflow service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.CartRepo == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Carts == nil:
		return nil, fmt.Errorf("cart store required")
	case deps.Stock == nil:
		return nil, fmt.Errorf("stock ledger required")
	case deps.Promos == nil:
		return nil, fmt.Errorf("promo ledger required")
	case deps.Shipping == nil:
		return nil, fmt.Errorf("shipping quoter required")
	case deps.Payments == nil:
		return nil, fmt.Errorf("payment orchestrator required")
	case deps.Notify == nil:
		return nil, fmt.Errorf("notifier required")
	case deps.Products == nil:
		return nil, fmt.Errorf("product lister required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}

	s := &service{
		repo:     deps.Repo,
		cartRepo: deps.CartRepo,
		tx:       deps.Tx,
		carts:    deps.Carts,
		stock:    deps.Stock,
		promos:   deps.Promos,
		shipping: deps.Shipping,
		payments: deps.Payments,
		notify:   deps.Notify,
		products: deps.Products,
		metrics:  deps.Metrics,
		logg:     deps.Logger,
		checkout: deps.Checkout,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.dispatch = s.dispatchAsync
	return s, nil
}

// Quote prices the current cart with the optional promo and shipping method.
func (s *service) Quote(ctx context.Context, input QuoteInput) (*pricing.Quote, error) {
	if !input.Identity.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity required")
	}
	cartRecord, err := s.carts.Get(ctx, input.Identity)
	if err != nil {
		return nil, err
	}
	if len(cartRecord.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	quote, _, _, err := s.buildQuote(ctx, cartRecord, input.PromoCode, input.ShippingMethod)
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// Confirm turns the cart into a durable order. The operation is idempotent on
// the payment intent: a retry lands on the already-created order.
func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*models.Order, error) {
	if err := validateConfirmInput(input); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByPaymentIntentID(ctx, input.PaymentIntentID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check payment intent")
	}

	cartRecord, err := s.carts.Get(ctx, input.Identity)
	if err != nil {
		return nil, err
	}
	if len(cartRecord.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	quote, promo, items, err := s.buildQuote(ctx, cartRecord, input.PromoCode, input.ShippingMethod)
	if err != nil {
		return nil, err
	}

	lines := make([]catalog.Line, 0, len(cartRecord.Items))
	for _, item := range cartRecord.Items {
		lines = append(lines, catalog.Line{ProductID: item.ProductID, Qty: item.Quantity})
	}

	var userID *uuid.UUID
	if id, ok := input.Identity.UserID(); ok {
		userID = &id
	}

	var created *models.Order
	for attempt := 1; ; attempt++ {
		order := s.buildOrder(input, quote, items, userID)

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if _, err := s.stock.DecrementAll(ctx, tx, lines); err != nil {
				return err
			}
			if promo != nil {
				if err := s.promos.ConsumeUsage(ctx, tx, promo.Code); err != nil {
					return err
				}
			}
			if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
				return err
			}
			return s.cartRepo.WithTx(tx).DeleteItems(ctx, cartRecord.ID)
		})
		if err == nil {
			created = order
			break
		}

		if db.IsUniqueViolation(err, orderNumberConstraint) && attempt < maxOrderNumberAttempts {
			continue
		}
		if db.IsUniqueViolation(err, paymentIntentConstraint) {
			// a concurrent confirmation for the same intent won the race
			return s.repo.GetByPaymentIntentID(ctx, input.PaymentIntentID)
		}
		if coded := pkgerrors.As(err); coded != nil {
			if coded.Code() == pkgerrors.CodeInsufficientStock {
				s.metrics.IncStockConflicts()
			}
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	s.metrics.IncOrdersCreated()
	ctx = s.logg.WithOrderNumber(ctx, created.OrderNumber)
	s.logg.Info(ctx, "order confirmed")

	notice := noticeFor(created)
	s.dispatch(ctx, func(nctx context.Context) error {
		return s.notify.SendOrderConfirmation(nctx, notice)
	})

	return created, nil
}

// Cancel compensates a not-yet-shipped order: stock back, status flipped, then
// a best-effort refund and notice outside the transaction.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	if !order.Status.CanCancel() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
	}

	lines := make([]catalog.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, catalog.Line{ProductID: item.ProductID, Qty: item.Quantity})
	}

	now := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.stock.Restore(ctx, tx, lines); err != nil {
			return err
		}
		return s.repo.WithTx(tx).SetStatus(ctx, order.ID, enums.OrderStatusCancelled, now)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}

	s.metrics.IncOrdersCancelled()
	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(ctx, "order cancelled")

	_ = s.payments.Refund(ctx, order.PaymentIntentID)

	notice := noticeFor(order)
	s.dispatch(ctx, func(nctx context.Context) error {
		return s.notify.SendCancellationNotice(nctx, notice)
	})

	return s.load(ctx, orderID)
}

// Ship marks a paid order as handed to the carrier.
func (s *service) Ship(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, enums.OrderStatusShipped, func(status enums.OrderStatus) bool {
		return status == enums.OrderStatusPending || status == enums.OrderStatusProcessing
	})
}

// Deliver marks a shipped order as received.
func (s *service) Deliver(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, enums.OrderStatusDelivered, func(status enums.OrderStatus) bool {
		return status == enums.OrderStatusShipped
	})
}

// Reorder adds a past order's lines back into the cart, line by line. Lines
// whose product vanished, went inactive, or ran dry are reported, not fatal.
func (s *service) Reorder(ctx context.Context, identity cart.Identity, email string, orderID uuid.UUID) (*models.Cart, []UnavailableItem, error) {
	if !identity.Valid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity required")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !viewable(order, identity, email) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	current, err := s.carts.Get(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	inCart := map[uuid.UUID]int{}
	for _, item := range current.Items {
		inCart[item.ProductID] = item.Quantity
	}

	var unavailable []UnavailableItem
	for _, item := range order.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				unavailable = append(unavailable, UnavailableItem{ProductID: item.ProductID, Name: item.Name, Reason: ReorderReasonMissing})
				continue
			}
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive {
			unavailable = append(unavailable, UnavailableItem{ProductID: item.ProductID, Name: item.Name, Reason: ReorderReasonInactive})
			continue
		}

		available, err := s.stock.AvailableQty(ctx, item.ProductID)
		if err != nil {
			return nil, nil, err
		}
		room := available - inCart[item.ProductID]
		if room <= 0 {
			unavailable = append(unavailable, UnavailableItem{ProductID: item.ProductID, Name: item.Name, Reason: ReorderReasonOutOfStock})
			continue
		}

		qty := item.Quantity
		if qty > room {
			qty = room
		}
		if _, err := s.carts.AddItem(ctx, identity, item.ProductID, qty); err != nil {
			unavailable = append(unavailable, UnavailableItem{ProductID: item.ProductID, Name: item.Name, Reason: ReorderReasonOutOfStock})
			continue
		}
		inCart[item.ProductID] += qty
	}

	updated, err := s.carts.Get(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	return updated, unavailable, nil
}

// Get returns one order scoped to its owner. Guest orders are readable only
// with the order id plus a matching email.
func (s *service) Get(ctx context.Context, identity cart.Identity, email string, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !viewable(order, identity, email) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// List returns the authenticated user's orders, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (s *service) buildQuote(ctx context.Context, cartRecord *models.Cart, promoCode *string, shippingMethod string) (*pricing.Quote, *models.PromoCode, []pricing.Item, error) {
	ids := make([]uuid.UUID, 0, len(cartRecord.Items))
	for _, item := range cartRecord.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	names := make(map[uuid.UUID]string, len(products))
	for _, product := range products {
		names[product.ID] = product.Name
	}

	items := make([]pricing.Item, 0, len(cartRecord.Items))
	subtotal := 0
	for _, item := range cartRecord.Items {
		items = append(items, pricing.Item{
			ProductID:      item.ProductID,
			Name:           names[item.ProductID],
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
		subtotal += item.UnitPriceCents * item.Quantity
	}

	var promoArg *pricing.Promo
	var promo *models.PromoCode
	if promoCode != nil && strings.TrimSpace(*promoCode) != "" {
		promo, err = s.promos.Validate(ctx, *promoCode, subtotal)
		if err != nil {
			return nil, nil, nil, err
		}
		promoArg = &pricing.Promo{Code: promo.Code, Type: promo.DiscountType, Value: promo.DiscountValue}
	}

	rate := pricing.ShippingRate{}
	if strings.TrimSpace(shippingMethod) != "" {
		// free-shipping thresholds key off the cart subtotal, not the
		// discounted amount
		rate, err = s.shipping.ByCode(ctx, shippingMethod, subtotal)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	quote := pricing.Compute(items, promoArg, rate, s.checkout.TaxRateBasisPoints)
	return &quote, promo, items, nil
}

func (s *service) buildOrder(input ConfirmInput, quote *pricing.Quote, items []pricing.Item, userID *uuid.UUID) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     NewOrderNumber(s.now(), s.rng),
		UserID:          userID,
		Email:           strings.ToLower(strings.TrimSpace(input.Email)),
		Status:          enums.OrderStatusPending,
		SubtotalCents:   quote.SubtotalCents,
		DiscountCents:   quote.DiscountCents,
		ShippingCents:   quote.ShippingCents,
		TaxCents:        quote.TaxCents,
		TotalCents:      quote.TotalCents,
		ShippingMethod:  strings.ToLower(strings.TrimSpace(input.ShippingMethod)),
		ShippingAddress: input.ShippingAddress.Normalized(),
		PaymentIntentID: input.PaymentIntentID,
		PromoCode:       quote.PromoCode,
	}
	if input.BillingAddress != nil {
		billing := input.BillingAddress.Normalized()
		order.BillingAddress = &billing
	}
	for _, item := range items {
		order.Items = append(order.Items, models.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}
	return order
}

func (s *service) transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, allowed func(enums.OrderStatus) bool) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !allowed(order.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}
	if err := s.repo.SetStatus(ctx, order.ID, target, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return s.load(ctx, orderID)
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) dispatchAsync(ctx context.Context, fn func(context.Context) error) {
	timeout := s.checkout.NotifyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	go func() {
		defer cancel()
		if err := fn(nctx); err != nil {
			s.logg.Error(nctx, "notification dispatch failed", err)
		}
	}()
}

func validateConfirmInput(input ConfirmInput) error {
	if !input.Identity.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart identity required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(input.PaymentIntentID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	if strings.TrimSpace(input.ShippingMethod) == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidShipping, "shipping method is required")
	}
	if err := input.ShippingAddress.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	if input.BillingAddress != nil {
		if err := input.BillingAddress.Validate(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing address")
		}
	}
	return nil
}

func viewable(order *models.Order, identity cart.Identity, email string) bool {
	if userID, ok := identity.UserID(); ok {
		return order.UserID != nil && *order.UserID == userID
	}
	if order.UserID != nil {
		return false
	}
	return email != "" && strings.EqualFold(strings.TrimSpace(email), order.Email)
}

func noticeFor(order *models.Order) notifications.OrderNotice {
	return notifications.OrderNotice{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Email:       order.Email,
		TotalCents:  order.TotalCents,
	}
}
