package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indipaws/petstore-backend/api/middleware"
	cartsvc "github.com/indipaws/petstore-backend/internal/cart"
	ordersvc "github.com/indipaws/petstore-backend/internal/orders"
	"github.com/indipaws/petstore-backend/internal/pricing"
	"github.com/indipaws/petstore-backend/pkg/db/models"
	"github.com/indipaws/petstore-backend/pkg/enums"
	"github.com/indipaws/petstore-backend/pkg/logger"
)

func testControllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Level: logger.ParseLevel("error"), Output: io.Discard})
}

// stubOrderService records arguments and serves canned responses.
type stubOrderService struct {
	quoteFn   func(ctx context.Context, input ordersvc.QuoteInput) (*pricing.Quote, error)
	confirmFn func(ctx context.Context, input ordersvc.ConfirmInput) (*models.Order, error)
	cancelFn  func(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	shipFn    func(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	deliverFn func(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	reorderFn func(ctx context.Context, identity cartsvc.Identity, email string, orderID uuid.UUID) (*models.Cart, []ordersvc.UnavailableItem, error)
	getFn     func(ctx context.Context, identity cartsvc.Identity, email string, orderID uuid.UUID) (*models.Order, error)
	listFn    func(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

func (s *stubOrderService) Quote(ctx context.Context, input ordersvc.QuoteInput) (*pricing.Quote, error) {
	return s.quoteFn(ctx, input)
}

func (s *stubOrderService) Confirm(ctx context.Context, input ordersvc.ConfirmInput) (*models.Order, error) {
	return s.confirmFn(ctx, input)
}

func (s *stubOrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return s.cancelFn(ctx, userID, orderID)
}

func (s *stubOrderService) Ship(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.shipFn(ctx, orderID)
}

func (s *stubOrderService) Deliver(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.deliverFn(ctx, orderID)
}

func (s *stubOrderService) Reorder(ctx context.Context, identity cartsvc.Identity, email string, orderID uuid.UUID) (*models.Cart, []ordersvc.UnavailableItem, error) {
	return s.reorderFn(ctx, identity, email, orderID)
}

func (s *stubOrderService) Get(ctx context.Context, identity cartsvc.Identity, email string, orderID uuid.UUID) (*models.Order, error) {
	return s.getFn(ctx, identity, email, orderID)
}

func (s *stubOrderService) List(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.listFn(ctx, userID)
}

func sampleOrder(userID *uuid.UUID) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		OrderNumber:    "IP-2026-004821",
		UserID:         userID,
		Email:          "buyer@example.com",
		Status:         enums.OrderStatusPending,
		SubtotalCents:  7550,
		DiscountCents:  1510,
		TaxCents:       483,
		TotalCents:     6523,
		ShippingMethod: "standard",
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Name: "Tuff Chew Bone", UnitPriceCents: 2500, Quantity: 2},
		},
	}
}

func withRouteParam(r *http.Request, name, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(name, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestListOrdersRequiresAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	ListOrders(&stubOrderService{}, testControllerLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListOrdersReturnsOwnOrders(t *testing.T) {
	userID := uuid.New()
	var gotUser uuid.UUID
	svc := &stubOrderService{
		listFn: func(_ context.Context, id uuid.UUID) ([]models.Order, error) {
			gotUser = id
			return []models.Order{*sampleOrder(&id)}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), userID, "buyer@example.com"))
	rec := httptest.NewRecorder()
	ListOrders(svc, testControllerLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotUser)

	var envelope struct {
		Data []orderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "IP-2026-004821", envelope.Data[0].OrderNumber)
}

func TestGetOrderPassesGuestEmail(t *testing.T) {
	orderID := uuid.New()
	var gotEmail string
	var gotIdentity cartsvc.Identity
	svc := &stubOrderService{
		getFn: func(_ context.Context, identity cartsvc.Identity, email string, id uuid.UUID) (*models.Order, error) {
			gotIdentity = identity
			gotEmail = email
			require.Equal(t, orderID, id)
			return sampleOrder(nil), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String()+"?email=buyer@example.com", nil)
	req = withRouteParam(req, "orderId", orderID.String())
	rec := httptest.NewRecorder()
	GetOrder(svc, testControllerLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "buyer@example.com", gotEmail)
	assert.False(t, gotIdentity.Valid(), "guest without a session carries an empty identity")

	data := decodeData(t, rec)
	assert.Equal(t, "IP-2026-004821", data["order_number"])
}

func TestGetOrderRejectsMalformedID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	req = withRouteParam(req, "orderId", "not-a-uuid")
	rec := httptest.NewRecorder()
	GetOrder(&stubOrderService{}, testControllerLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelOrderRequiresAuth(t *testing.T) {
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", nil)
	req = withRouteParam(req, "orderId", orderID.String())
	rec := httptest.NewRecorder()
	CancelOrder(&stubOrderService{}, testControllerLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCancelOrderDelegates(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	var gotUser, gotOrder uuid.UUID
	svc := &stubOrderService{
		cancelFn: func(_ context.Context, uid, oid uuid.UUID) (*models.Order, error) {
			gotUser, gotOrder = uid, oid
			order := sampleOrder(&uid)
			order.Status = enums.OrderStatusCancelled
			return order, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", nil)
	req = withRouteParam(req, "orderId", orderID.String())
	req = req.WithContext(middleware.WithUser(req.Context(), userID, "buyer@example.com"))
	rec := httptest.NewRecorder()
	CancelOrder(svc, testControllerLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, orderID, gotOrder)
	assert.Equal(t, "cancelled", decodeData(t, rec)["status"])
}

func TestReorderRequiresIdentity(t *testing.T) {
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/reorder", nil)
	req = withRouteParam(req, "orderId", orderID.String())
	rec := httptest.NewRecorder()
	ReorderOrder(&stubOrderService{}, testControllerLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReorderReturnsCartAndUnavailable(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{
		reorderFn: func(_ context.Context, identity cartsvc.Identity, _ string, _ uuid.UUID) (*models.Cart, []ordersvc.UnavailableItem, error) {
			sessionID, ok := identity.SessionID()
			require.True(t, ok)
			require.Equal(t, "sess-77", sessionID)
			return &models.Cart{ID: uuid.New()}, nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/reorder", nil)
	req = withRouteParam(req, "orderId", orderID.String())
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-77"))
	rec := httptest.NewRecorder()
	ReorderOrder(svc, testControllerLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	unavailable, ok := data["unavailable_items"].([]any)
	require.True(t, ok, "unavailable_items must be an array even when empty")
	assert.Empty(t, unavailable)
}
