package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartsvc "github.com/indipaws/petstore-backend/internal/cart"
	"github.com/indipaws/petstore-backend/internal/catalog"
	ordersvc "github.com/indipaws/petstore-backend/internal/orders"
	"github.com/indipaws/petstore-backend/internal/payments"
	"github.com/indipaws/petstore-backend/internal/pricing"
	shippingsvc "github.com/indipaws/petstore-backend/internal/shipping"
	"github.com/indipaws/petstore-backend/pkg/config"
	"github.com/indipaws/petstore-backend/pkg/db/models"
	"github.com/indipaws/petstore-backend/pkg/enums"
	"github.com/indipaws/petstore-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type memoryIdempotencyStore struct {
	values map[string]string
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	if value, ok := m.values[key]; ok {
		return value, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if m.values == nil {
		m.values = map[string]string{}
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

type memoryRateLimiter struct {
	counts map[string]int64
}

func (m *memoryRateLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

type stubCartService struct{}

func (stubCartService) Get(context.Context, cartsvc.Identity) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New()}, nil
}

func (stubCartService) AddItem(context.Context, cartsvc.Identity, uuid.UUID, int) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New()}, nil
}

func (stubCartService) UpdateItem(context.Context, cartsvc.Identity, uuid.UUID, int) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New()}, nil
}

func (stubCartService) RemoveItem(context.Context, cartsvc.Identity, uuid.UUID) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New()}, nil
}

func (stubCartService) Clear(context.Context, cartsvc.Identity) error { return nil }

func (stubCartService) Merge(context.Context, string, uuid.UUID) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New()}, nil
}

func (stubCartService) PurgeExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type stubShippingService struct{}

func (stubShippingService) Rates(context.Context, int) ([]shippingsvc.Rate, error) {
	return []shippingsvc.Rate{{Code: "standard", Name: "Standard", PriceCents: 599}}, nil
}

func (stubShippingService) ByCode(context.Context, string, int) (pricing.ShippingRate, error) {
	return pricing.ShippingRate{Code: "standard", Name: "Standard", PriceCents: 599}, nil
}

type stubOrderService struct{}

func testOrder() *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		OrderNumber: "IP-2026-000042",
		Email:       "buyer@example.com",
		Status:      enums.OrderStatusPending,
	}
}

func (stubOrderService) Quote(context.Context, ordersvc.QuoteInput) (*pricing.Quote, error) {
	return &pricing.Quote{SubtotalCents: 7550, TotalCents: 8154}, nil
}

func (stubOrderService) Confirm(context.Context, ordersvc.ConfirmInput) (*models.Order, error) {
	return testOrder(), nil
}

func (stubOrderService) Cancel(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return testOrder(), nil
}

func (stubOrderService) Ship(context.Context, uuid.UUID) (*models.Order, error) {
	return testOrder(), nil
}

func (stubOrderService) Deliver(context.Context, uuid.UUID) (*models.Order, error) {
	return testOrder(), nil
}

func (stubOrderService) Reorder(context.Context, cartsvc.Identity, string, uuid.UUID) (*models.Cart, []ordersvc.UnavailableItem, error) {
	return &models.Cart{ID: uuid.New()}, nil, nil
}

func (stubOrderService) Get(context.Context, cartsvc.Identity, string, uuid.UUID) (*models.Order, error) {
	return testOrder(), nil
}

func (stubOrderService) List(context.Context, uuid.UUID) ([]models.Order, error) {
	return []models.Order{*testOrder()}, nil
}

type stubOrchestrator struct{}

func (stubOrchestrator) CreateIntent(context.Context, int, map[string]string) (*payments.Intent, error) {
	return &payments.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

func (stubOrchestrator) Refund(context.Context, string) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App:   config.AppConfig{Env: "test", Port: "0"},
		JWT:   config.JWTConfig{Secret: "router-secret", Issuer: "indipaws-identity"},
		Admin: config.AdminConfig{APIKey: "router-admin-key"},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "routes-test", Level: logger.ParseLevel("error"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		stubPinger{},
		&memoryIdempotencyStore{},
		&memoryRateLimiter{},
		catalog.NewRepository(nil),
		stubCartService{},
		stubShippingService{},
		stubOrderService{},
		stubOrchestrator{},
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   uuid.NewString(),
		"email": "buyer@example.com",
		"iss":   cfg.JWT.Issuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
	require.NoError(t, err)
	return signed
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(testConfig())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartRequiresIdentity(t *testing.T) {
	router := newTestRouter(testConfig())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartAcceptsSessionHeader(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-Id", "sess-route-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderListRequiresBearerToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuestOrderLookupBypassesAuth(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString()+"?email=buyer@example.com", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfirmRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	body := `{"email":"buyer@example.com","shipping_address":{"name":"D","line1":"1 Main","city":"Portland","state":"OR","postal_code":"97209","country":"US"},"shipping_method":"standard","payment_intent_id":"pi_1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/confirm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", "sess-route-2")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout/confirm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", "sess-route-2")
	req.Header.Set("Idempotency-Key", "route-key-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestConfirmRateLimit(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	body := `{"email":"buyer@example.com","shipping_address":{"name":"D","line1":"1 Main","city":"Portland","state":"OR","postal_code":"97209","country":"US"},"shipping_method":"standard","payment_intent_id":"pi_%d"}`
	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/confirm", strings.NewReader(fmt.Sprintf(body, i)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Session-Id", "sess-route-3")
		req.Header.Set("Idempotency-Key", fmt.Sprintf("rate-key-%d", i))
		req.RemoteAddr = "203.0.113.20:5000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestAdminRoutesRequireKey(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/v1/admin/orders/" + uuid.NewString() + "/ship"

	req := httptest.NewRequest(http.MethodPost, target, nil)
	req.Header.Set("Idempotency-Key", "admin-key-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, target, nil)
	req.Header.Set("Idempotency-Key", "admin-key-2")
	req.Header.Set("X-Admin-Key", cfg.Admin.APIKey)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestShippingOptionsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/shipping-options", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
