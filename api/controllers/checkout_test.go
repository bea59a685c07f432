package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indipaws/petstore-backend/api/middleware"
	ordersvc "github.com/indipaws/petstore-backend/internal/orders"
	"github.com/indipaws/petstore-backend/internal/payments"
	"github.com/indipaws/petstore-backend/internal/pricing"
	"github.com/indipaws/petstore-backend/pkg/db/models"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
)

type stubOrchestrator struct {
	createFn func(ctx context.Context, amountCents int, metadata map[string]string) (*payments.Intent, error)
}

func (s *stubOrchestrator) CreateIntent(ctx context.Context, amountCents int, metadata map[string]string) (*payments.Intent, error) {
	return s.createFn(ctx, amountCents, metadata)
}

func (s *stubOrchestrator) Refund(context.Context, string) error {
	panic("not used by controllers")
}

func sampleQuote() *pricing.Quote {
	promo := "SAVE20"
	return &pricing.Quote{
		SubtotalCents: 7550,
		DiscountCents: 1510,
		ShippingCents: 0,
		TaxCents:      483,
		TotalCents:    6523,
		PromoCode:     &promo,
	}
}

func TestQuoteCheckoutReturnsBreakdown(t *testing.T) {
	var gotInput ordersvc.QuoteInput
	svc := &stubOrderService{
		quoteFn: func(_ context.Context, input ordersvc.QuoteInput) (*pricing.Quote, error) {
			gotInput = input
			return sampleQuote(), nil
		},
	}

	body := `{"shipping_method":"standard","promo_code":"SAVE20"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/quote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-9"))
	rec := httptest.NewRecorder()
	QuoteCheckout(svc, testControllerLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "standard", gotInput.ShippingMethod)
	require.NotNil(t, gotInput.PromoCode)
	assert.Equal(t, "SAVE20", *gotInput.PromoCode)

	data := decodeData(t, rec)
	assert.Equal(t, float64(6523), data["total_cents"])
	assert.Equal(t, float64(1510), data["discount_cents"])
}

func TestQuoteCheckoutRequiresShippingMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/quote", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-9"))
	rec := httptest.NewRecorder()
	QuoteCheckout(&stubOrderService{}, testControllerLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePaymentIntentChargesQuoteTotal(t *testing.T) {
	svc := &stubOrderService{
		quoteFn: func(_ context.Context, _ ordersvc.QuoteInput) (*pricing.Quote, error) {
			return sampleQuote(), nil
		},
	}
	var gotAmount int
	var gotMetadata map[string]string
	orchestrator := &stubOrchestrator{
		createFn: func(_ context.Context, amountCents int, metadata map[string]string) (*payments.Intent, error) {
			gotAmount = amountCents
			gotMetadata = metadata
			return &payments.Intent{ID: "pi_123", ClientSecret: "pi_123_secret"}, nil
		},
	}

	body := `{"shipping_method":"standard","promo_code":"SAVE20"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/payment-intent", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-9"))
	rec := httptest.NewRecorder()
	CreatePaymentIntent(svc, orchestrator, testControllerLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 6523, gotAmount)
	assert.Equal(t, "SAVE20", gotMetadata["promo_code"])

	data := decodeData(t, rec)
	assert.Equal(t, "pi_123", data["payment_intent_id"])
	assert.Equal(t, "pi_123_secret", data["client_secret"])
	assert.Equal(t, float64(6523), data["amount_cents"])
}

func TestConfirmCheckoutCreatesOrder(t *testing.T) {
	var gotInput ordersvc.ConfirmInput
	svc := &stubOrderService{
		confirmFn: func(_ context.Context, input ordersvc.ConfirmInput) (*models.Order, error) {
			gotInput = input
			userID, _ := input.Identity.UserID()
			return sampleOrder(&userID), nil
		},
	}

	userID := uuid.New()
	body := `{
		"email": "buyer@example.com",
		"shipping_address": {"name":"Dana Whitfield","line1":"88 Alder Ln","city":"Portland","state":"OR","postal_code":"97209","country":"US"},
		"shipping_method": "standard",
		"promo_code": "SAVE20",
		"payment_intent_id": "pi_123"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/confirm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUser(req.Context(), userID, "buyer@example.com"))
	rec := httptest.NewRecorder()
	ConfirmCheckout(svc, testControllerLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "buyer@example.com", gotInput.Email)
	assert.Equal(t, "pi_123", gotInput.PaymentIntentID)
	assert.Equal(t, "88 Alder Ln", gotInput.ShippingAddress.Line1)
	assert.Nil(t, gotInput.BillingAddress)

	data := decodeData(t, rec)
	assert.Equal(t, "IP-2026-004821", data["order_number"])
}

func TestConfirmCheckoutRejectsBadEmail(t *testing.T) {
	body := `{
		"email": "not-an-email",
		"shipping_address": {"name":"Dana Whitfield","line1":"88 Alder Ln","city":"Portland","state":"OR","postal_code":"97209","country":"US"},
		"shipping_method": "standard",
		"payment_intent_id": "pi_123"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/confirm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-9"))
	rec := httptest.NewRecorder()
	ConfirmCheckout(&stubOrderService{}, testControllerLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmCheckoutMapsServiceErrors(t *testing.T) {
	svc := &stubOrderService{
		confirmFn: func(_ context.Context, _ ordersvc.ConfirmInput) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")
		},
	}

	body := `{
		"email": "buyer@example.com",
		"shipping_address": {"name":"Dana Whitfield","line1":"88 Alder Ln","city":"Portland","state":"OR","postal_code":"97209","country":"US"},
		"shipping_method": "standard",
		"payment_intent_id": "pi_123"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/confirm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-9"))
	rec := httptest.NewRecorder()
	ConfirmCheckout(svc, testControllerLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
