package controllers

import (
	"net/http"
	"strings"

	"github.com/indipaws/petstore-backend/api/responses"
	"github.com/indipaws/petstore-backend/api/validators"
	ordersvc "github.com/indipaws/petstore-backend/internal/orders"
	"github.com/indipaws/petstore-backend/internal/payments"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
	"github.com/indipaws/petstore-backend/pkg/logger"
	"github.com/indipaws/petstore-backend/pkg/types"
)

type quoteCheckoutRequest struct {
	ShippingMethod string  `json:"shipping_method" validate:"required"`
	PromoCode      *string `json:"promo_code,omitempty"`
}

// QuoteCheckout prices the caller's cart without committing anything.
func QuoteCheckout(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		identity, err := cartIdentityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload quoteCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), ordersvc.QuoteInput{
			Identity:       identity,
			ShippingMethod: strings.TrimSpace(payload.ShippingMethod),
			PromoCode:      payload.PromoCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

type paymentIntentResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	AmountCents     int    `json:"amount_cents"`
}

// CreatePaymentIntent quotes the cart and opens a payment intent for the
// total. The client confirms the charge with the returned secret, then calls
// checkout confirm with the intent id.
func CreatePaymentIntent(svc ordersvc.Service, orchestrator payments.Orchestrator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || orchestrator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		identity, err := cartIdentityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload quoteCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), ordersvc.QuoteInput{
			Identity:       identity,
			ShippingMethod: strings.TrimSpace(payload.ShippingMethod),
			PromoCode:      payload.PromoCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		metadata := map[string]string{"shipping_method": strings.TrimSpace(payload.ShippingMethod)}
		if quote.PromoCode != nil {
			metadata["promo_code"] = *quote.PromoCode
		}
		intent, err := orchestrator.CreateIntent(r.Context(), quote.TotalCents, metadata)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, paymentIntentResponse{
			PaymentIntentID: intent.ID,
			ClientSecret:    intent.ClientSecret,
			AmountCents:     quote.TotalCents,
		})
	}
}

type confirmCheckoutRequest struct {
	Email           string         `json:"email" validate:"required,email"`
	ShippingAddress types.Address  `json:"shipping_address" validate:"required"`
	BillingAddress  *types.Address `json:"billing_address,omitempty"`
	ShippingMethod  string         `json:"shipping_method" validate:"required"`
	PromoCode       *string        `json:"promo_code,omitempty"`
	PaymentIntentID string         `json:"payment_intent_id" validate:"required"`
}

// ConfirmCheckout turns the cart into an order. Retries with the same payment
// intent land on the already-created order.
func ConfirmCheckout(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		identity, err := cartIdentityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Confirm(r.Context(), ordersvc.ConfirmInput{
			Identity:        identity,
			Email:           strings.TrimSpace(payload.Email),
			ShippingAddress: payload.ShippingAddress,
			BillingAddress:  payload.BillingAddress,
			ShippingMethod:  strings.TrimSpace(payload.ShippingMethod),
			PromoCode:       payload.PromoCode,
			PaymentIntentID: strings.TrimSpace(payload.PaymentIntentID),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
