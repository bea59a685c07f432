package payments

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/refund"

	pkgstripe "github.com/indipaws/petstore-backend/pkg/stripe"
)

type stripeGateway struct {
	client *pkgstripe.Client
}

// NewStripeGateway wraps the shared Stripe client as a payment gateway.
func NewStripeGateway(client *pkgstripe.Client) Gateway {
	if client == nil {
		return nil
	}
	return &stripeGateway{client: client}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	callCtx, cancel := g.client.CallContext(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = callCtx
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *stripeGateway) Refund(ctx context.Context, intentID string) error {
	callCtx, cancel := g.client.CallContext(ctx)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	params.Context = callCtx

	_, err := refund.New(params)
	return err
}
