package payments

import "context"

// Intent is the provider-side handle for a pending charge.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Gateway abstracts the payment provider. The production implementation talks
// to Stripe; tests substitute a stub.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)
	Refund(ctx context.Context, intentID string) error
}
