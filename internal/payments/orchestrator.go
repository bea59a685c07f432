package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
	"github.com/indipaws/petstore-backend/pkg/logger"
)

const defaultRefundTimeout = 10 * time.Second

// Orchestrator fronts the gateway with coded error mapping and best-effort
// refunds.
type Orchestrator interface {
	CreateIntent(ctx context.Context, amountCents int, metadata map[string]string) (*Intent, error)
	Refund(ctx context.Context, intentID string) error
}

type orchestrator struct {
	gateway       Gateway
	logg          *logger.Logger
	currency      string
	refundTimeout time.Duration
}

// NewOrchestrator builds the payment orchestrator.
func NewOrchestrator(gateway Gateway, logg *logger.Logger, currency string) (Orchestrator, error) {
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	currency = strings.TrimSpace(strings.ToLower(currency))
	if currency == "" {
		currency = "usd"
	}
	return &orchestrator{
		gateway:       gateway,
		logg:          logg,
		currency:      currency,
		refundTimeout: defaultRefundTimeout,
	}, nil
}

// CreateIntent opens a charge for the quoted total. Gateway failures surface
// as PAYMENT_FAILED so the checkout can report a retryable rejection.
func (o *orchestrator) CreateIntent(ctx context.Context, amountCents int, metadata map[string]string) (*Intent, error) {
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	intent, err := o.gateway.CreateIntent(ctx, int64(amountCents), o.currency, metadata)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, "create payment intent")
	}
	return intent, nil
}

// Refund is best-effort: the call is bounded and failures are logged, never
// propagated into the caller's transaction.
func (o *orchestrator) Refund(ctx context.Context, intentID string) error {
	if strings.TrimSpace(intentID) == "" {
		return nil
	}
	refundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.refundTimeout)
	defer cancel()

	if err := o.gateway.Refund(refundCtx, intentID); err != nil {
		o.logg.Error(ctx, fmt.Sprintf("refund failed for intent %s", intentID), err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund payment intent")
	}
	return nil
}
