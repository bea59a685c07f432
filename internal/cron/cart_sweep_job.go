package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/indipaws/petstore-backend/pkg/logger"
	"github.com/indipaws/petstore-backend/pkg/metrics"
)

type cartPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// CartSweepJobParams configure the expired-cart sweeper.
type CartSweepJobParams struct {
	Logger  *logger.Logger
	Carts   cartPurger
	Metrics *metrics.StorefrontMetrics
}

// NewCartSweepJob builds the job that drops carts past their expiry.
func NewCartSweepJob(params CartSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart purger required")
	}
	return &cartSweepJob{
		logg:    params.Logger,
		carts:   params.Carts,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type cartSweepJob struct {
	logg    *logger.Logger
	carts   cartPurger
	metrics *metrics.StorefrontMetrics
	now     func() time.Time
}

func (j *cartSweepJob) Name() string { return "cart-sweep" }

func (j *cartSweepJob) Run(ctx context.Context) error {
	purged, err := j.carts.PurgeExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("purge expired carts: %w", err)
	}
	j.metrics.AddCartsSwept(int(purged))
	logCtx := j.logg.WithField(ctx, "count", purged)
	j.logg.Info(logCtx, "expired cart sweep complete")
	return nil
}
