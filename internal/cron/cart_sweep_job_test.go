package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indipaws/petstore-backend/pkg/logger"
	"github.com/indipaws/petstore-backend/pkg/metrics"
)

type stubPurger struct {
	purged int64
	err    error
	seen   time.Time
}

func (s *stubPurger) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	s.seen = now
	return s.purged, s.err
}

func TestCartSweepJobPurges(t *testing.T) {
	purger := &stubPurger{purged: 3}
	job, err := NewCartSweepJob(CartSweepJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "sweep-test", Level: logger.ParseLevel("error"), Output: io.Discard}),
		Carts:   purger,
		Metrics: metrics.NewStorefrontMetrics(nil),
	})
	require.NoError(t, err)

	impl := job.(*cartSweepJob)
	frozen := time.Date(2026, time.March, 14, 3, 0, 0, 0, time.UTC)
	impl.now = func() time.Time { return frozen }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, frozen, purger.seen)
	assert.Equal(t, "cart-sweep", job.Name())
}

func TestCartSweepJobPropagatesError(t *testing.T) {
	purger := &stubPurger{err: errors.New("db down")}
	job, err := NewCartSweepJob(CartSweepJobParams{
		Logger: logger.New(logger.Options{ServiceName: "sweep-test", Level: logger.ParseLevel("error"), Output: io.Discard}),
		Carts:  purger,
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purge expired carts")
}

func TestNewCartSweepJobValidates(t *testing.T) {
	_, err := NewCartSweepJob(CartSweepJobParams{Carts: &stubPurger{}})
	require.Error(t, err)

	_, err = NewCartSweepJob(CartSweepJobParams{
		Logger: logger.New(logger.Options{ServiceName: "sweep-test", Level: logger.ParseLevel("error"), Output: io.Discard}),
	})
	require.Error(t, err)
}
