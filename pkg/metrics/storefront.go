package metrics

import "github.com/prometheus/client_golang/prometheus"

// StorefrontMetrics counts the checkout pipeline's business events.
type StorefrontMetrics struct {
	ordersCreated   prometheus.Counter
	ordersCancelled prometheus.Counter
	stockConflicts  prometheus.Counter
	paymentFailures prometheus.Counter
	cartsSwept      prometheus.Counter
}

// NewStorefrontMetrics registers the storefront counters on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "indipaws",
		Name:      "orders_created_total",
		Help:      "Orders confirmed through checkout.",
	})
	ordersCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "indipaws",
		Name:      "orders_cancelled_total",
		Help:      "Orders cancelled before shipping.",
	})
	stockConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "indipaws",
		Name:      "checkout_stock_conflicts_total",
		Help:      "Checkouts rejected because stock ran out.",
	})
	paymentFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "indipaws",
		Name:      "checkout_payment_failures_total",
		Help:      "Checkouts rejected by the payment gateway.",
	})
	cartsSwept := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "indipaws",
		Name:      "carts_swept_total",
		Help:      "Expired carts removed by the sweeper.",
	})
	reg.MustRegister(ordersCreated, ordersCancelled, stockConflicts, paymentFailures, cartsSwept)
	return &StorefrontMetrics{
		ordersCreated:   ordersCreated,
		ordersCancelled: ordersCancelled,
		stockConflicts:  stockConflicts,
		paymentFailures: paymentFailures,
		cartsSwept:      cartsSwept,
	}
}

// IncOrdersCreated counts one confirmed order.
func (s *StorefrontMetrics) IncOrdersCreated() {
	if s == nil || s.ordersCreated == nil {
		return
	}
	s.ordersCreated.Inc()
}

// IncOrdersCancelled counts one cancelled order.
func (s *StorefrontMetrics) IncOrdersCancelled() {
	if s == nil || s.ordersCancelled == nil {
		return
	}
	s.ordersCancelled.Inc()
}

// IncStockConflicts counts one checkout rejected for stock.
func (s *StorefrontMetrics) IncStockConflicts() {
	if s == nil || s.stockConflicts == nil {
		return
	}
	s.stockConflicts.Inc()
}

// IncPaymentFailures counts one checkout rejected by the gateway.
func (s *StorefrontMetrics) IncPaymentFailures() {
	if s == nil || s.paymentFailures == nil {
		return
	}
	s.paymentFailures.Inc()
}

// AddCartsSwept counts carts removed in a sweep pass.
func (s *StorefrontMetrics) AddCartsSwept(n int) {
	if s == nil || s.cartsSwept == nil || n <= 0 {
		return
	}
	s.cartsSwept.Add(float64(n))
}
