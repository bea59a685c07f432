package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/indipaws/petstore-backend/api/controllers"
	"github.com/indipaws/petstore-backend/api/middleware"
	"github.com/indipaws/petstore-backend/internal/cart"
	"github.com/indipaws/petstore-backend/internal/catalog"
	"github.com/indipaws/petstore-backend/internal/orders"
	"github.com/indipaws/petstore-backend/internal/payments"
	"github.com/indipaws/petstore-backend/internal/shipping"
	"github.com/indipaws/petstore-backend/pkg/config"
	"github.com/indipaws/petstore-backend/pkg/db"
	"github.com/indipaws/petstore-backend/pkg/logger"
	pkgredis "github.com/indipaws/petstore-backend/pkg/redis"
)

// checkoutConfirmPolicy throttles order creation per client IP. Quote and
// intent creation stay unthrottled; only the committing call is guarded.
var checkoutConfirmPolicy = middleware.RateLimitPolicy{
	Name:   "checkout-confirm",
	Window: time.Minute,
	Limit:  10,
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database db.Pinger,
	cache pkgredis.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	limiter pkgredis.RateLimiter,
	catalogRepo *catalog.Repository,
	cartService cart.Service,
	shippingService shipping.Service,
	orderService orders.Service,
	paymentOrchestrator payments.Orchestrator,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, database, cache, logg))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/products", controllers.ListProducts(catalogRepo, logg))
		r.Get("/products/{productId}", controllers.GetProduct(catalogRepo, logg))
		r.Get("/shipping-options", controllers.ListShippingOptions(shippingService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.FetchCart(cartService, logg))
			r.Delete("/", controllers.ClearCart(cartService, logg))
			r.Post("/items", controllers.AddCartItem(cartService, logg))
			r.Put("/items/{itemId}", controllers.UpdateCartItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.RemoveCartItem(cartService, logg))
			r.With(middleware.RequireUser(logg)).Post("/merge", controllers.MergeCart(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/quote", controllers.QuoteCheckout(orderService, logg))
			r.Post("/payment-intent", controllers.CreatePaymentIntent(orderService, paymentOrchestrator, logg))
			r.With(middleware.RateLimit(checkoutConfirmPolicy, limiter, logg)).
				Post("/confirm", controllers.ConfirmCheckout(orderService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireUser(logg)).Get("/", controllers.ListOrders(orderService, logg))
			r.Get("/{orderId}", controllers.GetOrder(orderService, logg))
			r.With(middleware.RequireUser(logg)).Post("/{orderId}/cancel", controllers.CancelOrder(orderService, logg))
			r.Post("/{orderId}/reorder", controllers.ReorderOrder(orderService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdminKey(cfg.Admin, logg))
			r.Post("/orders/{orderId}/ship", controllers.ShipOrder(orderService, logg))
			r.Post("/orders/{orderId}/deliver", controllers.DeliverOrder(orderService, logg))
		})
	})

	return r
}
