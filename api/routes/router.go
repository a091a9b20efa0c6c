package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tillpoint-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/tillpoint-backend/api/controllers/carts"
	refundcontrollers "github.com/angelmondragon/tillpoint-backend/api/controllers/refunds"
	registercontrollers "github.com/angelmondragon/tillpoint-backend/api/controllers/registers"
	"github.com/angelmondragon/tillpoint-backend/api/middleware"
	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/internal/cartsession"
	checkoutsvc "github.com/angelmondragon/tillpoint-backend/internal/checkout"
	"github.com/angelmondragon/tillpoint-backend/internal/discounts"
	"github.com/angelmondragon/tillpoint-backend/internal/permissions"
	"github.com/angelmondragon/tillpoint-backend/internal/refunds"
	"github.com/angelmondragon/tillpoint-backend/internal/register"
	"github.com/angelmondragon/tillpoint-backend/internal/sales"
	"github.com/angelmondragon/tillpoint-backend/internal/settings"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/tillpoint-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	gatherer prometheus.Gatherer,
	sessionManager cartsession.Manager,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	registerService register.Service,
	refundService refunds.Service,
	salesService sales.Service,
	discountService discounts.Service,
	settingsService settings.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins, !cfg.App.IsProd()),
	)

	// A typed nil client must not reach the middleware as a non-nil interface.
	var (
		idempotencyStore pkgredis.IdempotencyStore
		limiter          middleware.RateLimiterStore
		readiness        = map[string]controllers.Pinger{"db": dbP}
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		limiter = redisClient
		readiness["redis"] = redisClient
	}

	pinPolicy := middleware.PINRateLimitPolicy(cfg.PINRateLimit)
	idempotent := middleware.Idempotency(idempotencyStore, logg, middleware.IdempotencyTTL)
	ledgerIdempotent := middleware.Idempotency(idempotencyStore, logg, middleware.LedgerIdempotencyTTL)
	can := func(action permissions.Action) func(http.Handler) http.Handler {
		return middleware.RequirePermission(action, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if cfg.Metrics.Enabled && gatherer != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/carts", func(r chi.Router) {
			r.Use(can(permissions.CartManage))
			r.Get("/", cartcontrollers.List(sessionManager, logg))
			r.Post("/", cartcontrollers.Create(sessionManager, logg))
			r.Get("/active", cartcontrollers.Active(sessionManager, logg))

			r.Route("/{cartId}", func(r chi.Router) {
				r.Get("/", cartcontrollers.Get(cartService, logg))
				r.Delete("/", cartcontrollers.Remove(sessionManager, logg))
				r.Post("/activate", cartcontrollers.Activate(sessionManager, logg))
				r.Post("/duplicate", cartcontrollers.Duplicate(sessionManager, logg))
				r.Post("/items", cartcontrollers.AddItem(cartService, logg))
				r.Patch("/items/{itemId}", cartcontrollers.UpdateItem(cartService, logg))
				r.Delete("/items/{itemId}", cartcontrollers.RemoveItem(cartService, logg))
				r.Put("/discount", cartcontrollers.ApplyDiscount(cartService, logg))
				r.Delete("/discount", cartcontrollers.RemoveDiscount(cartService, logg))
				r.Put("/customer", cartcontrollers.SetCustomer(cartService, logg))
				r.Post("/clear", cartcontrollers.Clear(cartService, logg))
				r.With(can(permissions.CartCheckout), ledgerIdempotent).Post("/checkout", controllers.Checkout(checkoutService, logg))
			})
		})

		r.Route("/registers", func(r chi.Router) {
			r.With(can(permissions.RegisterCreate)).Post("/", registercontrollers.Create(registerService, logg))

			r.Route("/{registerId}", func(r chi.Router) {
				r.With(can(permissions.RegisterView)).Get("/", registercontrollers.Get(registerService, logg))
				r.With(can(permissions.RegisterView)).Get("/summary", registercontrollers.Summary(registerService, logg))
				r.With(can(permissions.RegisterView)).Get("/transactions", registercontrollers.ListTransactions(registerService, logg))
				r.With(can(permissions.RegisterView)).Get("/sales", controllers.RegisterSales(salesService, logg))
				r.With(can(permissions.RegisterOpen)).Post("/open", registercontrollers.Open(registerService, logg))
				r.With(can(permissions.RegisterClose), ledgerIdempotent).Post("/close", registercontrollers.Close(registerService, logg))
				r.With(can(permissions.RegisterRecord), idempotent).Post("/transactions", registercontrollers.RecordTransaction(registerService, logg))
				r.With(
					can(permissions.LedgerCorrect),
					middleware.RateLimit(pinPolicy, limiter, logg),
					ledgerIdempotent,
				).Post("/corrections", registercontrollers.Correct(registerService, logg))
			})
		})

		r.Route("/sales/{saleId}", func(r chi.Router) {
			r.Use(can(permissions.RegisterView))
			r.Get("/", controllers.SaleGet(salesService, logg))
			r.Get("/refunds", refundcontrollers.ListBySale(refundService, logg))
		})

		r.Route("/refunds", func(r chi.Router) {
			r.With(can(permissions.RefundRequest), idempotent).Post("/", refundcontrollers.Request(refundService, logg))
			r.With(can(permissions.RefundRequest)).Get("/{refundId}", refundcontrollers.Get(refundService, logg))
			r.With(can(permissions.RefundApprove), ledgerIdempotent).Post("/{refundId}/complete", refundcontrollers.Complete(refundService, logg))
			r.With(can(permissions.RefundApprove)).Post("/{refundId}/reject", refundcontrollers.Reject(refundService, logg))
		})

		r.Route("/discounts", func(r chi.Router) {
			r.With(can(permissions.DiscountView)).Get("/", controllers.DiscountList(discountService, logg))
			r.With(can(permissions.DiscountView)).Get("/{discountId}", controllers.DiscountGet(discountService, logg))
			r.With(can(permissions.DiscountManage)).Post("/", controllers.DiscountCreate(discountService, logg))
			r.With(can(permissions.DiscountManage)).Post("/{discountId}/deactivate", controllers.DiscountDeactivate(discountService, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.With(can(permissions.SettingsView)).Get("/", controllers.SettingsGet(settingsService, logg))
			r.With(can(permissions.SettingsManage)).Put("/", controllers.SettingsUpdate(settingsService, logg))
		})
	})

	return r
}
