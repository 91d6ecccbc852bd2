package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storefront-labs/storefront-backend/api/controllers"
	cartcontrollers "github.com/storefront-labs/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/storefront-labs/storefront-backend/api/controllers/orders"
	webhookcontrollers "github.com/storefront-labs/storefront-backend/api/controllers/webhooks"
	"github.com/storefront-labs/storefront-backend/api/middleware"
	"github.com/storefront-labs/storefront-backend/internal/auth"
	"github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/internal/coupons"
	"github.com/storefront-labs/storefront-backend/internal/orders"
	"github.com/storefront-labs/storefront-backend/internal/payments"
	"github.com/storefront-labs/storefront-backend/internal/products"
	"github.com/storefront-labs/storefront-backend/internal/settings"
	"github.com/storefront-labs/storefront-backend/pkg/config"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/redis"
)

// RedisStore is the subset of the Redis client used by the API middleware.
type RedisStore interface {
	redis.IdempotencyStore
	controllers.Pinger
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Dependencies are the services the API routes dispatch to.
type Dependencies struct {
	DB              controllers.Pinger
	Redis           RedisStore
	Auth            auth.Service
	Settings        settings.Service
	Products        products.Service
	Coupons         coupons.Service
	Cart            cart.Service
	Orders          orders.Service
	Payments        payments.Service
	PaystackClient  PaystackSecret
	WebhookService  webhookcontrollers.PaystackWebhookService
	WebhookGuard    webhookcontrollers.PaystackWebhookGuard
	DeadLetters     controllers.DeadLetterLister
	MetricsGatherer prometheus.Gatherer
}

// PaystackSecret exposes the key used to verify webhook signatures.
type PaystackSecret interface {
	SecretKey() string
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.ClientBaseURL),
	)

	limits := cfg.RateLimit
	loginPolicy := middleware.RateLimitPolicy{Name: "login", Window: limits.LoginWindow, IPLimit: limits.LoginIPLimit, EmailLimit: limits.LoginEmailLimit}
	registerPolicy := middleware.RateLimitPolicy{Name: "register", Window: limits.RegisterWindow, IPLimit: limits.RegisterIPLimit, EmailLimit: limits.RegisterEmailLimit}
	couponPolicy := middleware.RateLimitPolicy{Name: "coupon", Window: limits.CouponWindow, IPLimit: limits.CouponIPLimit}

	var (
		rateStore        middleware.RateLimiterStore
		idempotencyStore redis.IdempotencyStore
		redisPinger      controllers.Pinger
	)
	if deps.Redis != nil {
		rateStore = deps.Redis
		idempotencyStore = deps.Redis
		redisPinger = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": redisPinger,
		}))
	})

	gatherer := deps.MetricsGatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Post("/api/webhooks/paystack", webhookcontrollers.PaystackWebhook(deps.WebhookService, deps.PaystackClient, deps.WebhookGuard, logg))

	// mounted after auth in each group so replay scopes carry the caller
	replay := middleware.Idempotency(idempotencyStore, logg)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(replay)
			r.With(middleware.RateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.RateLimit(registerPolicy, rateStore, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.AuthProfile(deps.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Get("/settings", controllers.SettingsGet(deps.Settings, logg))
			r.Get("/products", controllers.ProductsList(deps.Products, logg))
			r.Post("/cart/quote", cartcontrollers.Quote(deps.Cart, logg))
			r.With(middleware.RateLimit(couponPolicy, rateStore, logg)).Post("/coupons/apply", cartcontrollers.ApplyCoupon(deps.Cart, logg))
		})

		r.Route("/order", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(replay)
			r.Post("/initialize-payment", ordercontrollers.InitializePayment(deps.Payments, logg))
			r.Post("/verify-payment", ordercontrollers.VerifyPayment(deps.Payments, logg))
			r.Post("/saveOrder", ordercontrollers.SaveOrder(deps.Orders, logg))
			r.Get("/orders", ordercontrollers.List(deps.Orders, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).Patch("/update-status/{id}", ordercontrollers.UpdateStatus(deps.Orders, logg))
			r.Get("/{id}", ordercontrollers.Detail(deps.Orders, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.Use(replay)
			r.Put("/settings", controllers.AdminSettingsUpdate(deps.Settings, logg))
			r.Get("/coupons", controllers.AdminCouponList(deps.Coupons, logg))
			r.Post("/coupons", controllers.AdminCouponCreate(deps.Coupons, logg))
			r.Post("/products", controllers.AdminProductCreate(deps.Products, logg))
			r.Get("/outbox/dead-letters", controllers.AdminDeadLetters(deps.DeadLetters, logg))
		})
	})

	return r
}
