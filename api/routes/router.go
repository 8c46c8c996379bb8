package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retoro-app/retoro-backend/api/controllers"
	"github.com/retoro-app/retoro-backend/api/middleware"
	"github.com/retoro-app/retoro-backend/internal/auth"
	"github.com/retoro-app/retoro-backend/internal/currency"
	"github.com/retoro-app/retoro-backend/internal/invoices"
	"github.com/retoro-app/retoro-backend/internal/retailers"
	"github.com/retoro-app/retoro-backend/internal/returns"
	"github.com/retoro-app/retoro-backend/internal/settings"
	"github.com/retoro-app/retoro-backend/internal/support"
	"github.com/retoro-app/retoro-backend/pkg/config"
	"github.com/retoro-app/retoro-backend/pkg/logger"
	"github.com/retoro-app/retoro-backend/pkg/metrics"
	"github.com/retoro-app/retoro-backend/pkg/redis"
)

// Services bundles everything the router wires into controllers.
type Services struct {
	Auth      auth.Service
	Returns   returns.Service
	Retailers retailers.Service
	Currency  currency.Service
	Settings  settings.Service
	Support   support.Service
	Invoices  invoices.Service
}

// NewRouter assembles the full HTTP surface: health and metrics endpoints,
// the auth flows, and the versioned API behind session or anonymous auth.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisClient *redis.Client,
	svcs Services,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()

	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	httpMetrics := metrics.NewHTTPMetrics(registry)

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	magicLinkPolicy := middleware.NewAuthRateLimitPolicy(
		"magic-link",
		cfg.AuthRateLimit.MagicLinkWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.MagicLinkLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": dbPinger,
			"redis":    redisClient,
		}))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
			Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(magicLinkPolicy, redisClient, logg)).
			Post("/magic-link", controllers.AuthMagicLinkRequest(svcs.Auth, logg))
		r.Post("/magic-link/verify", controllers.AuthMagicLinkVerify(svcs.Auth, logg))
		r.Post("/apple", controllers.AuthApple(svcs.Auth, logg))
		r.Get("/google/callback", controllers.AuthGoogleCallback(svcs.Auth, logg))

		r.With(middleware.RequireSession(svcs.Auth, logg)).
			Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
		r.With(middleware.SessionOrAnonymous(svcs.Auth, logg)).
			Get("/session", controllers.AuthSession(logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Return tracking works before sign-up: an anonymous device id is
		// promoted to a shadow user so every row still has an owner.
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionOrAnonymous(svcs.Auth, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Route("/return-items", func(r chi.Router) {
				r.Get("/", controllers.ReturnItemsList(svcs.Returns, logg))
				r.Post("/", controllers.ReturnItemsCreate(svcs.Returns, logg))
				r.Get("/{itemID}", controllers.ReturnItemsGet(svcs.Returns, logg))
				r.Put("/{itemID}", controllers.ReturnItemsUpdate(svcs.Returns, logg))
				r.Patch("/{itemID}", controllers.ReturnItemsUpdate(svcs.Returns, logg))
				r.Delete("/{itemID}", controllers.ReturnItemsDelete(svcs.Returns, logg))
			})

			r.Post("/upload/invoice", controllers.UploadInvoice(svcs.Invoices, logg))
			r.Post("/support", controllers.SupportSubmit(svcs.Support, logg))
		})

		r.Route("/retailers", func(r chi.Router) {
			r.Get("/", controllers.RetailersList(svcs.Retailers, logg))
			r.Get("/{retailerID}", controllers.RetailersGet(svcs.Retailers, logg))
			r.With(
				middleware.RequireSession(svcs.Auth, logg),
				middleware.Idempotency(redisClient, logg),
			).Post("/", controllers.RetailersCreate(svcs.Retailers, logg))
		})

		r.Get("/currency/convert", controllers.CurrencyConvert(svcs.Currency, logg))

		r.Route("/settings", func(r chi.Router) {
			r.Use(middleware.RequireSession(svcs.Auth, logg))
			r.Get("/", controllers.SettingsGet(svcs.Settings, logg))
			r.Put("/", controllers.SettingsUpdate(svcs.Settings, logg))
			r.Get("/currency", controllers.SettingsGet(svcs.Settings, logg))
			r.Put("/currency", controllers.SettingsUpdate(svcs.Settings, logg))
		})
	})

	return r
}
