package financeapi

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/bizfinance/internal/http/handlers/accounts"
	"github.com/magabrotheeeer/bizfinance/internal/http/handlers/analysis"
	"github.com/magabrotheeeer/bizfinance/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/bizfinance/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/bizfinance/internal/http/handlers/billing"
	"github.com/magabrotheeeer/bizfinance/internal/http/handlers/documents"
	"github.com/magabrotheeeer/bizfinance/internal/http/handlers/health"
	"github.com/magabrotheeeer/bizfinance/internal/http/handlers/profile"
	"github.com/magabrotheeeer/bizfinance/internal/http/handlers/projects"
	"github.com/magabrotheeeer/bizfinance/internal/http/handlers/rates"
	"github.com/magabrotheeeer/bizfinance/internal/http/handlers/receipts"
	"github.com/magabrotheeeer/bizfinance/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bizfinance/internal/metrics"
	analysisservice "github.com/magabrotheeeer/bizfinance/internal/services/analysis"
	authservice "github.com/magabrotheeeer/bizfinance/internal/services/auth"
	billingservice "github.com/magabrotheeeer/bizfinance/internal/services/billing"
	rateservice "github.com/magabrotheeeer/bizfinance/internal/services/rates"
)

// Services зависимости обработчиков.
type Services struct {
	Auth      *authservice.AuthService
	Projects  projects.Service
	Accounts  accounts.Service
	Receipts  receipts.Service
	Documents documents.Service
	Rates     *rateservice.Service
	Analysis  *analysisservice.Client
	Billing   *billingservice.Service
	Health    map[string]health.Pinger
}

// RouteOptions настройки маршрутов из конфига.
type RouteOptions struct {
	WebhookSecret    string
	WebhookTolerance time.Duration
	RateLimit        float64
	RateBurst        int
	Now              func() time.Time
}

// RegisterRoutes регистрирует все маршруты приложения.
//
// Порядок проверок на защищенных маршрутах: JWT, затем подписка, затем
// владение ресурсом. Ресурс не загружается, пока не пройдены предыдущие.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, opts RouteOptions) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		metrics.Middleware,
	)

	requireAuth := middlewarectx.JWTMiddleware(svc.Auth, logger)
	requirePremium := middlewarectx.PremiumMiddleware(logger, opts.Now)

	projectHandler := projects.New(logger, svc.Projects)
	accountHandler := accounts.New(logger, svc.Accounts)
	receiptHandler := receipts.New(logger, svc.Receipts)
	documentHandler := documents.New(logger, svc.Documents)
	profileHandler := profile.New(logger, svc.Auth)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, opts.RateLimit, opts.RateBurst))
			r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)
			r.Get("/rates", rates.New(logger, svc.Rates).ServeHTTP)
		})

		// Webhook без JWT и без лимита, подлинность проверяется подписью
		r.Post("/billing/webhook",
			billing.New(logger, svc.Billing, opts.WebhookSecret, opts.WebhookTolerance).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middlewarectx.RateLimitMiddleware(logger, opts.RateLimit, opts.RateBurst))

			r.Get("/profile", profileHandler.Get)
			r.Put("/profile", profileHandler.Update)

			r.Post("/projects", projectHandler.Create)
			r.Get("/projects", projectHandler.List)
			r.Route("/projects/{id}", func(r chi.Router) {
				r.With(projects.Guard(logger, svc.Projects)).Group(func(r chi.Router) {
					r.Get("/", projectHandler.Get)
					r.Put("/", projectHandler.Update)
					r.Delete("/", projectHandler.Delete)
					r.Get("/milestones", projectHandler.ListMilestones)
					r.Post("/milestones", projectHandler.CreateMilestone)
					r.Put("/milestones/{milestoneID}", projectHandler.UpdateMilestone)
					r.Delete("/milestones/{milestoneID}", projectHandler.DeleteMilestone)
				})
				// подписка проверяется раньше владения
				r.With(requirePremium, projects.Guard(logger, svc.Projects)).
					Get("/report", projectHandler.Report)
			})

			r.Post("/accounts", accountHandler.Create)
			r.Get("/accounts", accountHandler.List)
			r.Route("/accounts/{id}", func(r chi.Router) {
				r.Use(accounts.Guard(logger, svc.Accounts))
				r.Get("/", accountHandler.Get)
				r.Delete("/", accountHandler.Delete)
				r.Get("/transactions", accountHandler.ListTransactions)
				r.Post("/transactions", accountHandler.AddTransaction)
			})

			r.Post("/receipts", receiptHandler.Create)
			r.Get("/receipts", receiptHandler.List)
			r.Route("/receipts/{id}", func(r chi.Router) {
				r.Use(receipts.Guard(logger, svc.Receipts))
				r.Get("/", receiptHandler.Get)
				r.Delete("/", receiptHandler.Delete)
			})

			r.Post("/documents", documentHandler.Create)
			r.Get("/documents", documentHandler.List)
			r.Route("/documents/{id}", func(r chi.Router) {
				r.Use(documents.Guard(logger, svc.Documents))
				r.Get("/", documentHandler.Get)
				r.Delete("/", documentHandler.Delete)
			})

			// Только с активной подпиской
			r.With(requirePremium).Post("/ai/analyze", analysis.New(logger, svc.Analysis).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, svc.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
