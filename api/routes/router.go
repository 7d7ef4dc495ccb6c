package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hearthapp/hearthledger-backend/api/controllers"
	"github.com/hearthapp/hearthledger-backend/api/middleware"
	"github.com/hearthapp/hearthledger-backend/internal/auth"
	"github.com/hearthapp/hearthledger-backend/internal/expenses"
	"github.com/hearthapp/hearthledger-backend/internal/households"
	"github.com/hearthapp/hearthledger-backend/internal/quests"
	"github.com/hearthapp/hearthledger-backend/internal/receipts"
	"github.com/hearthapp/hearthledger-backend/pkg/auth/session"
	"github.com/hearthapp/hearthledger-backend/pkg/config"
	"github.com/hearthapp/hearthledger-backend/pkg/db"
	"github.com/hearthapp/hearthledger-backend/pkg/logger"
	"github.com/hearthapp/hearthledger-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. Optional fields may be nil;
// the router degrades gracefully (no session check, no rate limiting).
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Registry *prometheus.Registry

	Auth       auth.Service
	Households households.Service
	Expenses   expenses.Service
	Receipts   receipts.Service
	Quests     quests.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	// A nil *redis.Client must not become a non-nil interface downstream.
	var redisPinger db.Pinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

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

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Get("/quests", controllers.QuestCatalog(deps.Quests, logg))

		r.Route("/households", func(r chi.Router) {
			r.Post("/", controllers.HouseholdCreate(deps.Households, logg))
			r.Get("/", controllers.HouseholdList(deps.Households, logg))

			r.Route("/{householdId}", func(r chi.Router) {
				r.Get("/", controllers.HouseholdGet(deps.Households, logg))
				r.Get("/members", controllers.HouseholdMembers(deps.Households, logg))
				r.Post("/members", controllers.HouseholdAddMember(deps.Households, logg))

				r.Route("/budgets", func(r chi.Router) {
					r.Get("/", controllers.BudgetList(deps.Households, logg))
					r.Put("/", controllers.BudgetSet(deps.Households, logg))
				})

				r.Route("/expenses", func(r chi.Router) {
					r.Get("/", controllers.ExpenseList(deps.Expenses, deps.Households, logg))
					r.Post("/", controllers.ExpenseCreate(deps.Expenses, deps.Households, logg))
				})

				r.Route("/receipts", func(r chi.Router) {
					r.Get("/", controllers.ReceiptList(deps.Receipts, deps.Households, logg))
					r.Post("/", controllers.ReceiptCreate(deps.Receipts, deps.Households, logg))
				})

				r.Get("/quests", controllers.QuestListMine(deps.Quests, deps.Households, logg))
				r.Get("/badges", controllers.QuestBadges(deps.Quests, deps.Households, logg))
				r.Route("/quests/{questId}", func(r chi.Router) {
					r.Post("/assign", controllers.QuestAssign(deps.Quests, deps.Households, logg))
					r.Post("/progress", controllers.QuestUpdateProgress(deps.Quests, deps.Households, logg))
					r.Post("/complete", controllers.QuestComplete(deps.Quests, deps.Households, logg))
					r.Post("/claim", controllers.QuestClaim(deps.Quests, deps.Households, logg))
				})
			})
		})

		r.Route("/receipts/{receiptId}", func(r chi.Router) {
			r.Get("/", controllers.ReceiptGet(deps.Receipts, deps.Households, logg))
			r.Post("/items", controllers.ReceiptAddItem(deps.Receipts, deps.Households, logg))
			r.Post("/confirm", controllers.ReceiptConfirm(deps.Receipts, deps.Households, logg))
			r.Post("/assignments", controllers.ReceiptAssign(deps.Receipts, deps.Households, logg))
		})
	})

	return r
}
